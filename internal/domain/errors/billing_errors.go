package errors

import "errors"

var (
	// ErrRecordNotFound indicates that no subscription record exists for the business
	ErrRecordNotFound = errors.New("subscription record not found")

	// ErrBusinessNotFound indicates that the referenced business does not exist
	ErrBusinessNotFound = errors.New("business not found")

	// ErrNoActiveSubscription indicates a tier change with no external subscription to change
	ErrNoActiveSubscription = errors.New("no active external subscription")

	// ErrNoBillingCustomer indicates the business has never completed a checkout
	ErrNoBillingCustomer = errors.New("no billing customer for business")

	// ErrMissingBusinessMetadata indicates a webhook event that cannot be tied to a business
	ErrMissingBusinessMetadata = errors.New("webhook event carries no business_id metadata")

	// ErrDuplicateEvent indicates a webhook event that was already processed
	ErrDuplicateEvent = errors.New("webhook event already processed")

	// ErrStaleEvent indicates a webhook event older than the last applied one
	ErrStaleEvent = errors.New("webhook event older than last applied event")

	// ErrInvalidVerificationCode indicates a claim code/token that is wrong, expired or used
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")

	// ErrPriceNotConfigured indicates no price id is configured for a tier/cycle
	ErrPriceNotConfigured = errors.New("no price configured for tier")
)
