package provider

import (
	"context"
	"time"
)

// BillingProvider is the only seam to the external payment processor.
// Implementations translate processor payloads into the normalized types
// below; nothing outside this interface imports the processor SDK.
type BillingProvider interface {
	// CreateCustomer creates a processor customer record and returns its id.
	CreateCustomer(ctx context.Context, name, email string, metadata map[string]string) (string, error)

	// CreateCheckoutSession requests a hosted checkout session.
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)

	// GetCheckoutSession fetches a checkout session by id (success-URL flow).
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// CreatePortalSession returns a hosted self-service billing portal URL.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)

	// GetSubscription fetches the processor subscription with its price.
	GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionInfo, error)

	// UpdateSubscriptionPrice swaps the subscription item's price with
	// pro-ration.
	UpdateSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) error

	// CancelSubscription cancels immediately or flags cancel-at-period-end.
	CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error

	// ResumeSubscription clears the cancel-at-period-end flag.
	ResumeSubscription(ctx context.Context, subscriptionID string) error

	// EnsurePrice creates a product/price pair for a tier missing from
	// static configuration and returns the new price id.
	EnsurePrice(ctx context.Context, tier, cycle string, amountCents int64) (string, error)

	// VerifyWebhook checks the delivery signature and returns the
	// normalized event.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// CheckoutParams represents a provider-agnostic checkout session request
type CheckoutParams struct {
	CustomerID    string            `json:"customer_id,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	PriceID       string            `json:"price_id"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// CheckoutSession represents a hosted checkout session
type CheckoutSession struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	CustomerID     string `json:"customer_id,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	PaymentStatus  string `json:"payment_status,omitempty"`
}

// SubscriptionInfo is the normalized processor subscription state. Handlers
// re-derive absolute state from it rather than applying deltas.
type SubscriptionInfo struct {
	ID                string            `json:"id"`
	CustomerID        string            `json:"customer_id"`
	Status            string            `json:"status"`
	PriceID           string            `json:"price_id"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  time.Time         `json:"current_period_end"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// InvoiceInfo is the normalized invoice payload of payment events
type InvoiceInfo struct {
	ID             string `json:"id"`
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	AmountDue      int64  `json:"amount_due"`
}

// Event types emitted by VerifyWebhook, normalized across providers.
const (
	EventCheckoutCompleted    = "checkout.completed"
	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionDeleted  = "subscription.deleted"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// WebhookEvent represents a verified provider webhook delivery
type WebhookEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`

	// Exactly one of the following is set, matching Type.
	Session      *CheckoutSession  `json:"session,omitempty"`
	Subscription *SubscriptionInfo `json:"subscription,omitempty"`
	Invoice      *InvoiceInfo      `json:"invoice,omitempty"`

	// Metadata carries the checkout session metadata for checkout events.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Raw is the provider payload, persisted for audit.
	Raw []byte `json:"-"`
}

// ProviderError carries a processor error code alongside the message
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
