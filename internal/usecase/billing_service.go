package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daynewsmedia/alphasite-billing/internal/config"
	domainErrors "github.com/daynewsmedia/alphasite-billing/internal/domain/errors"
	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
	"github.com/daynewsmedia/alphasite-billing/internal/domain/provider"
	domainRepo "github.com/daynewsmedia/alphasite-billing/internal/domain/repository"
)

// BillingService is the only component that talks to the payment processor.
// It reconciles the processor's asynchronous event stream with the
// lifecycle state machine; handlers re-derive absolute state from event
// payloads rather than applying deltas.
type BillingService struct {
	lifecycle    *LifecycleService
	recordRepo   domainRepo.SubscriptionRecordRepository
	businessRepo domainRepo.BusinessRepository
	provider     provider.BillingProvider
	plans        *config.PlansConfig
	clientURL    string
	logger       *zap.Logger
}

// NewBillingService creates a new billing service instance
func NewBillingService(
	lifecycle *LifecycleService,
	recordRepo domainRepo.SubscriptionRecordRepository,
	businessRepo domainRepo.BusinessRepository,
	billingProvider provider.BillingProvider,
	plans *config.PlansConfig,
	clientURL string,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		lifecycle:    lifecycle,
		recordRepo:   recordRepo,
		businessRepo: businessRepo,
		provider:     billingProvider,
		plans:        plans,
		clientURL:    clientURL,
		logger:       logger,
	}
}

// CreateCheckoutSession requests a hosted checkout session for (tier,
// cycle). Subscription state changes only once the processor confirms
// payment via webhook; the purchaser may abandon checkout.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, businessID uuid.UUID, tier, cycle string) (string, error) {
	priceID, err := s.resolvePrice(ctx, tier, cycle)
	if err != nil {
		return "", err
	}

	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return "", err
	}

	record, err := s.lifecycle.EnsureRecord(ctx, businessID)
	if err != nil {
		return "", err
	}

	customerID := ""
	if record.ExternalCustomerID != nil {
		customerID = *record.ExternalCustomerID
	} else {
		customerID, err = s.provider.CreateCustomer(ctx, business.Name, business.Email, map[string]string{
			"business_id": businessID.String(),
		})
		if err != nil {
			s.logger.Error("Failed to create billing customer",
				zap.String("business_id", businessID.String()),
				zap.Error(err))
			return "", fmt.Errorf("failed to create billing customer: %w", err)
		}
		record.ExternalCustomerID = &customerID
		if err := s.recordRepo.Update(ctx, record); err != nil {
			return "", err
		}
	}

	session, err := s.provider.CreateCheckoutSession(ctx, &provider.CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: s.clientURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.clientURL + "/billing/cancel",
		Metadata: map[string]string{
			"business_id": businessID.String(),
			"tier":        tier,
			"cycle":       cycle,
		},
	})
	if err != nil {
		s.logger.Error("Failed to create checkout session",
			zap.String("business_id", businessID.String()),
			zap.String("tier", tier),
			zap.Error(err))
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.logger.Info("Checkout session created",
		zap.String("business_id", businessID.String()),
		zap.String("session_id", session.ID),
		zap.String("tier", tier))

	return session.URL, nil
}

// GetCheckoutSession fetches session state for the success-URL handler.
func (s *BillingService) GetCheckoutSession(ctx context.Context, sessionID string) (*provider.CheckoutSession, error) {
	return s.provider.GetCheckoutSession(ctx, sessionID)
}

// HandleWebhookEvent dispatches a verified processor event.
func (s *BillingService) HandleWebhookEvent(ctx context.Context, event *provider.WebhookEvent) error {
	switch event.Type {
	case provider.EventCheckoutCompleted:
		return s.onCheckoutCompleted(ctx, event)
	case provider.EventSubscriptionUpdated:
		return s.onSubscriptionUpdated(ctx, event)
	case provider.EventSubscriptionDeleted:
		return s.onSubscriptionDeleted(ctx, event)
	case provider.EventInvoicePaymentFailed:
		return s.onInvoicePaymentFailed(ctx, event)
	default:
		s.logger.Warn("Unhandled webhook event type",
			zap.String("type", event.Type),
			zap.String("event_id", event.ID))
		return nil
	}
}

// onCheckoutCompleted layers paid state onto the business's record. The
// business association comes exclusively from session metadata; without it
// the event is unrecoverable.
func (s *BillingService) onCheckoutCompleted(ctx context.Context, event *provider.WebhookEvent) error {
	businessIDStr := event.Metadata["business_id"]
	if businessIDStr == "" {
		s.logger.Error("Checkout completed event without business_id metadata, dropping",
			zap.String("event_id", event.ID))
		return domainErrors.ErrMissingBusinessMetadata
	}

	businessID, err := uuid.Parse(businessIDStr)
	if err != nil {
		s.logger.Error("Checkout completed event with malformed business_id, dropping",
			zap.String("event_id", event.ID),
			zap.String("business_id", businessIDStr))
		return domainErrors.ErrMissingBusinessMetadata
	}

	if event.Session == nil || event.Session.SubscriptionID == "" {
		s.logger.Warn("Checkout completed without subscription, ignoring",
			zap.String("event_id", event.ID))
		return nil
	}

	record, err := s.lifecycle.EnsureRecord(ctx, businessID)
	if err != nil {
		return err
	}

	sub, err := s.provider.GetSubscription(ctx, event.Session.SubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription %s: %w", event.Session.SubscriptionID, err)
	}

	tier := s.inferTier(sub.PriceID)
	plan, _ := s.plans.Plan(string(tier))

	if sub.CustomerID != "" {
		record.ExternalCustomerID = &sub.CustomerID
	}
	eventAt := event.CreatedAt
	record.LastEventAt = &eventAt

	return s.lifecycle.ConvertToPaid(ctx, record, tier, sub.ID, plan.Services, sub.CurrentPeriodEnd)
}

// onSubscriptionUpdated re-derives tier, status and expiry from the event's
// absolute state. Idempotent under redelivery; events older than the
// record's high-water-mark are rejected instead of applied.
func (s *BillingService) onSubscriptionUpdated(ctx context.Context, event *provider.WebhookEvent) error {
	sub := event.Subscription
	record, err := s.findRecord(ctx, sub)
	if err != nil {
		return err
	}
	if record == nil {
		s.logger.Warn("Subscription updated for unknown record, dropping",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", sub.ID))
		return nil
	}

	if record.LastEventAt != nil && event.CreatedAt.Before(*record.LastEventAt) {
		s.logger.Warn("Stale subscription event rejected",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", sub.ID),
			zap.Time("event_created_at", event.CreatedAt),
			zap.Time("last_event_at", *record.LastEventAt))
		return domainErrors.ErrStaleEvent
	}

	eventAt := event.CreatedAt

	switch sub.Status {
	case "canceled", "unpaid", "past_due":
		record.LastEventAt = &eventAt
		return s.lifecycle.DowngradeToBasic(ctx, record)

	case "active", "trialing":
		tier := s.inferTier(sub.PriceID)
		plan, _ := s.plans.Plan(string(tier))

		record.Tier = tier
		record.Status = model.SubscriptionStatusActive
		record.AIServicesEnabled = plan.Services
		record.AutoRenew = !sub.CancelAtPeriodEnd
		record.LastEventAt = &eventAt
		if !sub.CurrentPeriodEnd.IsZero() {
			periodEnd := sub.CurrentPeriodEnd
			record.SubscriptionExpiresAt = &periodEnd
		}
		if record.ExternalSubscriptionID == nil {
			subID := sub.ID
			record.ExternalSubscriptionID = &subID
		}

		if err := s.recordRepo.Update(ctx, record); err != nil {
			return err
		}
		s.lifecycle.InvalidateCache(ctx, record.BusinessID)
		return nil

	default:
		s.logger.Info("Ignoring subscription status",
			zap.String("event_id", event.ID),
			zap.String("status", sub.Status))
		return nil
	}
}

func (s *BillingService) onSubscriptionDeleted(ctx context.Context, event *provider.WebhookEvent) error {
	sub := event.Subscription
	record, err := s.findRecord(ctx, sub)
	if err != nil {
		return err
	}
	if record == nil {
		s.logger.Warn("Subscription deleted for unknown record, dropping",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", sub.ID))
		return nil
	}

	if record.LastEventAt != nil && event.CreatedAt.Before(*record.LastEventAt) {
		s.logger.Warn("Stale subscription deletion rejected",
			zap.String("event_id", event.ID),
			zap.String("subscription_id", sub.ID))
		return domainErrors.ErrStaleEvent
	}

	eventAt := event.CreatedAt
	record.LastEventAt = &eventAt
	return s.lifecycle.DowngradeToBasic(ctx, record)
}

// onInvoicePaymentFailed only logs. The downgrade is driven by the
// subscription-status event the processor sends alongside; acting on both
// would race.
func (s *BillingService) onInvoicePaymentFailed(ctx context.Context, event *provider.WebhookEvent) error {
	inv := event.Invoice
	s.logger.Warn("Invoice payment failed",
		zap.String("event_id", event.ID),
		zap.String("invoice_id", inv.ID),
		zap.String("customer_id", inv.CustomerID),
		zap.String("subscription_id", inv.SubscriptionID),
		zap.Int64("amount_due", inv.AmountDue))
	return nil
}

// CancelSubscription cancels at the gateway. Immediate cancellation
// downgrades synchronously; otherwise auto-renew is flipped off and the
// period-end webhook drives the downgrade. Returns success rather than an
// error so UI flows can degrade gracefully.
func (s *BillingService) CancelSubscription(ctx context.Context, record *model.SubscriptionRecord, immediate bool) bool {
	if record.ExternalSubscriptionID == nil {
		s.logger.Warn("Cancel requested with no external subscription",
			zap.String("business_id", record.BusinessID.String()))
		return false
	}

	if err := s.provider.CancelSubscription(ctx, *record.ExternalSubscriptionID, !immediate); err != nil {
		s.logger.Error("Failed to cancel subscription at gateway",
			zap.String("business_id", record.BusinessID.String()),
			zap.String("subscription_id", *record.ExternalSubscriptionID),
			zap.Error(err))
		return false
	}

	if immediate {
		if err := s.lifecycle.DowngradeToBasic(ctx, record); err != nil {
			s.logger.Error("Failed to downgrade after immediate cancellation",
				zap.String("business_id", record.BusinessID.String()),
				zap.Error(err))
			return false
		}
		return true
	}

	record.AutoRenew = false
	if err := s.recordRepo.Update(ctx, record); err != nil {
		s.logger.Error("Failed to persist auto-renew flag",
			zap.String("business_id", record.BusinessID.String()),
			zap.Error(err))
		return false
	}

	s.logger.Info("Subscription set to cancel at period end",
		zap.String("business_id", record.BusinessID.String()),
		zap.String("subscription_id", *record.ExternalSubscriptionID))

	return true
}

// ResumeSubscription clears the at-period-end cancellation flag at the
// gateway and locally.
func (s *BillingService) ResumeSubscription(ctx context.Context, record *model.SubscriptionRecord) error {
	if record.ExternalSubscriptionID == nil {
		return domainErrors.ErrNoActiveSubscription
	}

	if err := s.provider.ResumeSubscription(ctx, *record.ExternalSubscriptionID); err != nil {
		s.logger.Error("Failed to resume subscription at gateway",
			zap.String("business_id", record.BusinessID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to resume subscription: %w", err)
	}

	record.AutoRenew = true
	record.Status = model.SubscriptionStatusActive
	if err := s.recordRepo.Update(ctx, record); err != nil {
		return err
	}

	s.logger.Info("Subscription resumed",
		zap.String("business_id", record.BusinessID.String()))

	return nil
}

// ChangeTier swaps the price on the external subscription with pro-ration,
// then applies the tier change locally.
func (s *BillingService) ChangeTier(ctx context.Context, record *model.SubscriptionRecord, tier, cycle string) error {
	if record.ExternalSubscriptionID == nil {
		return domainErrors.ErrNoActiveSubscription
	}

	priceID, err := s.resolvePrice(ctx, tier, cycle)
	if err != nil {
		return err
	}

	if err := s.provider.UpdateSubscriptionPrice(ctx, *record.ExternalSubscriptionID, priceID); err != nil {
		s.logger.Error("Failed to update subscription price at gateway",
			zap.String("business_id", record.BusinessID.String()),
			zap.String("price_id", priceID),
			zap.Error(err))
		return fmt.Errorf("failed to update subscription price: %w", err)
	}

	plan, _ := s.plans.Plan(tier)
	return s.lifecycle.ChangeTier(ctx, record, model.Tier(tier), plan.Services)
}

// GetPortalURL returns the hosted self-service billing portal URL.
func (s *BillingService) GetPortalURL(ctx context.Context, businessID uuid.UUID) (string, error) {
	record, err := s.recordRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		return "", err
	}
	if record == nil || record.ExternalCustomerID == nil {
		return "", domainErrors.ErrNoBillingCustomer
	}

	url, err := s.provider.CreatePortalSession(ctx, *record.ExternalCustomerID, s.clientURL)
	if err != nil {
		s.logger.Error("Failed to create portal session",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return url, nil
}

// inferTier maps a processor price id back to a tier, checking configured
// tiers in fixed priority order. An unknown price id falls back to standard
// by design; the error-level log is the tripwire for a misconfigured
// catalog silently downgrading a higher-tier purchase.
func (s *BillingService) inferTier(priceID string) model.Tier {
	if tier, ok := s.plans.TierForPrice(priceID); ok {
		return model.Tier(tier)
	}

	s.logger.Error("Price id not in plan catalog, defaulting tier to standard",
		zap.String("price_id", priceID))
	return model.TierStandard
}

// resolvePrice returns the configured price id for (tier, cycle), creating
// a product/price at the processor when static configuration is missing.
func (s *BillingService) resolvePrice(ctx context.Context, tier, cycle string) (string, error) {
	if _, ok := s.plans.Plan(tier); !ok {
		return "", fmt.Errorf("%w: %s", domainErrors.ErrPriceNotConfigured, tier)
	}

	if priceID := s.plans.PriceID(tier, cycle); priceID != "" {
		return priceID, nil
	}

	amount := s.plans.AmountCents(tier, cycle)
	if amount <= 0 {
		return "", fmt.Errorf("%w: %s/%s", domainErrors.ErrPriceNotConfigured, tier, cycle)
	}

	s.logger.Warn("No price id configured, creating one at the processor",
		zap.String("tier", tier),
		zap.String("cycle", cycle))

	priceID, err := s.provider.EnsurePrice(ctx, tier, cycle, amount)
	if err != nil {
		return "", fmt.Errorf("failed to create price for %s/%s: %w", tier, cycle, err)
	}

	return priceID, nil
}

// findRecord resolves the record for a processor subscription, falling back
// to the customer id when the subscription id is not yet stored.
func (s *BillingService) findRecord(ctx context.Context, sub *provider.SubscriptionInfo) (*model.SubscriptionRecord, error) {
	record, err := s.recordRepo.GetByExternalSubscriptionID(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}
	if sub.CustomerID == "" {
		return nil, nil
	}
	return s.recordRepo.GetByExternalCustomerID(ctx, sub.CustomerID)
}
