package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/price"
	"github.com/stripe/stripe-go/v79/product"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/daynewsmedia/alphasite-billing/internal/domain/provider"
)

// Provider implements provider.BillingProvider against Stripe.
type Provider struct {
	webhookSecret string
	logger        *zap.Logger
}

// NewProvider creates a Stripe provider. The secret key is process-global
// in the Stripe SDK.
func NewProvider(secretKey, webhookSecret string, logger *zap.Logger) *Provider {
	stripe.Key = secretKey
	return &Provider{
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// GetProviderName returns the provider name
func (p *Provider) GetProviderName() string {
	return "stripe"
}

func (p *Provider) CreateCustomer(_ context.Context, name, email string, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{
		Name: stripe.String(name),
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe customer create failed: %w", err)
	}

	return c.ID, nil
}

func (p *Provider) CreateCheckoutSession(_ context.Context, req *provider.CheckoutParams) (*provider.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}

	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	// The subscription inherits the metadata so subscription events can be
	// tied back to the business as well.
	params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
		Metadata: req.Metadata,
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session create failed: %w", err)
	}

	return sessionToProvider(s), nil
}

func (p *Provider) GetCheckoutSession(_ context.Context, sessionID string) (*provider.CheckoutSession, error) {
	s, err := checkoutsession.Get(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session fetch failed: %w", err)
	}

	return sessionToProvider(s), nil
}

func (p *Provider) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}

	ps, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe portal session create failed: %w", err)
	}

	return ps.URL, nil
}

func (p *Provider) GetSubscription(_ context.Context, subscriptionID string) (*provider.SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{}
	params.AddExpand("items.data.price")

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe subscription fetch failed: %w", err)
	}

	return subscriptionToProvider(sub), nil
}

func (p *Provider) UpdateSubscriptionPrice(_ context.Context, subscriptionID, priceID string) error {
	params := &stripe.SubscriptionParams{}
	params.AddExpand("items.data.price")

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return fmt.Errorf("stripe subscription fetch failed: %w", err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return fmt.Errorf("stripe subscription %s has no items", subscriptionID)
	}

	_, err = subscription.Update(subscriptionID, &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(sub.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	})
	if err != nil {
		return fmt.Errorf("stripe subscription price update failed: %w", err)
	}

	return nil
}

func (p *Provider) CancelSubscription(_ context.Context, subscriptionID string, atPeriodEnd bool) error {
	if atPeriodEnd {
		_, err := subscription.Update(subscriptionID, &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("stripe cancel at period end failed: %w", err)
		}
		return nil
	}

	_, err := subscription.Cancel(subscriptionID, nil)
	if err != nil {
		return fmt.Errorf("stripe immediate cancel failed: %w", err)
	}
	return nil
}

func (p *Provider) ResumeSubscription(_ context.Context, subscriptionID string) error {
	_, err := subscription.Update(subscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	})
	if err != nil {
		return fmt.Errorf("stripe resume failed: %w", err)
	}
	return nil
}

// EnsurePrice creates a product/price pair for a tier that has no price in
// static configuration.
func (p *Provider) EnsurePrice(_ context.Context, tier, cycle string, amountCents int64) (string, error) {
	prod, err := product.New(&stripe.ProductParams{
		Name: stripe.String("AlphaSite " + tier),
	})
	if err != nil {
		return "", fmt.Errorf("stripe product create failed: %w", err)
	}

	interval := "month"
	if cycle == "annual" {
		interval = "year"
	}

	pr, err := price.New(&stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(amountCents),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(interval),
		},
	})
	if err != nil {
		return "", fmt.Errorf("stripe price create failed: %w", err)
	}

	p.logger.Warn("Created price dynamically for unconfigured tier",
		zap.String("tier", tier),
		zap.String("cycle", cycle),
		zap.String("price_id", pr.ID))

	return pr.ID, nil
}

// VerifyWebhook checks the delivery signature and normalizes the event.
func (p *Provider) VerifyWebhook(payload []byte, signature string) (*provider.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		p.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &provider.WebhookEvent{
		ID:        event.ID,
		Type:      string(event.Type),
		CreatedAt: time.Unix(event.Created, 0),
		Raw:       event.Data.Raw,
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session: %w", err)
		}
		out.Type = provider.EventCheckoutCompleted
		out.Session = sessionToProvider(&session)
		out.Metadata = session.Metadata

	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription: %w", err)
		}
		out.Type = provider.EventSubscriptionUpdated
		out.Subscription = subscriptionToProvider(&sub)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription: %w", err)
		}
		out.Type = provider.EventSubscriptionDeleted
		out.Subscription = subscriptionToProvider(&sub)

	case stripe.EventTypeInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, fmt.Errorf("failed to parse invoice: %w", err)
		}
		out.Type = provider.EventInvoicePaymentFailed
		inv := &provider.InvoiceInfo{
			ID:        invoice.ID,
			AmountDue: invoice.AmountDue,
		}
		if invoice.Customer != nil {
			inv.CustomerID = invoice.Customer.ID
		}
		if invoice.Subscription != nil {
			inv.SubscriptionID = invoice.Subscription.ID
		}
		out.Invoice = inv
	}

	return out, nil
}

func sessionToProvider(s *stripe.CheckoutSession) *provider.CheckoutSession {
	out := &provider.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out
}

func subscriptionToProvider(sub *stripe.Subscription) *provider.SubscriptionInfo {
	out := &provider.SubscriptionInfo{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Metadata:          sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0)
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}
