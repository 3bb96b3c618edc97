package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/daynewsmedia/alphasite-billing/internal/adapter/repository"
	domainErrors "github.com/daynewsmedia/alphasite-billing/internal/domain/errors"
	"github.com/daynewsmedia/alphasite-billing/internal/domain/provider"
	"github.com/daynewsmedia/alphasite-billing/internal/usecase"
)

// WebhookHandler receives processor webhook deliveries. Signature
// verification happens before any dispatch; every verified event is
// persisted so redelivery of a completed event is acknowledged without
// reprocessing.
type WebhookHandler struct {
	logger      *zap.Logger
	provider    provider.BillingProvider
	webhookRepo repository.WebhookRepository
	billing     *usecase.BillingService
}

func NewWebhookHandler(
	logger *zap.Logger,
	billingProvider provider.BillingProvider,
	webhookRepo repository.WebhookRepository,
	billing *usecase.BillingService,
) *WebhookHandler {
	return &WebhookHandler{
		logger:      logger,
		provider:    billingProvider,
		webhookRepo: webhookRepo,
		billing:     billing,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	event, err := h.provider.VerifyWebhook(body, sig)
	if err != nil {
		h.logger.Error("Webhook signature verification failed",
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Webhook signature verification failed",
		})
	}

	h.logger.Info("Webhook event received",
		zap.String("type", event.Type),
		zap.String("id", event.ID),
		zap.Time("created", event.CreatedAt))

	ctx := c.Request().Context()

	if err := h.webhookRepo.SaveEvent(ctx, event.ID, event.Type, event.CreatedAt, json.RawMessage(body)); err != nil {
		if errors.Is(err, domainErrors.ErrDuplicateEvent) {
			h.logger.Info("Duplicate webhook delivery acknowledged",
				zap.String("event_id", event.ID))
			return c.JSON(http.StatusOK, echo.Map{"received": true, "duplicate": true})
		}
		h.logger.Error("Failed to persist webhook event",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to persist event"})
	}

	if err := h.billing.HandleWebhookEvent(ctx, event); err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrStaleEvent):
			// Intentionally skipped; the newer state already applied.
			if markErr := h.webhookRepo.MarkProcessed(ctx, event.ID); markErr != nil {
				h.logger.Error("Failed to mark stale event processed",
					zap.String("event_id", event.ID),
					zap.Error(markErr))
			}
			return c.JSON(http.StatusOK, echo.Map{"received": true, "stale": true})

		case errors.Is(err, domainErrors.ErrMissingBusinessMetadata):
			// Unrecoverable; redelivery cannot restore the association.
			if markErr := h.webhookRepo.MarkFailed(ctx, event.ID, err); markErr != nil {
				h.logger.Error("Failed to mark dropped event failed",
					zap.String("event_id", event.ID),
					zap.Error(markErr))
			}
			return c.JSON(http.StatusOK, echo.Map{"received": true, "dropped": true})

		default:
			if markErr := h.webhookRepo.MarkFailed(ctx, event.ID, err); markErr != nil {
				h.logger.Error("Failed to mark event failed",
					zap.String("event_id", event.ID),
					zap.Error(markErr))
			}
			h.logger.Error("Webhook event processing failed",
				zap.String("event_id", event.ID),
				zap.Error(err))
			// 5xx so the processor redelivers transient failures.
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Event processing failed"})
		}
	}

	if err := h.webhookRepo.MarkProcessed(ctx, event.ID); err != nil {
		h.logger.Error("Failed to mark event processed",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
