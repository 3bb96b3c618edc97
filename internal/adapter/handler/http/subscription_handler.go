package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/daynewsmedia/alphasite-billing/internal/domain/errors"
	"github.com/daynewsmedia/alphasite-billing/internal/usecase"
)

type SubscriptionHandler struct {
	logger    *zap.Logger
	lifecycle *usecase.LifecycleService
	billing   *usecase.BillingService
}

func NewSubscriptionHandler(logger *zap.Logger, lifecycle *usecase.LifecycleService, billing *usecase.BillingService) *SubscriptionHandler {
	return &SubscriptionHandler{
		logger:    logger,
		lifecycle: lifecycle,
		billing:   billing,
	}
}

// GetSubscription returns the record summary and the derived display
// state. Display state is recomputed on every call; a missing record reads
// as basic without creating one.
func (h *SubscriptionHandler) GetSubscription(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid business id"})
	}

	ctx := c.Request().Context()

	record, err := h.lifecycle.GetRecord(ctx, businessID)
	if err != nil {
		h.logger.Error("Failed to load subscription record",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load subscription"})
	}

	displayState, err := h.lifecycle.GetDisplayState(ctx, businessID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to derive display state"})
	}

	resp := echo.Map{
		"business_id":   businessID,
		"display_state": displayState,
	}
	if record != nil {
		resp["tier"] = record.Tier
		resp["status"] = record.Status
		resp["auto_renew"] = record.AutoRenew
		resp["ai_services_enabled"] = record.AIServicesEnabled
		resp["trial_days_remaining"] = h.lifecycle.GetTrialDaysRemaining(record)
		resp["trial_expires_at"] = record.TrialExpiresAt
		resp["subscription_expires_at"] = record.SubscriptionExpiresAt
	}

	return c.JSON(http.StatusOK, resp)
}

// CancelSubscription cancels at the gateway. With ?immediate=true the
// downgrade happens synchronously, otherwise at period end.
func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid business id"})
	}

	ctx := c.Request().Context()
	record, err := h.lifecycle.GetRecord(ctx, businessID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load subscription"})
	}
	if record == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No subscription for business"})
	}

	immediate := c.QueryParam("immediate") == "true"
	canceled := h.billing.CancelSubscription(ctx, record, immediate)
	if !canceled {
		return c.JSON(http.StatusBadGateway, echo.Map{
			"canceled": false,
			"error":    "Payment processing failed, contact support",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"canceled": true, "immediate": immediate})
}

// ResumeSubscription clears an at-period-end cancellation.
func (h *SubscriptionHandler) ResumeSubscription(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid business id"})
	}

	ctx := c.Request().Context()
	record, err := h.lifecycle.GetRecord(ctx, businessID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load subscription"})
	}
	if record == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No subscription for business"})
	}

	if err := h.billing.ResumeSubscription(ctx, record); err != nil {
		if errors.Is(err, domainErrors.ErrNoActiveSubscription) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "No active subscription to resume",
				"code":  "NO_ACTIVE_SUBSCRIPTION",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Payment processing failed, contact support",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"resumed": true})
}

type ChangeTierRequest struct {
	Tier  string `json:"tier" validate:"required,oneof=standard premium enterprise"`
	Cycle string `json:"cycle" validate:"omitempty,oneof=monthly annual"`
}

// ChangeTier swaps the plan on an active subscription with pro-ration.
func (h *SubscriptionHandler) ChangeTier(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid business id"})
	}

	var req ChangeTierRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Cycle == "" {
		req.Cycle = "monthly"
	}

	ctx := c.Request().Context()
	record, err := h.lifecycle.GetRecord(ctx, businessID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load subscription"})
	}
	if record == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No subscription for business"})
	}

	if err := h.billing.ChangeTier(ctx, record, req.Tier, req.Cycle); err != nil {
		if errors.Is(err, domainErrors.ErrNoActiveSubscription) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "No active subscription to change",
				"code":  "NO_ACTIVE_SUBSCRIPTION",
			})
		}
		h.logger.Error("Failed to change tier",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Payment processing failed, contact support",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"tier": req.Tier})
}
