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

type CheckoutHandler struct {
	logger  *zap.Logger
	billing *usecase.BillingService
}

func NewCheckoutHandler(logger *zap.Logger, billing *usecase.BillingService) *CheckoutHandler {
	return &CheckoutHandler{
		logger:  logger,
		billing: billing,
	}
}

type CreateCheckoutRequest struct {
	Tier  string `json:"tier" validate:"required,oneof=standard premium enterprise"`
	Cycle string `json:"cycle" validate:"omitempty,oneof=monthly annual"`
}

type CreateCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// CreateCheckout starts a hosted checkout for the business. No local
// subscription state changes until the payment webhook confirms.
func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid business id"})
	}

	var req CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Cycle == "" {
		req.Cycle = "monthly"
	}

	url, err := h.billing.CreateCheckoutSession(c.Request().Context(), businessID, req.Tier, req.Cycle)
	if err != nil {
		if errors.Is(err, domainErrors.ErrBusinessNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Business not found"})
		}
		h.logger.Error("Failed to create checkout session",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Payment processing failed, contact support",
		})
	}

	return c.JSON(http.StatusCreated, CreateCheckoutResponse{CheckoutURL: url})
}

// CheckoutSuccess reports the state of a finished checkout session. The
// webhook, not this handler, applies subscription state.
func (h *CheckoutHandler) CheckoutSuccess(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}

	session, err := h.billing.GetCheckoutSession(c.Request().Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to fetch checkout session",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Payment processing failed, contact support",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"session_id":     session.ID,
		"payment_status": session.PaymentStatus,
	})
}

// CheckoutCancel acknowledges an abandoned checkout with no state change.
func (h *CheckoutHandler) CheckoutCancel(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "canceled"})
}

// CreatePortalSession returns the hosted billing portal URL.
func (h *CheckoutHandler) CreatePortalSession(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid business id"})
	}

	url, err := h.billing.GetPortalURL(c.Request().Context(), businessID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNoBillingCustomer) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"error": "Business has no billing account",
				"code":  "NO_BILLING_CUSTOMER",
			})
		}
		h.logger.Error("Failed to create portal session",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Payment processing failed, contact support",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"url": url})
}
