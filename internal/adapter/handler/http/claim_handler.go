package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/daynewsmedia/alphasite-billing/internal/domain/errors"
	"github.com/daynewsmedia/alphasite-billing/internal/middleware/auth"
	"github.com/daynewsmedia/alphasite-billing/internal/usecase"
)

type ClaimHandler struct {
	logger *zap.Logger
	claims *usecase.ClaimService
}

func NewClaimHandler(logger *zap.Logger, claims *usecase.ClaimService) *ClaimHandler {
	return &ClaimHandler{
		logger: logger,
		claims: claims,
	}
}

// RequestPhoneCode sends a one-time code to the phone number on record.
func (h *ClaimHandler) RequestPhoneCode(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid business id"})
	}

	if err := h.claims.RequestPhoneCode(c.Request().Context(), businessID); err != nil {
		if errors.Is(err, domainErrors.ErrBusinessNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Business not found"})
		}
		h.logger.Error("Failed to send phone verification code",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send verification code"})
	}

	return c.JSON(http.StatusOK, echo.Map{"sent": true})
}

type VerifyPhoneCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// VerifyPhoneCode checks the submitted code and claims the business for
// the authenticated user.
func (h *ClaimHandler) VerifyPhoneCode(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid business id"})
	}

	user, ok := auth.GetAuthUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	var req VerifyPhoneCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	if err := h.claims.VerifyPhoneCode(c.Request().Context(), businessID, req.Code, user.UserID); err != nil {
		if errors.Is(err, domainErrors.ErrInvalidVerificationCode) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error": "Invalid or expired verification code",
				"code":  "INVALID_VERIFICATION_CODE",
			})
		}
		if errors.Is(err, domainErrors.ErrBusinessNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Business not found"})
		}
		h.logger.Error("Failed to verify phone code",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to verify code"})
	}

	return c.JSON(http.StatusOK, echo.Map{"claimed": true})
}

// RequestEmailToken mails a single-use claim link to the address on
// record. The requesting user is bound to the token so visiting the link
// attributes the claim.
func (h *ClaimHandler) RequestEmailToken(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid business id"})
	}

	user, ok := auth.GetAuthUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
	}

	if err := h.claims.RequestEmailToken(c.Request().Context(), businessID, user.UserID); err != nil {
		if errors.Is(err, domainErrors.ErrBusinessNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Business not found"})
		}
		h.logger.Error("Failed to send claim email",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to send claim email"})
	}

	return c.JSON(http.StatusOK, echo.Map{"sent": true})
}

// VerifyEmailToken completes an email claim from the mailed link. The
// route is public; the token itself carries the requesting user.
func (h *ClaimHandler) VerifyEmailToken(c echo.Context) error {
	businessID, err := uuid.Parse(c.QueryParam("business_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "business_id is required"})
	}

	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token is required"})
	}

	if err := h.claims.VerifyEmailToken(c.Request().Context(), businessID, token); err != nil {
		if errors.Is(err, domainErrors.ErrInvalidVerificationCode) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{
				"error": "Invalid or expired claim token",
				"code":  "INVALID_VERIFICATION_CODE",
			})
		}
		if errors.Is(err, domainErrors.ErrBusinessNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Business not found"})
		}
		h.logger.Error("Failed to verify claim token",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to verify claim token"})
	}

	return c.JSON(http.StatusOK, echo.Map{"claimed": true})
}
