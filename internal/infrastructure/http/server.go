package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/daynewsmedia/alphasite-billing/internal/adapter/handler/http"
	"github.com/daynewsmedia/alphasite-billing/internal/config"
	"github.com/daynewsmedia/alphasite-billing/internal/domain/provider"
	"github.com/daynewsmedia/alphasite-billing/internal/infrastructure/database"
	"github.com/daynewsmedia/alphasite-billing/internal/middleware/auth"
	"github.com/daynewsmedia/alphasite-billing/internal/usecase"
)

// requestValidator adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

type Server struct {
	config    *config.Config
	logger    *zap.Logger
	echo      *echo.Echo
	repos     *database.Repositories
	provider  provider.BillingProvider
	lifecycle *usecase.LifecycleService
	billing   *usecase.BillingService
	claims    *usecase.ClaimService
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	repos *database.Repositories,
	billingProvider provider.BillingProvider,
	lifecycle *usecase.LifecycleService,
	billing *usecase.BillingService,
	claims *usecase.ClaimService,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	return &Server{
		config:    cfg,
		logger:    logger,
		echo:      e,
		repos:     repos,
		provider:  billingProvider,
		lifecycle: lifecycle,
		billing:   billing,
		claims:    claims,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "billing",
		})
	})

	// Initialize handlers
	plansHandler := handlers.NewPlansHandler(s.logger, s.config.Plans)
	checkoutHandler := handlers.NewCheckoutHandler(s.logger, s.billing)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.logger, s.lifecycle, s.billing)
	claimHandler := handlers.NewClaimHandler(s.logger, s.claims)
	webhookHandler := handlers.NewWebhookHandler(s.logger, s.provider, s.repos.Webhook, s.billing)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.Service.Auth.JWTSecret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/webhook",
			"/api/v1/plans",
			"/api/v1/claims/email/verify",
			"/api/v1/checkout/success",
			"/api/v1/checkout/cancel",
		},
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Public routes (no authentication required)
	v1.GET("/plans", plansHandler.ListPlans)
	v1.GET("/claims/email/verify", claimHandler.VerifyEmailToken)
	v1.GET("/checkout/success", checkoutHandler.CheckoutSuccess)
	v1.GET("/checkout/cancel", checkoutHandler.CheckoutCancel)

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	businesses := protected.Group("/businesses/:id")
	businesses.GET("/subscription", subscriptionHandler.GetSubscription)
	businesses.DELETE("/subscription", subscriptionHandler.CancelSubscription)
	businesses.POST("/subscription/resume", subscriptionHandler.ResumeSubscription)
	businesses.PUT("/subscription/tier", subscriptionHandler.ChangeTier)
	businesses.POST("/checkout", checkoutHandler.CreateCheckout)
	businesses.POST("/portal", checkoutHandler.CreatePortalSession)
	businesses.POST("/claims/phone", claimHandler.RequestPhoneCode)
	businesses.POST("/claims/phone/verify", claimHandler.VerifyPhoneCode)
	businesses.POST("/claims/email", claimHandler.RequestEmailToken)

	// Webhook route (outside API versioning)
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)
}
