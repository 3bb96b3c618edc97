package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/daynewsmedia/alphasite-billing/internal/config"
)

type PlansHandler struct {
	logger *zap.Logger
	plans  config.PlansConfig
}

func NewPlansHandler(logger *zap.Logger, plans config.PlansConfig) *PlansHandler {
	return &PlansHandler{
		logger: logger,
		plans:  plans,
	}
}

type PlanResponse struct {
	Tier         string   `json:"tier"`
	DisplayName  string   `json:"display_name"`
	MonthlyPrice string   `json:"monthly_price"`
	AnnualPrice  string   `json:"annual_price"`
	Services     []string `json:"services"`
	SortOrder    int      `json:"sort_order"`
}

// ListPlans returns the static paid tier catalog. Prices come from
// configuration, not the processor, so the endpoint works without a
// billing round trip.
func (h *PlansHandler) ListPlans(c echo.Context) error {
	out := make([]PlanResponse, 0, 3)
	for _, tier := range h.plans.Tiers() {
		plan, ok := h.plans.Plan(tier)
		if !ok {
			continue
		}
		out = append(out, PlanResponse{
			Tier:         tier,
			DisplayName:  plan.DisplayName,
			MonthlyPrice: formatCents(plan.MonthlyCents),
			AnnualPrice:  formatCents(plan.AnnualCents),
			Services:     plan.Services,
			SortOrder:    plan.SortOrder,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"plans": out})
}

// formatCents renders a cent amount as a dollar string, e.g. 4900 -> "49.00".
func formatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
