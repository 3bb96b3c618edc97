package config

// BillingCycle names for plan price resolution.
const (
	CycleMonthly = "monthly"
	CycleAnnual  = "annual"
)

// TierPlan holds the static billing configuration of one paid tier.
type TierPlan struct {
	DisplayName    string   `yaml:"display_name"`
	MonthlyPriceID string   `yaml:"monthly_price_id"`
	AnnualPriceID  string   `yaml:"annual_price_id"`
	MonthlyCents   int64    `yaml:"monthly_cents"`
	AnnualCents    int64    `yaml:"annual_cents"`
	Services       []string `yaml:"services"`
	SortOrder      int      `yaml:"sort_order"`
}

// PlansConfig is the static tier catalog mapping tiers to processor price
// ids and enabled AI services.
type PlansConfig struct {
	Standard   TierPlan `yaml:"standard"`
	Premium    TierPlan `yaml:"premium"`
	Enterprise TierPlan `yaml:"enterprise"`
}

// tierInferenceOrder is the fixed priority used when mapping a price id
// back to a tier. Higher tiers win when price ids collide.
var tierInferenceOrder = []string{"enterprise", "premium", "standard"}

// Plan returns the configuration of a paid tier.
func (p *PlansConfig) Plan(tier string) (TierPlan, bool) {
	switch tier {
	case "standard":
		return p.Standard, true
	case "premium":
		return p.Premium, true
	case "enterprise":
		return p.Enterprise, true
	}
	return TierPlan{}, false
}

// PriceID resolves the processor price id for (tier, cycle). Empty when the
// tier or cycle has no configured price.
func (p *PlansConfig) PriceID(tier, cycle string) string {
	plan, ok := p.Plan(tier)
	if !ok {
		return ""
	}
	switch cycle {
	case CycleAnnual:
		return plan.AnnualPriceID
	default:
		return plan.MonthlyPriceID
	}
}

// AmountCents returns the configured price for (tier, cycle) in cents.
func (p *PlansConfig) AmountCents(tier, cycle string) int64 {
	plan, ok := p.Plan(tier)
	if !ok {
		return 0
	}
	if cycle == CycleAnnual {
		return plan.AnnualCents
	}
	return plan.MonthlyCents
}

// TierForPrice maps a processor price id back to a tier name, checking
// tiers in fixed priority order. The second return is false when no
// configured price matches; callers decide the fallback.
func (p *PlansConfig) TierForPrice(priceID string) (string, bool) {
	if priceID == "" {
		return "", false
	}
	for _, tier := range tierInferenceOrder {
		plan, _ := p.Plan(tier)
		if plan.MonthlyPriceID == priceID || plan.AnnualPriceID == priceID {
			return tier, true
		}
	}
	return "", false
}

// Tiers returns the paid tier names in catalog display order.
func (p *PlansConfig) Tiers() []string {
	return []string{"standard", "premium", "enterprise"}
}
