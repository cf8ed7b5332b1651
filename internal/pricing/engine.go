package pricing

import (
	"math"

	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
)

// AddonRule prices one additional service: a flat amount in cents, a share of
// the base price, or both.
type AddonRule struct {
	FlatCents     float64
	PercentOfBase float64
}

// Config is the full pricing catalog, injected into Compute. There is no
// package-level rate table; callers own the catalog (typically loaded from
// the service config).
type Config struct {
	RatesByServiceType map[domain.ServiceType]float64 // cents per unit
	DefaultRate        float64
	AddonCatalog       map[string]AddonRule
	UrgencyMultipliers map[domain.UrgencyTier]float64
	DiscountThreshold  int
	DiscountRate       float64
	TaxRate            float64
}

// Default returns the catalog shipped with the marketplace.
func Default() Config {
	return Config{
		RatesByServiceType: map[domain.ServiceType]float64{
			domain.ServiceArticle:      50,
			domain.ServiceSellingText:  70,
			domain.ServiceSocialPosts:  30,
			domain.ServiceWebsiteTexts: 60,
			domain.ServiceOther:        40,
		},
		DefaultRate: 40,
		AddonCatalog: map[string]AddonRule{
			"seo-optimization":    {PercentOfBase: 0.15},
			"competitor-analysis": {FlatCents: 250000},
			"images":              {FlatCents: 150000},
			"proofreading":        {PercentOfBase: 0.10},
			"publishing":          {FlatCents: 100000},
		},
		UrgencyMultipliers: map[domain.UrgencyTier]float64{
			domain.UrgencyStandard: 1.0,
			domain.UrgencyUrgent:   1.5,
			domain.UrgencyExpress:  2.0,
		},
		DiscountThreshold: 3,
		DiscountRate:      0.10,
		TaxRate:           0.08,
	}
}

// Compute derives the price breakdown for a validated configuration. It is
// pure and total: unknown service types fall back to the default rate,
// unknown add-on ids are skipped, and a missing urgency multiplier is
// treated as 1. Callers reject invalid quantities before invoking.
func Compute(cfg Config, oc domain.OrderConfiguration) domain.PriceBreakdown {
	rate, ok := cfg.RatesByServiceType[oc.ServiceType]
	if !ok {
		rate = cfg.DefaultRate
	}
	base := float64(oc.QuantityMetric) * rate

	var additional float64
	selected := make(map[string]struct{}, len(oc.AdditionalServices))
	for _, id := range oc.AdditionalServices {
		if _, dup := selected[id]; dup {
			continue
		}
		selected[id] = struct{}{}
		rule, ok := cfg.AddonCatalog[id]
		if !ok {
			continue
		}
		additional += rule.FlatCents + base*rule.PercentOfBase
	}

	mult := cfg.UrgencyMultipliers[oc.UrgencyTier]
	if mult < 1 {
		mult = 1
	}
	urgency := base * (mult - 1)

	subtotal := base + additional + urgency

	var discount float64
	if cfg.DiscountThreshold > 0 && len(selected) >= cfg.DiscountThreshold {
		discount = subtotal * cfg.DiscountRate
	}

	tax := (subtotal - discount) * cfg.TaxRate

	return domain.PriceBreakdown{
		Base:             base,
		AdditionalCost:   additional,
		UrgencySurcharge: urgency,
		Subtotal:         subtotal,
		VolumeDiscount:   discount,
		Tax:              tax,
		TotalCents:       int64(math.Round(subtotal - discount + tax)),
	}
}
