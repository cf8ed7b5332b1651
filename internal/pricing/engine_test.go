package pricing

import (
	"reflect"
	"testing"

	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
)

func testConfig() Config {
	return Default()
}

func TestComputeBasePlusTaxOnly(t *testing.T) {
	// article at 50 cents/word, 3000 words, no add-ons, standard urgency:
	// total must be base plus tax and nothing else.
	got := Compute(testConfig(), domain.OrderConfiguration{
		ServiceType:    domain.ServiceArticle,
		QuantityMetric: 3000,
		UrgencyTier:    domain.UrgencyStandard,
	})

	if got.Base != 150000 {
		t.Fatalf("base = %v, want 150000", got.Base)
	}
	if got.AdditionalCost != 0 || got.UrgencySurcharge != 0 || got.VolumeDiscount != 0 {
		t.Fatalf("unexpected surcharges: %+v", got)
	}
	if got.Tax != 12000 {
		t.Fatalf("tax = %v, want 12000", got.Tax)
	}
	if got.TotalCents != 162000 {
		t.Fatalf("total = %d, want 162000", got.TotalCents)
	}
}

func TestComputeVolumeDiscountAtThreeAddons(t *testing.T) {
	cfg := testConfig()
	base := domain.OrderConfiguration{
		ServiceType:    domain.ServiceArticle,
		QuantityMetric: 3000,
		UrgencyTier:    domain.UrgencyStandard,
	}

	two := base
	two.AdditionalServices = []string{"seo-optimization", "competitor-analysis"}
	if got := Compute(cfg, two); got.VolumeDiscount != 0 {
		t.Fatalf("two add-ons: discount = %v, want 0", got.VolumeDiscount)
	}

	three := base
	three.AdditionalServices = []string{"seo-optimization", "competitor-analysis", "images"}
	got := Compute(cfg, three)
	if got.VolumeDiscount <= 0 {
		t.Fatalf("three add-ons: discount = %v, want > 0", got.VolumeDiscount)
	}
	// base 150000 + addons (22500 + 250000 + 150000) = subtotal 572500,
	// discount 57250, tax 41220, total 556470
	if got.TotalCents != 556470 {
		t.Fatalf("total = %d, want 556470", got.TotalCents)
	}
}

func TestComputeDeterministic(t *testing.T) {
	cfg := testConfig()
	oc := domain.OrderConfiguration{
		ServiceType:        domain.ServiceSellingText,
		QuantityMetric:     1234,
		AdditionalServices: []string{"images", "seo-optimization"},
		UrgencyTier:        domain.UrgencyUrgent,
	}
	a := Compute(cfg, oc)
	b := Compute(cfg, oc)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("compute not deterministic: %+v vs %+v", a, b)
	}
}

func TestComputeMonotonicInQuantity(t *testing.T) {
	cfg := testConfig()
	var prev int64 = -1
	for _, qty := range []int64{1, 10, 500, 3000, 100000} {
		got := Compute(cfg, domain.OrderConfiguration{
			ServiceType:        domain.ServiceWebsiteTexts,
			QuantityMetric:     qty,
			AdditionalServices: []string{"seo-optimization"},
			UrgencyTier:        domain.UrgencyExpress,
		})
		if got.TotalCents < prev {
			t.Fatalf("total decreased at qty=%d: %d < %d", qty, got.TotalCents, prev)
		}
		prev = got.TotalCents
	}
}

func TestComputeUrgencyNeverDecreasesTotal(t *testing.T) {
	cfg := testConfig()
	oc := domain.OrderConfiguration{
		ServiceType:    domain.ServiceArticle,
		QuantityMetric: 2000,
	}

	var prev int64 = -1
	for _, tier := range []domain.UrgencyTier{domain.UrgencyStandard, domain.UrgencyUrgent, domain.UrgencyExpress} {
		oc.UrgencyTier = tier
		got := Compute(cfg, oc)
		if got.TotalCents < prev {
			t.Fatalf("total decreased at tier=%s: %d < %d", tier, got.TotalCents, prev)
		}
		prev = got.TotalCents
	}
}

func TestComputeDegradedLookups(t *testing.T) {
	cfg := testConfig()

	t.Run("unknown service type falls back to default rate", func(t *testing.T) {
		got := Compute(cfg, domain.OrderConfiguration{
			ServiceType:    "landing-page", // not in the catalog
			QuantityMetric: 100,
			UrgencyTier:    domain.UrgencyStandard,
		})
		if got.Base != 100*cfg.DefaultRate {
			t.Fatalf("base = %v, want %v", got.Base, 100*cfg.DefaultRate)
		}
	})

	t.Run("unknown add-on ignored", func(t *testing.T) {
		with := Compute(cfg, domain.OrderConfiguration{
			ServiceType:        domain.ServiceArticle,
			QuantityMetric:     100,
			AdditionalServices: []string{"hologram-cover"},
			UrgencyTier:        domain.UrgencyStandard,
		})
		without := Compute(cfg, domain.OrderConfiguration{
			ServiceType:    domain.ServiceArticle,
			QuantityMetric: 100,
			UrgencyTier:    domain.UrgencyStandard,
		})
		if with.AdditionalCost != without.AdditionalCost {
			t.Fatalf("unknown add-on changed cost: %v vs %v", with.AdditionalCost, without.AdditionalCost)
		}
	})

	t.Run("unknown urgency treated as multiplier 1", func(t *testing.T) {
		got := Compute(cfg, domain.OrderConfiguration{
			ServiceType:    domain.ServiceArticle,
			QuantityMetric: 100,
			UrgencyTier:    "yesterday",
		})
		if got.UrgencySurcharge != 0 {
			t.Fatalf("surcharge = %v, want 0", got.UrgencySurcharge)
		}
	})
}

func TestComputeDuplicateAddonsCountedOnce(t *testing.T) {
	cfg := testConfig()
	oc := domain.OrderConfiguration{
		ServiceType:        domain.ServiceArticle,
		QuantityMetric:     1000,
		AdditionalServices: []string{"images", "images", "images"},
		UrgencyTier:        domain.UrgencyStandard,
	}
	got := Compute(cfg, oc)
	if got.AdditionalCost != 150000 {
		t.Fatalf("additional = %v, want one flat images charge (150000)", got.AdditionalCost)
	}
	// three entries but one distinct add-on: no volume discount
	if got.VolumeDiscount != 0 {
		t.Fatalf("discount = %v, want 0", got.VolumeDiscount)
	}
}

func TestComputeTotalNonNegative(t *testing.T) {
	cfg := testConfig()
	cfg.DiscountRate = 0.99
	got := Compute(cfg, domain.OrderConfiguration{
		ServiceType:        domain.ServiceSocialPosts,
		QuantityMetric:     1,
		AdditionalServices: []string{"seo-optimization", "proofreading", "publishing"},
		UrgencyTier:        domain.UrgencyStandard,
	})
	if got.TotalCents < 0 {
		t.Fatalf("total = %d, want >= 0", got.TotalCents)
	}
}
