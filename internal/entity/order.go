package domain

import (
	"errors"
	"math"
)

type ServiceType string

const (
	ServiceArticle      ServiceType = "article"
	ServiceSellingText  ServiceType = "selling-text"
	ServiceSocialPosts  ServiceType = "social-posts"
	ServiceWebsiteTexts ServiceType = "website-texts"
	ServiceOther        ServiceType = "other"
)

type UrgencyTier string

const (
	UrgencyStandard UrgencyTier = "standard"
	UrgencyUrgent   UrgencyTier = "urgent"
	UrgencyExpress  UrgencyTier = "express"
)

type Status string

const (
	StatusPending      Status = "PENDING"
	StatusAnalysis     Status = "ANALYSIS"
	StatusResearch     Status = "RESEARCH"
	StatusDrafting     Status = "DRAFTING"
	StatusQualityCheck Status = "QUALITY_CHECK"
	StatusReview       Status = "REVIEW"
	StatusCompleted    Status = "COMPLETED"
	StatusCancelled    Status = "CANCELLED"
	StatusFailed       Status = "FAILED"
)

// Sequence is the forward fulfillment walk. Cancelled/Failed sit outside it
// and absorb from any non-terminal status.
var Sequence = []Status{
	StatusPending,
	StatusAnalysis,
	StatusResearch,
	StatusDrafting,
	StatusQualityCheck,
	StatusReview,
	StatusCompleted,
}

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidUrgency  = errors.New("unknown urgency tier")
	ErrInvalidService  = errors.New("missing service type")
)

func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// ordinal returns the position of s in Sequence, or -1 for absorbing states.
func ordinal(s Status) int {
	for i, st := range Sequence {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the status following s in the fulfillment sequence.
// The second return is false for terminal or absorbing statuses.
func Next(s Status) (Status, bool) {
	i := ordinal(s)
	if i < 0 || i == len(Sequence)-1 {
		return s, false
	}
	return Sequence[i+1], true
}

// CanTransition reports whether from -> to is a legal move: strictly forward
// along the sequence, or a dive into cancelled/failed from any non-terminal
// status. Terminal records never move.
func CanTransition(from, to Status) bool {
	if IsTerminal(from) {
		return false
	}
	if to == StatusCancelled || to == StatusFailed {
		return true
	}
	fi, ti := ordinal(from), ordinal(to)
	return fi >= 0 && ti > fi
}

// OrderConfiguration is everything the customer selects before submission.
type OrderConfiguration struct {
	ServiceType        ServiceType
	QuantityMetric     int64 // word or character count
	AdditionalServices []string
	UrgencyTier        UrgencyTier
}

// Validate enforces pre-engine invariants. Unknown add-on identifiers are
// deliberately tolerated; the catalog is forward-compatible.
func (c OrderConfiguration) Validate() error {
	if c.ServiceType == "" {
		return ErrInvalidService
	}
	if c.QuantityMetric <= 0 {
		return ErrInvalidQuantity
	}
	switch c.UrgencyTier {
	case UrgencyStandard, UrgencyUrgent, UrgencyExpress:
	default:
		return ErrInvalidUrgency
	}
	return nil
}

// PriceBreakdown itemizes the computed price. The parts are kept in exact
// arithmetic; only TotalCents is rounded, once, from the exact sum.
type PriceBreakdown struct {
	Base             float64 `json:"base"`
	AdditionalCost   float64 `json:"additionalCost"`
	UrgencySurcharge float64 `json:"urgencySurcharge"`
	Subtotal         float64 `json:"subtotal"`
	VolumeDiscount   float64 `json:"volumeDiscount"`
	Tax              float64 `json:"tax"`
	TotalCents       int64   `json:"totalCents"`
}

// Rounded returns the parts rounded to whole cents for display.
func (p PriceBreakdown) Rounded() map[string]int64 {
	return map[string]int64{
		"base":             int64(math.Round(p.Base)),
		"additionalCost":   int64(math.Round(p.AdditionalCost)),
		"urgencySurcharge": int64(math.Round(p.UrgencySurcharge)),
		"subtotal":         int64(math.Round(p.Subtotal)),
		"volumeDiscount":   int64(math.Round(p.VolumeDiscount)),
		"tax":              int64(math.Round(p.Tax)),
		"total":            p.TotalCents,
	}
}
