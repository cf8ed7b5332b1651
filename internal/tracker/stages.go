package tracker

import (
	"math"

	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
)

type StageState string

const (
	StagePending    StageState = "pending"
	StageInProgress StageState = "in_progress"
	StageCompleted  StageState = "completed"
)

// Stage is one step of the fulfillment board shown to the customer.
type Stage struct {
	Name  string     `json:"name"`
	State StageState `json:"state"`
}

// intermediate fulfillment statuses, in walk order (between PENDING and COMPLETED).
var intermediates = domain.Sequence[1 : len(domain.Sequence)-1]

var defaultLabels = map[domain.Status]string{
	domain.StatusAnalysis:     "analysis",
	domain.StatusResearch:     "research",
	domain.StatusDrafting:     "drafting",
	domain.StatusQualityCheck: "quality_check",
	domain.StatusReview:       "review",
}

// labelOverrides customizes stage wording per product line. The walk itself
// is the same for every service type.
var labelOverrides = map[domain.ServiceType]map[domain.Status]string{
	domain.ServiceArticle: {
		domain.StatusAnalysis:     "keyword_research",
		domain.StatusResearch:     "competitor_analysis",
		domain.StatusDrafting:     "writing",
		domain.StatusQualityCheck: "uniqueness_check",
		domain.StatusReview:       "proofreading",
	},
	domain.ServiceSellingText: {
		domain.StatusAnalysis: "offer_analysis",
		domain.StatusDrafting: "copywriting",
	},
}

func label(svc domain.ServiceType, st domain.Status) string {
	if over, ok := labelOverrides[svc]; ok {
		if l, ok := over[st]; ok {
			return l
		}
	}
	return defaultLabels[st]
}

// StagesFor projects an order status onto the stage board: stages behind the
// current status are completed, the current one is in progress, the rest are
// pending. Cancelled and failed orders show no stage in progress; completed
// history is not tracked for them, so every stage resets to pending.
func StagesFor(svc domain.ServiceType, status domain.Status) []Stage {
	out := make([]Stage, 0, len(intermediates))
	for _, st := range intermediates {
		s := Stage{Name: label(svc, st)}
		switch {
		case status == domain.StatusCompleted:
			s.State = StageCompleted
		case status == domain.StatusCancelled || status == domain.StatusFailed:
			s.State = StagePending
		case st == status:
			s.State = StageInProgress
		case before(st, status):
			s.State = StageCompleted
		default:
			s.State = StagePending
		}
		out = append(out, s)
	}
	return out
}

func before(a, b domain.Status) bool {
	ai, bi := -1, -1
	for i, st := range domain.Sequence {
		if st == a {
			ai = i
		}
		if st == b {
			bi = i
		}
	}
	return ai >= 0 && bi >= 0 && ai < bi
}

// Progress weights an in-progress stage as half done, for display only.
func Progress(stages []Stage) int {
	if len(stages) == 0 {
		return 0
	}
	var done, active float64
	for _, s := range stages {
		switch s.State {
		case StageCompleted:
			done++
		case StageInProgress:
			active++
		}
	}
	return int(math.Round(100 * (done + 0.5*active) / float64(len(stages))))
}
