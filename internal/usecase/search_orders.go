package usecase

import (
	"context"
	"errors"
	"strings"
)

// ErrNoMatches means the query ran fine and matched nothing. It is never
// conflated with a transport failure.
var ErrNoMatches = errors.New("no matching orders")

type QueryKind string

const (
	QueryByEmail QueryKind = "email"
	QueryByPhone QueryKind = "phone"
	QueryByID    QueryKind = "id"
)

// Classify routes a free-text query: an email if it contains '@', a phone
// number if it starts with '+', otherwise an opaque order identifier.
func Classify(query string) QueryKind {
	if strings.Contains(query, "@") {
		return QueryByEmail
	}
	if strings.HasPrefix(query, "+") {
		return QueryByPhone
	}
	return QueryByID
}

type SearchOrders struct {
	repo      OrderRepo
	analytics AnalyticsSink
}

func NewSearchOrders(repo OrderRepo, analytics AnalyticsSink) *SearchOrders {
	return &SearchOrders{repo: repo, analytics: analytics}
}

func (uc *SearchOrders) Execute(ctx context.Context, query string) ([]*OrderRecord, error) {
	query = strings.TrimSpace(query)
	kind := Classify(query)
	uc.analytics.Record(ctx, "search_performed", map[string]any{"kind": string(kind)})

	var (
		recs []*OrderRecord
		err  error
	)
	switch kind {
	case QueryByEmail:
		recs, err = uc.repo.FindByEmail(ctx, query)
	case QueryByPhone:
		recs, err = uc.repo.FindByPhone(ctx, query)
	default:
		recs, err = uc.repo.FindByIDLike(ctx, query)
	}
	if err != nil {
		uc.analytics.Record(ctx, "search_failed", map[string]any{"kind": string(kind)})
		return nil, err
	}
	if len(recs) == 0 {
		uc.analytics.Record(ctx, "search_failed", map[string]any{"kind": string(kind), "reason": "no_matches"})
		return nil, ErrNoMatches
	}
	uc.analytics.Record(ctx, "search_succeeded", map[string]any{"kind": string(kind), "hits": len(recs)})
	return recs, nil
}
