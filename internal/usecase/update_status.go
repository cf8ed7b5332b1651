package usecase

import (
	"context"
	"errors"

	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/logging"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrTerminalOrder = errors.New("order is terminal")
	ErrBadTransition = errors.New("illegal status transition")
	// ErrConflict means another writer moved the order between our read and
	// the guarded update.
	ErrConflict = errors.New("concurrent status change")
)

type UpdateStatusInput struct {
	OrderID string
	Status  domain.Status
	Note    string
}

type UpdateStatus struct {
	repo      OrderRepo
	cache     StatusCache
	notify    NotificationQueue
	analytics AnalyticsSink
}

func NewUpdateStatus(repo OrderRepo, cache StatusCache, notify NotificationQueue, analytics AnalyticsSink) *UpdateStatus {
	return &UpdateStatus{repo: repo, cache: cache, notify: notify, analytics: analytics}
}

// Execute applies an administrative or pipeline-driven transition. Terminal
// records only accept notes.
func (uc *UpdateStatus) Execute(ctx context.Context, in UpdateStatusInput) error {
	rec, err := uc.repo.GetByID(ctx, in.OrderID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrOrderNotFound
	}

	from := domain.Status(rec.Status)
	if domain.IsTerminal(from) {
		if in.Note != "" && in.Status == from {
			return uc.repo.AppendNote(ctx, in.OrderID, in.Note)
		}
		return ErrTerminalOrder
	}
	if !domain.CanTransition(from, in.Status) {
		return ErrBadTransition
	}

	ok, err := uc.repo.UpdateStatusIf(ctx, in.OrderID, string(from), string(in.Status))
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if in.Note != "" {
		_ = uc.repo.AppendNote(ctx, in.OrderID, in.Note)
	}

	if uc.cache != nil {
		_ = uc.cache.SetStatus(ctx, in.OrderID, string(in.Status))
	}
	if err := uc.notify.PublishStatusChanged(ctx, StatusChangedMsg{
		OrderID:       in.OrderID,
		CustomerEmail: rec.CustomerEmail,
		OldStatus:     string(from),
		NewStatus:     string(in.Status),
	}); err != nil {
		logging.FromCtx(ctx).Warn("publish order.status_changed failed", "order_id", in.OrderID, "err", err)
	}
	uc.analytics.Record(ctx, "status_changed", map[string]any{
		"order_id": in.OrderID,
		"from":     string(from),
		"to":       string(in.Status),
	})
	return nil
}
