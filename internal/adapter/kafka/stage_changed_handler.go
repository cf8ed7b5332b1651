package kafka

import (
	"context"
	"errors"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/repo"
	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/logging"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/tracker"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
)

// StageChangedHandler applies authoritative pipeline events: guarded store
// transition, cache refresh, then a push into the tracker hub so live
// watchers see the confirmed status immediately.
type StageChangedHandler struct {
	Repo  usecase.OrderRepo
	Cache usecase.StatusCache // optional
	Hub   *tracker.Hub        // optional
}

func NewStageChangedHandler(r usecase.OrderRepo, cache usecase.StatusCache, hub *tracker.Hub) *StageChangedHandler {
	return &StageChangedHandler{Repo: r, Cache: cache, Hub: hub}
}

func (h *StageChangedHandler) Handle(ctx context.Context, ev usecase.StageChangedMsg) error {
	to := domain.Status(ev.Status)

	rec, err := h.Repo.GetByID(ctx, ev.OrderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Pipeline event for an order we never stored; drop it.
			logging.FromCtx(ctx).Warn("stage event for unknown order", "order_id", ev.OrderID)
			return nil
		}
		return err
	}

	from := domain.Status(rec.Status)
	if domain.IsTerminal(from) {
		// Terminal is immutable; a late pipeline event cannot reopen it.
		return nil
	}
	if !domain.CanTransition(from, to) {
		logging.FromCtx(ctx).Warn("stage event ignored, illegal transition",
			"order_id", ev.OrderID, "from", string(from), "to", string(to))
		return nil
	}

	ok, err := h.Repo.UpdateStatusIf(ctx, ev.OrderID, string(from), string(to))
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race to another writer; its event will follow.
		return nil
	}
	if ev.Note != "" {
		_ = h.Repo.AppendNote(ctx, ev.OrderID, ev.Note)
	}

	if h.Cache != nil {
		_ = h.Cache.SetStatus(ctx, ev.OrderID, string(to))
	}
	if h.Hub != nil {
		h.Hub.ApplyAuthoritative(ev.OrderID, domain.ServiceType(rec.ServiceType), to)
	}
	return nil
}
