package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
)

// Broker is the publish leg the relay drains into.
type Broker interface {
	Publish(ctx context.Context, key string, body []byte) error
}

// OutboxRelay drains pending outbox entries into the broker. Failed publishes
// are rescheduled with a delay, so a broker outage stalls delivery rather
// than dropping events.
type OutboxRelay struct {
	Out        usecase.OutboxRepo
	Broker     Broker
	Interval   time.Duration
	BatchSize  int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

func NewOutboxRelay(out usecase.OutboxRepo, broker Broker, log *slog.Logger) *OutboxRelay {
	return &OutboxRelay{
		Out:        out,
		Broker:     broker,
		Interval:   5 * time.Second,
		BatchSize:  100,
		RetryDelay: 30 * time.Second,
		Logger:     log,
	}
}

// Run blocks until ctx is cancelled, draining one batch per tick.
func (r *OutboxRelay) Run(ctx context.Context) {
	t := time.NewTicker(r.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drain(ctx)
		}
	}
}

func (r *OutboxRelay) drain(ctx context.Context) {
	entries, err := r.Out.FetchPending(ctx, r.BatchSize)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Error("outbox fetch failed", "err", err)
		}
		return
	}
	for _, e := range entries {
		if err := r.Broker.Publish(ctx, e.Channel, e.Payload); err != nil {
			if r.Logger != nil {
				r.Logger.Warn("outbox publish failed, rescheduling",
					"id", e.ID, "channel", e.Channel, "retries", e.Retries, "err", err)
			}
			_ = r.Out.Reschedule(ctx, e.ID, r.RetryDelay)
			continue
		}
		_ = r.Out.MarkSent(ctx, e.ID)
	}
}
