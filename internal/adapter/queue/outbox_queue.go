package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
)

// OutboxQueue implements usecase.NotificationQueue by staging events in the
// outbox table instead of talking to the broker directly. The order row and
// the event become durable together; the relay handles actual delivery.
type OutboxQueue struct {
	out usecase.OutboxRepo
}

func NewOutboxQueue(out usecase.OutboxRepo) *OutboxQueue {
	return &OutboxQueue{out: out}
}

func (q *OutboxQueue) PublishCreated(ctx context.Context, msg usecase.CreatedMsg) error {
	return q.enqueue(ctx, createdKey, msg)
}

func (q *OutboxQueue) PublishStatusChanged(ctx context.Context, msg usecase.StatusChangedMsg) error {
	return q.enqueue(ctx, statusKey, msg)
}

func (q *OutboxQueue) enqueue(ctx context.Context, channel string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return q.out.Enqueue(ctx, channel, body)
}

var _ usecase.NotificationQueue = (*OutboxQueue)(nil)
