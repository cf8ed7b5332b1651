package usecase

import (
	"context"
	"time"
)

// Persistence shape (kept out of domain).
type OrderRecord struct {
	ID            string
	CustomerEmail string
	CustomerPhone string
	ServiceType   string
	Quantity      int64
	AddonsJSON    string
	Urgency       string
	Status        string
	PriceJSON     string
	TotalCents    int64
	Currency      string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderRepo interface {
	Create(ctx context.Context, o *OrderRecord) error
	GetByID(ctx context.Context, id string) (*OrderRecord, error)
	FindByEmail(ctx context.Context, email string) ([]*OrderRecord, error)
	FindByPhone(ctx context.Context, phone string) ([]*OrderRecord, error)
	FindByIDLike(ctx context.Context, fragment string) ([]*OrderRecord, error)
	UpdateStatusIf(ctx context.Context, id, fromStatus, toStatus string) (bool, error)
	UpdateStatus(ctx context.Context, id, toStatus string) error
	AppendNote(ctx context.Context, id, note string) error
}

// OutboxEntry is one undelivered notification event.
type OutboxEntry struct {
	ID      int64
	Channel string
	Payload []byte
	Retries int
}

// OutboxRepo is the durable staging table for outbound events. Entries are
// written alongside the order row and drained by a relay; a broker outage
// delays delivery instead of losing it.
type OutboxRepo interface {
	Enqueue(ctx context.Context, channel string, payload []byte) error
	FetchPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	MarkSent(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, id int64, delay time.Duration) error
}

type StatusCache interface {
	SetStatus(ctx context.Context, orderID, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// NotificationQueue publishes outbound notification events. Delivery is
// fire-and-forget; a failed publish never fails the order flow.
type NotificationQueue interface {
	PublishCreated(ctx context.Context, msg CreatedMsg) error
	PublishStatusChanged(ctx context.Context, msg StatusChangedMsg) error
}

// AnalyticsSink records structured product events. Implementations must not
// block the caller or surface errors.
type AnalyticsSink interface {
	Record(ctx context.Context, event string, fields map[string]any)
}
