package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
)

type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

func (r *MySQLOutboxRepo) Enqueue(ctx context.Context, channel string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO outbox (channel,payload,status,retry_count,next_attempt_at,created_at)
VALUES (?, ?, 'PENDING', 0, NOW(), NOW())
`, channel, payload)
	return err
}

func (r *MySQLOutboxRepo) FetchPending(ctx context.Context, limit int) ([]*usecase.OutboxEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, channel, payload, retry_count
FROM outbox
WHERE status = 'PENDING' AND next_attempt_at <= NOW()
ORDER BY id
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*usecase.OutboxEntry
	for rows.Next() {
		e := &usecase.OutboxEntry{}
		if err := rows.Scan(&e.ID, &e.Channel, &e.Payload, &e.Retries); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET status = 'SENT' WHERE id = ?`, id)
	return err
}

func (r *MySQLOutboxRepo) Reschedule(ctx context.Context, id int64, delay time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox
SET retry_count = retry_count + 1, next_attempt_at = DATE_ADD(NOW(), INTERVAL ? SECOND)
WHERE id = ?
`, int64(delay.Seconds()), id)
	return err
}

var _ usecase.OutboxRepo = (*MySQLOutboxRepo)(nil)
