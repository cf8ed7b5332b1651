package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
)

var ErrNotFound = errors.New("not found")

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

const orderColumns = `id, customer_email, customer_phone, service_type, quantity,
addons_json, urgency, status, price_json, total_cents, currency, notes, created_at, updated_at`

func (r *MySQLOrderRepo) Create(ctx context.Context, o *usecase.OrderRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO orders (id, customer_email, customer_phone, service_type, quantity,
addons_json, urgency, status, price_json, total_cents, currency, notes, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,'',NOW(),NOW())
`, o.ID, o.CustomerEmail, o.CustomerPhone, o.ServiceType, o.Quantity,
		o.AddonsJSON, o.Urgency, o.Status, o.PriceJSON, o.TotalCents, o.Currency)
	return err
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*usecase.OrderRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id)
	rec, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *MySQLOrderRepo) FindByEmail(ctx context.Context, email string) ([]*usecase.OrderRecord, error) {
	return r.find(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_email=? ORDER BY created_at DESC`, email)
}

func (r *MySQLOrderRepo) FindByPhone(ctx context.Context, phone string) ([]*usecase.OrderRecord, error) {
	return r.find(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_phone=? ORDER BY created_at DESC`, phone)
}

func (r *MySQLOrderRepo) FindByIDLike(ctx context.Context, fragment string) ([]*usecase.OrderRecord, error) {
	return r.find(ctx, `SELECT `+orderColumns+` FROM orders WHERE id LIKE CONCAT('%', ?, '%') ORDER BY created_at DESC`, fragment)
}

func (r *MySQLOrderRepo) find(ctx context.Context, query string, arg any) ([]*usecase.OrderRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*usecase.OrderRecord
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateStatusIf performs a guarded transition; rows == 0 means either the
// order is missing or another writer moved it first.
func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id, fromStatus, toStatus string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, updated_at = NOW()
        WHERE id = ? AND status = ?`,
		toStatus, id, fromStatus,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLOrderRepo) UpdateStatus(ctx context.Context, id, toStatus string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, updated_at = NOW()
        WHERE id = ?`,
		toStatus, id,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendNote is allowed even on terminal records (administrative notes).
func (r *MySQLOrderRepo) AppendNote(ctx context.Context, id, note string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET notes = CONCAT(notes, CASE WHEN notes = '' THEN '' ELSE '\n' END, ?), updated_at = NOW()
        WHERE id = ?`,
		note, id,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

// scanOrder tolerates partially populated rows: optional columns are NULLable
// and land as zero values.
func scanOrder(s scanner) (*usecase.OrderRecord, error) {
	var (
		rec                        usecase.OrderRecord
		phone, addons, price, note sql.NullString
	)
	if err := s.Scan(&rec.ID, &rec.CustomerEmail, &phone, &rec.ServiceType, &rec.Quantity,
		&addons, &rec.Urgency, &rec.Status, &price, &rec.TotalCents, &rec.Currency,
		&note, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.CustomerPhone = phone.String
	rec.AddonsJSON = addons.String
	rec.PriceJSON = price.String
	rec.Notes = note.String
	return &rec, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
