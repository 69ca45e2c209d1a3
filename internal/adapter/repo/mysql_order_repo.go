package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/entity"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

// Create inserts the order row and its order.created outbox row in one
// transaction, so the event cannot be lost or published for an order that
// never committed.
func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order, createdEvent []byte) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO orders (id,user_id,state,items_json,shipping_address,payment_method,
                    subtotal_cents,tax_cents,shipping_cents,total_cents,
                    payment_intent_ref,transaction_ref,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,NULL,NULL,?,?)`,
		o.ID, o.UserID, o.State, items, o.ShippingAddress, o.PaymentMethod,
		o.Prices.SubtotalCents, o.Prices.TaxCents, o.Prices.ShippingCents, o.Prices.TotalCents,
		o.CreatedAt, o.CreatedAt)
	if err != nil {
		return err
	}

	if len(createdEvent) > 0 {
		_, err = tx.ExecContext(ctx, `
INSERT INTO outbox (channel,payload,status,retry_count,next_attempt_at,created_at)
VALUES ('order.created.v1', ?, 'PENDING', 0, NOW(), NOW())`, createdEvent)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

const orderColumns = `id,user_id,state,items_json,shipping_address,payment_method,
subtotal_cents,tax_cents,shipping_cents,total_cents,
COALESCE(payment_intent_ref,''),COALESCE(transaction_ref,''),created_at`

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound
	}
	return o, err
}

func (r *MySQLOrderRepo) GetByIntentRef(ctx context.Context, ref string) (*domain.Order, error) {
	if ref == "" {
		return nil, usecase.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_intent_ref=?`, ref)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound
	}
	return o, err
}

func (r *MySQLOrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	// id tiebreak keeps the order stable when created_at collides.
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id=? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// TransitionState is the store's only mutation path after creation: a single
// guarded UPDATE keyed on the expected prior state. Zero rows affected means
// the swap lost (missing row or state mismatch); the caller decides what that
// means. Gateway references are written only if not already set.
func (r *MySQLOrderRepo) TransitionState(ctx context.Context, id string, from, to domain.State, fields usecase.TransitionFields) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET state = ?,
    payment_intent_ref = COALESCE(payment_intent_ref, NULLIF(?, '')),
    transaction_ref    = COALESCE(transaction_ref, NULLIF(?, '')),
    updated_at = NOW()
WHERE id = ? AND state = ?`,
		to, fields.PaymentIntentRef, fields.TransactionRef, id, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLOrderRepo) ListStalePending(ctx context.Context, cutoff int64) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
WHERE state=? AND created_at < FROM_UNIXTIME(?) AND stale_reported_at IS NULL`,
		domain.StatePaymentPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *MySQLOrderRepo) MarkStaleReported(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET stale_reported_at = NOW() WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o         domain.Order
		itemsJSON []byte
		createdAt time.Time
	)
	err := row.Scan(&o.ID, &o.UserID, &o.State, &itemsJSON, &o.ShippingAddress, &o.PaymentMethod,
		&o.Prices.SubtotalCents, &o.Prices.TaxCents, &o.Prices.ShippingCents, &o.Prices.TotalCents,
		&o.PaymentIntentRef, &o.TransactionRef, &createdAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	o.CreatedAt = createdAt
	return &o, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
