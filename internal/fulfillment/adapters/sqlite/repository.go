// Package sqlite provides the SQLite-backed implementation of
// ports.Repository.
//
// WAL mode is enabled on Open so readers never block writers and vice
// versa — dashboards list orders while transitions commit. The status_history
// table is append-only: each row is an immutable audit entry, never updated
// or deleted.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ovenline/fulfillment/internal/fulfillment/domain"
	"github.com/ovenline/fulfillment/internal/fulfillment/ports"

	// Register the pure-Go SQLite driver. No CGO, so it builds anywhere.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. Timestamps are RFC3339 TEXT,
// the SQLite idiom; line items and the shipping address travel as JSON
// snapshots because this core carries them opaquely.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id               TEXT PRIMARY KEY,
    customer_ref     TEXT    NOT NULL,
    line_items       TEXT    NOT NULL,
    shipping_address TEXT    NOT NULL DEFAULT '',
    payment_method   TEXT    NOT NULL DEFAULT '',
    total_price      REAL    NOT NULL DEFAULT 0,
    is_paid          INTEGER NOT NULL DEFAULT 0,
    paid_at          TEXT,
    status           TEXT    NOT NULL,
    is_delivered     INTEGER NOT NULL DEFAULT 0,
    delivered_at     TEXT,
    created_at       TEXT    NOT NULL,
    updated_at       TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, created_at);

-- Append-only audit trail. The surrogate key doubles as the commit order for
-- entries sharing a timestamp.
CREATE TABLE IF NOT EXISTS status_history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT NOT NULL REFERENCES orders(id),
    status      TEXT NOT NULL,
    actor_id    TEXT NOT NULL,
    actor_role  TEXT NOT NULL,
    note        TEXT NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_status_history_order ON status_history(order_id, id);
`

// Repository is the SQLite implementation of ports.Repository.
type Repository struct {
	db *sql.DB
}

var _ ports.Repository = (*Repository)(nil)

// Open opens (or creates) the database at the given path and applies the
// schema. Use ":memory:" for tests.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection; this also makes
	// the conditional update + history insert serialize per process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new order. The history starts empty; the checkout
// collaborator hands orders over before any transition has happened.
func (r *Repository) Create(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.LineItems)
	if err != nil {
		return domain.Wrap(domain.KindPersistence, "encode line items", err)
	}

	const q = `
		INSERT INTO orders
			(id, customer_ref, line_items, shipping_address, payment_method,
			 total_price, is_paid, paid_at, status, is_delivered, delivered_at,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, q,
		o.ID,
		o.CustomerRef,
		string(items),
		o.ShippingAddress,
		o.PaymentMethod,
		o.TotalPrice,
		boolToInt(o.IsPaid),
		formatNullableTime(o.PaidAt),
		string(o.Status),
		boolToInt(o.IsDelivered),
		formatNullableTime(o.DeliveredAt),
		formatTime(o.CreatedAt),
		formatTime(o.UpdatedAt),
	)
	if err != nil {
		return domain.Wrap(domain.KindPersistence, fmt.Sprintf("insert order %q", o.ID), err)
	}
	return nil
}

// Get loads one order with its history in commit order.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Order, error) {
	const q = `
		SELECT id, customer_ref, line_items, shipping_address, payment_method,
		       total_price, is_paid, paid_at, status, is_delivered, delivered_at,
		       created_at, updated_at
		FROM   orders
		WHERE  id = ?`

	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, domain.E(domain.KindNotFound, "Không tìm thấy đơn hàng")
	}
	if err != nil {
		return nil, domain.Wrap(domain.KindPersistence, fmt.Sprintf("get order %q", id), err)
	}

	if err := r.loadHistory(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByStatuses returns orders filtered to the given status set, newest
// first. An empty set means all orders.
func (r *Repository) ListByStatuses(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	q := `
		SELECT id, customer_ref, line_items, shipping_address, payment_method,
		       total_price, is_paid, paid_at, status, is_delivered, delivered_at,
		       created_at, updated_at
		FROM   orders`
	var args []any
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		q += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "list orders", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, domain.Wrap(domain.KindPersistence, "scan order row", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.KindPersistence, "iterate orders", err)
	}

	for _, o := range orders {
		if err := r.loadHistory(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// Update commits one transition: a conditional status write plus the history
// append, in a single transaction. Zero rows affected means the persisted
// status no longer matches the precondition the caller read — a concurrent
// transition won — and nothing is written.
func (r *Repository) Update(ctx context.Context, o *domain.Order, expected domain.Status, entry domain.StatusHistoryEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wrap(domain.KindPersistence, "begin transition", err)
	}
	defer tx.Rollback()

	const upd = `
		UPDATE orders
		SET    status = ?, is_delivered = ?, delivered_at = ?, updated_at = ?
		WHERE  id = ? AND status = ?`

	res, err := tx.ExecContext(ctx, upd,
		string(o.Status),
		boolToInt(o.IsDelivered),
		formatNullableTime(o.DeliveredAt),
		formatTime(o.UpdatedAt),
		o.ID,
		string(expected),
	)
	if err != nil {
		return domain.Wrap(domain.KindPersistence, fmt.Sprintf("update order %q", o.ID), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Wrap(domain.KindPersistence, "rows affected", err)
	}
	if n == 0 {
		if exists, err := r.exists(ctx, tx, o.ID); err != nil {
			return err
		} else if !exists {
			return domain.E(domain.KindNotFound, "Không tìm thấy đơn hàng")
		}
		return ports.ErrStaleStatus
	}

	const ins = `
		INSERT INTO status_history (order_id, status, actor_id, actor_role, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	if _, err := tx.ExecContext(ctx, ins,
		o.ID,
		string(entry.Status),
		entry.Actor.UserID,
		string(entry.Actor.Role),
		entry.Note,
		formatTime(entry.Timestamp),
	); err != nil {
		return domain.Wrap(domain.KindPersistence, fmt.Sprintf("append history for %q", o.ID), err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Wrap(domain.KindPersistence, "commit transition", err)
	}
	return nil
}

func (r *Repository) exists(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, domain.Wrap(domain.KindPersistence, "check order existence", err)
	}
	return true, nil
}

// loadHistory fills o.StatusHistory in commit order.
func (r *Repository) loadHistory(ctx context.Context, o *domain.Order) error {
	const q = `
		SELECT status, actor_id, actor_role, note, created_at
		FROM   status_history
		WHERE  order_id = ?
		ORDER  BY id ASC`

	rows, err := r.db.QueryContext(ctx, q, o.ID)
	if err != nil {
		return domain.Wrap(domain.KindPersistence, fmt.Sprintf("load history for %q", o.ID), err)
	}
	defer rows.Close()

	o.StatusHistory = []domain.StatusHistoryEntry{}
	for rows.Next() {
		var (
			entry     domain.StatusHistoryEntry
			status    string
			role      string
			createdAt string
		)
		if err := rows.Scan(&status, &entry.Actor.UserID, &role, &entry.Note, &createdAt); err != nil {
			return domain.Wrap(domain.KindPersistence, "scan history row", err)
		}
		entry.Status = domain.Status(status)
		entry.Actor.Role = domain.Role(role)
		entry.Timestamp, err = parseTime(createdAt)
		if err != nil {
			return domain.Wrap(domain.KindPersistence, "parse history timestamp", err)
		}
		o.StatusHistory = append(o.StatusHistory, entry)
	}
	return rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		o           domain.Order
		items       string
		paidAt      sql.NullString
		deliveredAt sql.NullString
		isPaid      int
		isDelivered int
		status      string
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(
		&o.ID,
		&o.CustomerRef,
		&items,
		&o.ShippingAddress,
		&o.PaymentMethod,
		&o.TotalPrice,
		&isPaid,
		&paidAt,
		&status,
		&isDelivered,
		&deliveredAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &o.LineItems); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}
	o.IsPaid = isPaid != 0
	o.IsDelivered = isDelivered != 0
	o.Status = domain.Status(status)
	if o.PaidAt, err = parseNullableTime(paidAt); err != nil {
		return nil, err
	}
	if o.DeliveredAt, err = parseNullableTime(deliveredAt); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

const timeLayout = "2006-01-02T15:04:05.999999999Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// parseTime parses the RFC3339 TEXT timestamps stored in SQLite.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
