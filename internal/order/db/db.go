package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"qrmenu/internal/models"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

// ErrDuplicateOrderNumber reports a lost race on the per-restaurant order
// number. Callers re-read the sequence and try again.
var ErrDuplicateOrderNumber = errors.New("order number already taken")

type DB struct {
	Bun *bun.DB
}

// CreateOrder inserts the order and its line items in one transaction. The
// (restaurant_id, order_number) pair is guarded by a unique constraint, so a
// concurrent creation that grabbed the same number surfaces as
// ErrDuplicateOrderNumber instead of a silent duplicate.
func (d *DB) CreateOrder(order *models.Order, items []*models.OrderLineItem) error {
	ctx := context.Background()
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateOrderNumber
			}
			return err
		}
		if len(items) > 0 {
			if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetOrderByID fetches one order with its line items.
func (d *DB) GetOrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Relation("Items").
		Where("\"order\".id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns a restaurant's orders, newest first. An empty status
// means no status filter.
func (d *DB) ListOrders(restaurantID string, status models.OrderStatus, limit int) ([]*models.Order, error) {
	var orders []*models.Order
	q := d.Bun.NewSelect().
		Model(&orders).
		Relation("Items").
		Where("\"order\".restaurant_id = ?", restaurantID).
		Order("created_at DESC")
	if status != "" {
		q = q.Where("\"order\".status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrder writes back the fields owned by the transition operation.
func (d *DB) UpdateOrder(order models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(&order).
		Column("status", "payment_status", "estimated_ready_at", "confirmed_at",
			"preparation_started_at", "ready_at", "completed_at", "cancelled_at",
			"paid_at", "updated_at").
		Where("id = ?", order.ID).
		Exec(context.Background())
	return err
}

// isUniqueViolation recognizes unique-constraint errors from Postgres
// (class 23505) and from the SQLite driver the tests run on.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// NextOrderNumber returns the next per-restaurant order sequence number.
func (d *DB) NextOrderNumber(restaurantID string) (int, error) {
	var max sql.NullInt64
	err := d.Bun.NewSelect().
		ColumnExpr("MAX(order_number)").
		Table("orders").
		Where("restaurant_id = ?", restaurantID).
		Scan(context.Background(), &max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}
