package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ms-eventhub/internal/database"
	"ms-eventhub/internal/models"

	"github.com/uptrace/bun"
)

// ErrDuplicate means an order for the same checkout session already exists.
var ErrDuplicate = errors.New("order already exists for session")

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := d.Bun.NewInsert().Model(o).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetOrderByID returns (nil, nil) when absent.
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := d.Bun.NewSelect().
		Model(&o).
		Relation("Event").
		Where("o.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersByEvent joins each order with its buyer and event. Orders whose
// buyer was unlinked drop out of the join.
func (d *DB) ListOrdersByEvent(ctx context.Context, eventID, buyerSearch string) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	q := d.Bun.NewSelect().
		TableExpr("orders AS o").
		ColumnExpr("o.id AS order_id").
		ColumnExpr("o.total_amount").
		ColumnExpr("o.created_at").
		ColumnExpr("e.title AS event_title").
		ColumnExpr("e.id AS event_id").
		ColumnExpr("(u.first_name || ' ' || u.last_name) AS buyer_name").
		Join("JOIN users AS u ON u.id = o.buyer_id").
		Join("JOIN events AS e ON e.id = o.event_id").
		Where("o.event_id = ?", eventID)

	if s := strings.TrimSpace(buyerSearch); s != "" {
		q = q.Where("lower(u.first_name || ' ' || u.last_name) LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(s))+"%")
	}

	if err := q.OrderExpr("o.created_at DESC, o.id DESC").Scan(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListOrdersByBuyer returns one page of the buyer's orders, newest first, with
// the event and its organizer attached.
func (d *DB) ListOrdersByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]models.Order, int, error) {
	orders := []models.Order{}
	count, err := d.Bun.NewSelect().
		Model(&orders).
		Relation("Event").
		Relation("Event.Organizer").
		Where("o.buyer_id = ?", buyerID).
		OrderExpr("o.created_at DESC, o.id DESC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
