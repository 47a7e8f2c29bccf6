package analytics

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

type EventRow struct {
	ID    string `bun:"id"`
	Title string `bun:"title"`
}

type SaleRow struct {
	EventID     string    `bun:"event_id"`
	TotalAmount string    `bun:"total_amount"`
	CreatedAt   time.Time `bun:"created_at"`
}

// OrganizerEvents lists the organizer's events, newest first.
func (d *DB) OrganizerEvents(ctx context.Context, organizerID string) ([]EventRow, error) {
	rows := []EventRow{}
	err := d.Bun.NewSelect().
		TableExpr("events AS e").
		ColumnExpr("e.id, e.title").
		Where("e.organizer_id = ?", organizerID).
		OrderExpr("e.created_at DESC, e.id DESC").
		Scan(ctx, &rows)
	return rows, err
}

// OrganizerSales returns one row per order placed for the organizer's events.
func (d *DB) OrganizerSales(ctx context.Context, organizerID string) ([]SaleRow, error) {
	rows := []SaleRow{}
	err := d.Bun.NewSelect().
		TableExpr("orders AS o").
		ColumnExpr("o.event_id, o.total_amount, o.created_at").
		Join("JOIN events AS e ON e.id = o.event_id").
		Where("e.organizer_id = ?", organizerID).
		OrderExpr("o.created_at ASC").
		Scan(ctx, &rows)
	return rows, err
}
