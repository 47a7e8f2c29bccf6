package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-eventhub/internal/models"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

// Models lists every table in creation order.
var Models = []interface{}{
	(*models.User)(nil),
	(*models.Category)(nil),
	(*models.Event)(nil),
	(*models.Order)(nil),
}

// CreateSchema builds the tables straight from the bun models. Postgres
// deployments go through the migrations package instead; this path serves
// sqlite development databases and tests.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, m := range Models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS categories_name_lower_idx ON categories (lower(name))`,
		`CREATE INDEX IF NOT EXISTS events_organizer_idx ON events (organizer_id)`,
		`CREATE INDEX IF NOT EXISTS events_category_idx ON events (category_id)`,
		`CREATE INDEX IF NOT EXISTS orders_event_idx ON orders (event_id)`,
		`CREATE INDEX IF NOT EXISTS orders_buyer_idx ON orders (buyer_id)`,
	}
	for _, q := range indexes {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// IsUniqueViolation recognises duplicate-key failures from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
