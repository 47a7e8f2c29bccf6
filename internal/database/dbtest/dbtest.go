// Package dbtest spins up throwaway sqlite databases for store tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"ms-eventhub/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// New returns an isolated in-memory database with the full schema.
func New(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, database.CreateSchema(context.Background(), db))

	t.Cleanup(func() { db.Close() })
	return db
}
