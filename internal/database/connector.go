package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"ms-eventhub/internal/config"
	"ms-eventhub/internal/logger"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

var (
	ErrMissingDSN     = errors.New("database: connection string is not configured")
	ErrUnknownDriver  = errors.New("database: unknown driver")
	ErrConnectorClose = errors.New("database: connector is closed")
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Connector opens the store once and hands the same *bun.DB to every caller.
type Connector struct {
	cfg    config.DatabaseConfig
	logger *logger.Logger

	mu     sync.Mutex
	db     *bun.DB
	closed bool

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewConnector(cfg config.DatabaseConfig, log *logger.Logger) *Connector {
	if log == nil {
		log = logger.Discard()
	}
	return &Connector{cfg: cfg, logger: log, sleep: time.Sleep}
}

// Connect returns the cached handle, opening it on first use.
func (c *Connector) Connect(ctx context.Context) (*bun.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectorClose
	}
	if c.db != nil {
		return c.db, nil
	}
	if c.cfg.DSN == "" {
		return nil, ErrMissingDSN
	}

	sqldb, dialect, err := c.open()
	if err != nil {
		return nil, err
	}

	attempts := c.cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		c.logger.Info("DATABASE", fmt.Sprintf("Pinging %s (attempt %d/%d)", c.cfg.Driver, i+1, attempts))
		if err = sqldb.PingContext(ctx); err == nil {
			break
		}
		c.logger.Error("DATABASE", fmt.Sprintf("Failed to reach %s: %v", c.cfg.Driver, err))
		if ctx.Err() != nil {
			break
		}
		if i < attempts-1 {
			c.sleep(c.cfg.RetryDelay)
		}
	}
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("database: connect after %d attempts: %w", attempts, err)
	}

	if c.cfg.Driver != DriverSQLite {
		if c.cfg.MaxOpenConns > 0 {
			sqldb.SetMaxOpenConns(c.cfg.MaxOpenConns)
		}
		if c.cfg.MaxIdleConns > 0 {
			sqldb.SetMaxIdleConns(c.cfg.MaxIdleConns)
		}
		if c.cfg.MaxLifetime > 0 {
			sqldb.SetConnMaxLifetime(c.cfg.MaxLifetime)
		}
	}

	c.db = bun.NewDB(sqldb, dialect)
	c.logger.Info("DATABASE", fmt.Sprintf("%s connection ready", c.cfg.Driver))
	return c.db, nil
}

func (c *Connector) open() (*sql.DB, schema.Dialect, error) {
	switch c.cfg.Driver {
	case DriverPostgres, "":
		sqldb, err := sql.Open("postgres", c.cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("database: open postgres: %w", err)
		}
		return sqldb, pgdialect.New(), nil
	case DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, c.cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("database: open sqlite: %w", err)
		}
		// sqlite serialises writers; one connection keeps in-memory databases shared
		sqldb.SetMaxOpenConns(1)
		return sqldb, sqlitedialect.New(), nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, c.cfg.Driver)
	}
}

func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
