package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/healia/backend/pkg/config"
	"github.com/zatekoja/healia/backend/pkg/retry"
)

// Client owns the connection pool of the provider directory database
type Client struct {
	db *sql.DB
}

// NewClient opens a pool sized from cfg and retries the first ping with
// exponential backoff
func NewClient(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	onRetry := func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).
			Int("attempt", attempt).
			Dur("retry_in", nextDelay).
			Str("host", cfg.Host).
			Msg("PostgreSQL not reachable yet")
	}
	ping := func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}
	if err := retry.Do(ctx, retry.DefaultConfig(), "PostgreSQL", ping, onRetry); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to postgres %s: %w", cfg.Host, err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Int("max_open_conns", cfg.MaxOpenConns).Msg("Provider directory database ready")
	return &Client{db: db}, nil
}

// WrapDB adopts an already opened pool, e.g. a sqlmock in tests
func WrapDB(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
