package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"shift-exchange-backend/internal/common/config"
	"shift-exchange-backend/internal/common/logger"
)

const pingTimeout = 5 * time.Second

// Client owns the lib/pq connection pool shared by all repositories.
type Client struct {
	db *sql.DB
}

// NewClient opens the pool described by cfg.Postgres and pings it.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.Postgres.DSN == "" {
		return nil, errors.New("postgres: empty DATABASE_URL")
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping %s: %w", target(cfg.Postgres.DSN), err)
	}

	logger.Info().
		Str("target", target(cfg.Postgres.DSN)).
		Int("max_open_conns", cfg.Postgres.MaxOpenConns).
		Msg("PostgreSQL client initialized")

	return &Client{db: db}, nil
}

// NewFromDB wraps an already opened handle.
func NewFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) GetDB() *sql.DB {
	return c.db
}

func (c *Client) Close() error {
	return c.db.Close()
}

// HealthCheck pings the pool and reports the number of open connections.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: ping (%d open): %w", c.db.Stats().OpenConnections, err)
	}
	return nil
}

// target renders host/dbname of a URL-style DSN without credentials.
func target(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "postgres"
	}
	return u.Host + "/" + strings.TrimPrefix(u.Path, "/")
}
