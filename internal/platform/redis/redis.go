// Package redis is the optional Redis backend: the sweep lease in lock.go
// and the raw byte store behind the response cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shift-exchange-backend/internal/common/logger"
)

const defaultPingTimeout = 3 * time.Second

type Options struct {
	Addr     string
	Password string
	DB       int
	// PingTimeout bounds the connectivity check in Open. Zero means 3s.
	PingTimeout time.Duration
}

// Client embeds go-redis so callers get the full command set.
type Client struct {
	*redis.Client
}

// Open connects and pings. A failed ping closes the pool.
func Open(ctx context.Context, opts Options) (*Client, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: empty address")
	}
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	c := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}

	logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Redis client initialized")
	return &Client{Client: c}, nil
}

// Wrap adopts an existing go-redis client, used by tests.
func Wrap(c *redis.Client) *Client {
	return &Client{Client: c}
}

func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
