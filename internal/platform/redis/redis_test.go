package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Nothing listens on port 1, so every command fails fast with a dial error.
func unreachable() *Client {
	return Wrap(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.ErrorContains(t, err, "empty address")

	_, err = Open(context.Background(), Options{Addr: "127.0.0.1:1", PingTimeout: 200 * time.Millisecond})
	assert.ErrorContains(t, err, "ping 127.0.0.1:1")
}

func TestLock_TransportErrorIsNotContention(t *testing.T) {
	c := unreachable()
	defer c.Close()

	release, err := c.Lock(context.Background(), "shift-exchange:test", time.Second)
	require.Error(t, err)
	assert.Nil(t, release)
	assert.NotErrorIs(t, err, ErrNotAcquired)
	assert.ErrorContains(t, err, "acquire shift-exchange:test")
}

func TestHealthCheck_Unreachable(t *testing.T) {
	c := unreachable()
	defer c.Close()

	assert.Error(t, c.HealthCheck(context.Background()))
}
