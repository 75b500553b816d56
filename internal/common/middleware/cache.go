package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shift-exchange-backend/internal/common/cache"
	"shift-exchange-backend/internal/common/logger"
)

// ResponseStore is satisfied by *cache.CacheService.
type ResponseStore interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// RedisCache caches successful GET responses for ttl, keyed by path and query
// without the caller's init-data. Only mount it on responses that do not
// depend on the caller. A nil store disables caching. Store faults are
// logged and bypassed.
func RedisCache(store ResponseStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || ttl <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c.Request)
		ctx := c.Request.Context()

		if bs, ok, err := store.GetBytes(ctx, key); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("response cache read failed")
		} else if ok {
			var entry cachedResponse
			if json.Unmarshal(bs, &entry) == nil {
				c.Header("X-Cache", "HIT")
				c.Data(entry.Status, entry.ContentType, entry.Body)
				c.Abort()
				return
			}
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header("X-Cache", "MISS")
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 || c.IsAborted() {
			return
		}
		entry := cachedResponse{Status: status, ContentType: rec.Header().Get("Content-Type"), Body: rec.buf.Bytes()}
		payload, err := json.Marshal(entry)
		if err != nil {
			return
		}
		if err := store.SetBytes(context.WithoutCancel(ctx), key, payload, ttl); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("response cache write failed")
		}
	}
}

func cacheKey(r *http.Request) string {
	key := cache.HTTPPrefix + r.Method + ":" + r.URL.Path
	q := r.URL.Query()
	q.Del("initData")
	q.Del("init_data")
	if len(q) > 0 {
		key += "?" + q.Encode()
	}
	return key
}
