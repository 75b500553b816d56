package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shift-exchange-backend/internal/common/errors"
	"shift-exchange-backend/internal/features/auth/identity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	seen string
}

func (s *stubVerifier) Verify(token string) (*identity.Identity, error) {
	s.seen = token
	if token == "good" {
		return &identity.Identity{ID: 7, Username: "seven"}, nil
	}
	return nil, identity.ErrInvalidSignature
}

func newRouter(v IdentityVerifier) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.Any("/me", TelegramInitData(v), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.JSON(http.StatusOK, gin.H{"id": IdentityFrom(c).ID, "uid": UserID(c), "body": string(body)})
	})
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp struct {
		Success   bool `json:"success"`
		Error     struct {
			Code    errors.ErrorCode `json:"code"`
			Context map[string]string
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return ErrorResponse{
		Success:   resp.Success,
		Error:     &errors.AppError{Code: resp.Error.Code, Context: resp.Error.Context},
		RequestID: resp.RequestID,
	}
}

func TestTelegramInitData_Sources(t *testing.T) {
	cases := map[string]func() *http.Request{
		"header": func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set(InitDataHeader, "good")
			return req
		},
		"query camel": func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/me?initData=good", nil)
		},
		"query snake": func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/me?init_data=good", nil)
		},
	}
	for name, mk := range cases {
		t.Run(name, func(t *testing.T) {
			v := &stubVerifier{}
			w := httptest.NewRecorder()
			newRouter(v).ServeHTTP(w, mk())

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "good", v.seen)
			assert.Contains(t, w.Body.String(), `"uid":7`)
		})
	}
}

func TestTelegramInitData_BodyIsRestored(t *testing.T) {
	v := &stubVerifier{}
	payload := `{"initData":"good","extra":1}`
	req := httptest.NewRequest(http.MethodPost, "/me", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newRouter(v).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Body string `json:"body"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, payload, got.Body)
}

func TestTelegramInitData_Rejections(t *testing.T) {
	r := newRouter(&stubVerifier{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errors.ErrCodeAuthMissingSignature, decodeError(t, w).Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?initData=bad", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeError(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, errors.ErrCodeAuthInvalidSignature, resp.Error.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestAbortWithError_DoesNotMutateSentinel(t *testing.T) {
	sentinel := errors.New(errors.ErrCodeNotFound, "gone")
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { AbortWithError(c, sentinel) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "/x", decodeError(t, w).Error.Context["path"])
	assert.Empty(t, sentinel.RequestID)
	assert.Nil(t, sentinel.Context)
}

func TestAbortWithError_HidesPlainErrors(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { AbortWithError(c, io.ErrUnexpectedEOF) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "unexpected EOF")
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.ErrCodeInternal, decodeError(t, w).Error.Code)
}

func TestStatusCode(t *testing.T) {
	cases := map[errors.ErrorCode]int{
		errors.ErrCodeAuthMalformedPayload: http.StatusUnauthorized,
		errors.ErrCodeUnknownDepartment:    http.StatusBadRequest,
		errors.ErrCodeSlotInPast:           http.StatusBadRequest,
		errors.ErrCodeInvalidSlot:          http.StatusBadRequest,
		errors.ErrCodeProfileIncomplete:    http.StatusBadRequest,
		errors.ErrCodeEmptyWantList:        http.StatusBadRequest,
		errors.ErrCodeUserNotFound:         http.StatusNotFound,
		errors.ErrCodeNotFound:            http.StatusNotFound,
		errors.ErrCodeDatabaseError:        http.StatusInternalServerError,
		errors.ErrCodeConfig:               http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusCode(errors.New(code, "x")), code)
	}
}

type mapStore struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (s *mapStore) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *mapStore) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = append([]byte(nil), value...)
	return nil
}

func TestRedisCache_HitAfterMiss(t *testing.T) {
	store := &mapStore{m: map[string][]byte{}}
	calls := 0
	r := gin.New()
	r.GET("/dates", RedisCache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"n": calls})
	})
	r.GET("/fail", RedisCache(store, time.Minute), func(c *gin.Context) {
		AbortWithError(c, errors.New(errors.ErrCodeValidation, "no"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dates?x=1", nil))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dates?x=1", nil))
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
	assert.Equal(t, 1, calls)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dates?x=2", nil))
	assert.JSONEq(t, `{"n":2}`, w.Body.String())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	_, cached, _ := store.GetBytes(context.Background(), "httpcache:GET:/fail")
	assert.False(t, cached, "errors are not cached")
}

func TestRedisCache_KeyIgnoresInitData(t *testing.T) {
	store := &mapStore{m: map[string][]byte{}}
	calls := 0
	r := gin.New()
	r.GET("/offers/by-date", RedisCache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"n": calls})
	})

	for _, target := range []string{
		"/offers/by-date?date=2025-01-10&initData=user%3D1%26hash%3Daa",
		"/offers/by-date?init_data=user%3D2%26hash%3Dbb&date=2025-01-10",
		"/offers/by-date?date=2025-01-10",
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	assert.Equal(t, 1, calls)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.m, 1)
	assert.Contains(t, store.m, "httpcache:GET:/offers/by-date?date=2025-01-10")
}

func TestEnsureUser(t *testing.T) {
	var ensured int64
	ensurer := ensureFunc(func(_ context.Context, id *identity.Identity) error {
		ensured = id.ID
		return nil
	})
	r := gin.New()
	r.GET("/me", TelegramInitData(&stubVerifier{}), EnsureUser(ensurer), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(InitDataHeader, "good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(7), ensured)
}

type ensureFunc func(ctx context.Context, id *identity.Identity) error

func (f ensureFunc) Ensure(ctx context.Context, id *identity.Identity) error { return f(ctx, id) }
