package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "shift-exchange-backend/internal/common/errors"
)

type fakeBotAPI struct {
	mu   sync.Mutex
	sent []map[string]string
	fail bool
	// getMeDown makes that many getMe calls fail before the API recovers.
	getMeDown int
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		f.mu.Lock()
		down := f.getMeDown > 0
		if down {
			f.getMeDown--
		}
		f.mu.Unlock()
		if down {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":502,"description":"Bad Gateway"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Swap","username":"swap_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.sent = append(f.sent, map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		})
		fail := f.fail
		f.mu.Unlock()
		if fail {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, api *fakeBotAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := NewClientWithEndpoint("123:abc", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return c
}

func TestClient_Send(t *testing.T) {
	api := &fakeBotAPI{}
	c := newTestClient(t, api)

	require.NoError(t, c.Send(context.Background(), 42, "<b>hi</b>"))

	require.Len(t, api.sent, 1)
	assert.Equal(t, "42", api.sent[0]["chat_id"])
	assert.Equal(t, "<b>hi</b>", api.sent[0]["text"])
	assert.Equal(t, "HTML", api.sent[0]["parse_mode"])
}

func TestClient_SendFailure(t *testing.T) {
	api := &fakeBotAPI{fail: true}
	c := newTestClient(t, api)

	err := c.Send(context.Background(), 42, "hi")
	assert.ErrorContains(t, err, "blocked")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTelegramAPI))
}

func TestLazy_RetriesAuthorizationAfterOutage(t *testing.T) {
	api := &fakeBotAPI{getMeDown: 2}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	var attempts int
	m := NewLazy(func() (*Client, error) {
		attempts++
		return NewClientWithEndpoint("123:abc", srv.URL+"/bot%s/%s", srv.Client())
	})

	_, err := NewClientWithEndpoint("123:abc", srv.URL+"/bot%s/%s", srv.Client())
	require.Error(t, err, "API is down at boot")

	err = m.Send(context.Background(), 42, "first")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTelegramAPI))

	require.NoError(t, m.Send(context.Background(), 42, "second"))
	require.NoError(t, m.Send(context.Background(), 42, "third"))
	assert.Equal(t, 2, attempts, "authorized once, then reused")

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.sent, 2)
	assert.Equal(t, "second", api.sent[0]["text"])
}

func TestClient_CancelledContext(t *testing.T) {
	api := &fakeBotAPI{}
	c := newTestClient(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Send(ctx, 42, "hi"), context.Canceled)
	assert.Empty(t, api.sent)
}

func TestLogMessenger(t *testing.T) {
	var m Messenger = LogMessenger{}
	assert.NoError(t, m.Send(context.Background(), 1, "x"))
}
