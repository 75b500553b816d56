package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	apperrors "shift-exchange-backend/internal/common/errors"
	"shift-exchange-backend/internal/common/logger"
)

// Messenger delivers a text message to a Telegram chat.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Client sends HTML-formatted messages through the Bot API.
type Client struct {
	api *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewClient authorizes the bot token against the Bot API.
func NewClient(token string) (*Client, error) {
	return NewClientWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
}

// NewClientWithEndpoint is NewClient against a custom API endpoint, in the
// "https://host/bot%s/%s" form.
func NewClientWithEndpoint(token, endpoint string, httpClient *http.Client) (*Client, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log := logger.Component("telegram")
	log.Info().Str("bot", api.Self.UserName).Msg("Authorized on bot account")

	return &Client{api: api, log: log}, nil
}

func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := c.api.Send(msg); err != nil {
		return apperrors.NewTelegramAPIError("sendMessage", err).WithDetail("chat_id", chatID)
	}
	c.log.Debug().Int64("chat_id", chatID).Msg("message sent")
	return nil
}

// Lazy authorizes the bot on first use and retries authorization on every
// send until it succeeds, so a Bot API outage at boot is not permanent.
type Lazy struct {
	mu      sync.Mutex
	connect func() (*Client, error)
	client  *Client
}

func NewLazy(connect func() (*Client, error)) *Lazy {
	return &Lazy{connect: connect}
}

func (l *Lazy) Send(ctx context.Context, chatID int64, text string) error {
	c, err := l.get()
	if err != nil {
		return apperrors.NewTelegramAPIError("getMe", err).WithDetail("chat_id", chatID)
	}
	return c.Send(ctx, chatID, text)
}

func (l *Lazy) get() (*Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		return l.client, nil
	}
	c, err := l.connect()
	if err != nil {
		return nil, err
	}
	l.client = c
	return c, nil
}

// LogMessenger only logs what it would send. It stands in when no bot token
// is configured or notifications are disabled.
type LogMessenger struct{}

func (LogMessenger) Send(_ context.Context, chatID int64, text string) error {
	logger.Info().Int64("chat_id", chatID).Str("text", text).Msg("notification (not delivered)")
	return nil
}
