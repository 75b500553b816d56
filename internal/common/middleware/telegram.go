package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"shift-exchange-backend/internal/common/logger"
	"shift-exchange-backend/internal/features/auth/identity"
)

const (
	InitDataHeader = "X-Telegram-Init-Data"

	IdentityKey = "identity"
	UserIDKey   = "user_id"

	maxSniffBody = 64 << 10
)

// IdentityVerifier is satisfied by *identity.Verifier.
type IdentityVerifier interface {
	Verify(token string) (*identity.Identity, error)
}

// TelegramInitData verifies the caller's signed init-data and stores the
// resulting identity on the context. Requests without a valid token are
// rejected with 401.
func TelegramInitData(v IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractInitData(c)
		if token == "" {
			AbortWithError(c, identity.ErrMissingSignature)
			return
		}

		id, err := v.Verify(token)
		if err != nil {
			logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("init data rejected")
			AbortWithError(c, err)
			return
		}

		c.Set(IdentityKey, id)
		c.Set(UserIDKey, id.ID)
		c.Next()
	}
}

// ExtractInitData looks for the raw init-data in the header, then the query
// string, then a JSON body field "initData". The body is restored afterwards.
func ExtractInitData(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(InitDataHeader)); v != "" {
		return v
	}
	if v := c.Query("initData"); v != "" {
		return v
	}
	if v := c.Query("init_data"); v != "" {
		return v
	}
	return initDataFromBody(c)
}

func initDataFromBody(c *gin.Context) string {
	if c.Request.Body == nil || !strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		return ""
	}
	body := c.Request.Body
	raw, err := io.ReadAll(io.LimitReader(body, maxSniffBody))
	c.Request.Body = readCloser{io.MultiReader(bytes.NewReader(raw), body), body}
	if err != nil || len(raw) == 0 || len(raw) == maxSniffBody {
		return ""
	}

	var peek struct {
		InitData string `json:"initData"`
	}
	if json.Unmarshal(raw, &peek) != nil {
		return ""
	}
	return peek.InitData
}

type readCloser struct {
	io.Reader
	io.Closer
}
