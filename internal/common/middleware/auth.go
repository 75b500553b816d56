package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"shift-exchange-backend/internal/common/errors"
	"shift-exchange-backend/internal/features/auth/identity"
)

// IdentityFrom returns the verified caller. It panics when the route is not
// behind TelegramInitData, which is a wiring bug.
func IdentityFrom(c *gin.Context) *identity.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		panic("middleware: identity requested on an unauthenticated route")
	}
	return v.(*identity.Identity)
}

// UserID returns the caller's Telegram id, or zero when unauthenticated.
func UserID(c *gin.Context) int64 {
	return getUserID(c)
}

// MustUserID aborts with 401 when the request carries no identity.
func MustUserID(c *gin.Context) (int64, bool) {
	uid := getUserID(c)
	if uid == 0 {
		AbortWithError(c, errors.New(errors.ErrCodeAuthMissingSignature, "Unauthorized: Telegram init data required"))
		return 0, false
	}
	return uid, true
}

// UserEnsurer creates the caller's user row on first sight.
type UserEnsurer interface {
	Ensure(ctx context.Context, id *identity.Identity) error
}

// EnsureUser makes sure the verified caller has a user row. It must run after
// TelegramInitData.
func EnsureUser(users UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := users.Ensure(c.Request.Context(), IdentityFrom(c)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
