// Package identity verifies signed Telegram init-data and extracts the
// caller's identity from it.
package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"

	"shift-exchange-backend/internal/common/config"
	apperrors "shift-exchange-backend/internal/common/errors"
)

var (
	ErrMissingSignature = apperrors.New(apperrors.ErrCodeAuthMissingSignature, "init data is missing hash")
	ErrInvalidSignature = apperrors.New(apperrors.ErrCodeAuthInvalidSignature, "init data signature mismatch")
	ErrMalformedPayload = apperrors.New(apperrors.ErrCodeAuthMalformedPayload, "init data user payload is malformed")
	ErrNotConfigured    = apperrors.New(apperrors.ErrCodeConfig, "init data validation is not configured")
)

// Identity is the verified caller.
type Identity struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	User      initdata.User
}

// FullName joins first and last name, empty when both are blank.
func (i *Identity) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
}

// Verifier checks init-data signatures. It is safe for concurrent use.
type Verifier struct {
	botToken string
	scheme   string
	expIn    time.Duration
	secret   []byte
}

// NewVerifier builds a Verifier for the given scheme (config.AuthSchemeSHA256
// or config.AuthSchemeWebApp). expIn only applies to the webapp scheme; zero
// disables the auth_date expiry check.
func NewVerifier(botToken, scheme string, expIn time.Duration) *Verifier {
	v := &Verifier{botToken: botToken, scheme: scheme, expIn: expIn}
	if botToken != "" {
		v.secret = SecretFor(botToken)
	}
	return v
}

// Verify validates token and returns the identity it carries.
func (v *Verifier) Verify(token string) (*Identity, error) {
	if v.botToken == "" {
		return nil, ErrNotConfigured
	}

	values, err := url.ParseQuery(token)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeAuthMalformedPayload, "init data is not query encoded")
	}

	switch v.scheme {
	case config.AuthSchemeWebApp:
		if err := initdata.Validate(token, v.botToken, v.expIn); err != nil {
			if errors.Is(err, initdata.ErrSignMissing) {
				return nil, ErrMissingSignature
			}
			return nil, apperrors.Wrap(err, apperrors.ErrCodeAuthInvalidSignature, "init data signature mismatch")
		}
	default:
		if err := v.checkSHA256(values); err != nil {
			return nil, err
		}
	}

	return decodeUser(values)
}

func (v *Verifier) checkSHA256(values url.Values) error {
	hashes, ok := values["hash"]
	if !ok || len(hashes) == 0 {
		return ErrMissingSignature
	}
	theirs := hashes[len(hashes)-1]

	ours := Sign(v.secret, CheckString(values))
	if !hmac.Equal([]byte(ours), []byte(theirs)) {
		return ErrInvalidSignature
	}
	return nil
}

// CheckString builds the canonical data-check string: every key except
// "hash", sorted, rendered as key=value and joined by newlines. Repeated keys
// keep their last value.
func CheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		vs := values[k]
		val := ""
		if len(vs) > 0 {
			val = vs[len(vs)-1]
		}
		pairs = append(pairs, k+"="+val)
	}
	return strings.Join(pairs, "\n")
}

// Sign returns the hex HMAC-SHA256 of data under key.
func Sign(key []byte, data string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// SecretFor derives the sha256-scheme MAC key from a bot token.
func SecretFor(botToken string) []byte {
	sum := sha256.Sum256([]byte(botToken))
	return sum[:]
}

func decodeUser(values url.Values) (*Identity, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, apperrors.New(apperrors.ErrCodeAuthMalformedPayload, "init data has no user")
	}
	var u initdata.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeAuthMalformedPayload, "init data user is not valid JSON")
	}
	if u.ID == 0 {
		return nil, apperrors.New(apperrors.ErrCodeAuthMalformedPayload, "init data user has no id")
	}
	return &Identity{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		User:      u,
	}, nil
}
