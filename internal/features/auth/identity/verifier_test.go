package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shift-exchange-backend/internal/common/config"
	apperrors "shift-exchange-backend/internal/common/errors"
)

const botToken = "123456:TEST-TOKEN"

func signedToken(t *testing.T, token string, fields map[string]string) string {
	t.Helper()
	v := url.Values{}
	for k, val := range fields {
		v.Set(k, val)
	}
	v.Set("hash", Sign(SecretFor(token), CheckString(v)))
	return v.Encode()
}

func TestCheckString_SortedAndHashExcluded(t *testing.T) {
	v := url.Values{}
	v.Set("user", `{"id":1}`)
	v.Set("auth_date", "1700000000")
	v.Set("hash", "deadbeef")
	v.Set("query_id", "Q")

	assert.Equal(t, "auth_date=1700000000\nquery_id=Q\nuser={\"id\":1}", CheckString(v))
}

func TestVerify_ValidToken(t *testing.T) {
	v := NewVerifier(botToken, config.AuthSchemeSHA256, 0)
	token := signedToken(t, botToken, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":42,"first_name":"Ann","last_name":"Lee","username":"annlee"}`,
	})

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.ID)
	assert.Equal(t, "annlee", id.Username)
	assert.Equal(t, "Ann Lee", id.FullName())
}

func TestVerify_MissingHash(t *testing.T) {
	v := NewVerifier(botToken, config.AuthSchemeSHA256, 0)
	_, err := v.Verify("auth_date=1&user=%7B%22id%22%3A1%7D")
	assert.True(t, errors.Is(err, ErrMissingSignature))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuthMissingSignature))
}

func TestVerify_TamperedPayload(t *testing.T) {
	v := NewVerifier(botToken, config.AuthSchemeSHA256, 0)
	token := signedToken(t, botToken, map[string]string{"user": `{"id":42}`})

	parsed, err := url.ParseQuery(token)
	require.NoError(t, err)
	parsed.Set("user", `{"id":43}`)

	_, err = v.Verify(parsed.Encode())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuthInvalidSignature))
}

func TestVerify_WrongBotToken(t *testing.T) {
	v := NewVerifier(botToken, config.AuthSchemeSHA256, 0)
	token := signedToken(t, "other:token", map[string]string{"user": `{"id":42}`})

	_, err := v.Verify(token)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuthInvalidSignature))
}

// Any hash other than the MAC of the check string fails, including ones that
// differ only in case or a single character.
func TestVerify_SignatureSoundness(t *testing.T) {
	v := NewVerifier(botToken, config.AuthSchemeSHA256, 0)
	fields := url.Values{}
	fields.Set("user", `{"id":7}`)
	fields.Set("auth_date", "1")
	good := Sign(SecretFor(botToken), CheckString(fields))

	bad := []string{
		"",
		good[:len(good)-1],
		good + "0",
		flipLastHex(good),
		hex.EncodeToString(make([]byte, sha256.Size)),
	}
	for i, h := range bad {
		f := cloneValues(fields)
		f.Set("hash", h)
		_, err := v.Verify(f.Encode())
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuthInvalidSignature), "case %d: %v", i, err)
	}

	fields.Set("hash", good)
	_, err := v.Verify(fields.Encode())
	assert.NoError(t, err)
}

func TestVerify_MalformedUser(t *testing.T) {
	v := NewVerifier(botToken, config.AuthSchemeSHA256, 0)

	cases := map[string]map[string]string{
		"no user":  {"auth_date": "1"},
		"bad json": {"user": `{"id":`},
		"no id":    {"user": `{"first_name":"Ann"}`},
		"str id":   {"user": `{"id":"abc"}`},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(signedToken(t, botToken, fields))
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuthMalformedPayload), "got %v", err)
		})
	}
}

func TestVerify_NotConfigured(t *testing.T) {
	v := NewVerifier("", config.AuthSchemeSHA256, 0)
	_, err := v.Verify("hash=abc")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfig))
}

func TestVerify_WebAppScheme(t *testing.T) {
	v := NewVerifier(botToken, config.AuthSchemeWebApp, 0)

	fields := url.Values{}
	fields.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	fields.Set("user", `{"id":99,"first_name":"Web","username":"webby"}`)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	fields.Set("hash", Sign(secret.Sum(nil), CheckString(fields)))

	id, err := v.Verify(fields.Encode())
	require.NoError(t, err)
	assert.Equal(t, int64(99), id.ID)

	// A sha256-scheme signature is not accepted by the webapp scheme.
	_, err = v.Verify(signedToken(t, botToken, map[string]string{
		"auth_date": "1700000000",
		"user":      `{"id":99}`,
	}))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAuthInvalidSignature))
}

func flipLastHex(s string) string {
	b := []byte(s)
	if b[len(b)-1] == '0' {
		b[len(b)-1] = '1'
	} else {
		b[len(b)-1] = '0'
	}
	return string(b)
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
