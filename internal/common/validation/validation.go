package validation

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"shift-exchange-backend/internal/features/calendar"
)

const (
	MaxFullNameLength = 128
	MinFullNameLength = 1
	MaxUsernameLength = 32
	MaxWants          = 64
)

var registerOnce sync.Once

// Register installs the shift binding tags on gin's validator. It is safe to
// call more than once; only the first call has an effect.
//
//	isodate    YYYY-MM-DD calendar date
//	shifthour  on-the-hour "HH:00"
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			return calendar.IsValidDate(fl.Field().String())
		})
		_ = v.RegisterValidation("shifthour", func(fl validator.FieldLevel) bool {
			return calendar.IsValidHour(fl.Field().String())
		})
	})
}

// ValidateFullName checks a display name after trimming.
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < MinFullNameLength {
		return fmt.Errorf("full name cannot be empty")
	}
	if n > MaxFullNameLength {
		return fmt.Errorf("full name cannot exceed %d characters", MaxFullNameLength)
	}
	return nil
}

// NormalizeUsername strips a leading "@" and surrounding whitespace.
func NormalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	if len(username) > MaxUsernameLength {
		username = username[:MaxUsernameLength]
	}
	return username
}

// FieldErrors flattens validator errors into field -> tag pairs for the
// error response details.
func FieldErrors(err error) map[string]interface{} {
	out := map[string]interface{}{}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, fe := range ve {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}
