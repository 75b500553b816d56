package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriter_JSONFields(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	InitWithWriter(&buf, "shift-exchange-test", false)

	matcher := Component("matcher")
	matcher.Info().Int64("offer_id", 3).Msg("Offers matched")
	Debug().Msg("hidden at info level")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shift-exchange-test", entry["service"])
	assert.Equal(t, "matcher", entry["component"])
	assert.Equal(t, "Offers matched", entry["message"])
	assert.Equal(t, float64(3), entry["offer_id"])
	assert.Contains(t, entry, "timestamp")
}

func TestInitWithWriter_DebugLevel(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	InitWithWriter(&buf, "svc", true)
	Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
