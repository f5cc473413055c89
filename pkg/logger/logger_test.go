package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "json")
	l.Info().Str("bucket", "my-test-bucket").Msg("bucket ok")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "my-test-bucket", entry["bucket"])
	assert.Equal(t, "bucket ok", entry["message"])
	assert.Contains(t, entry, "caller")
}

func TestNewConsoleIsNotJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "console")
	l.Info().Msg("hello")

	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestSetLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	SetLevel("debug")
	assert.Equal(t, zerolog.DebugLevel, Log.GetLevel())

	SetLevel("not-a-level")
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	SetLevel("")
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())
}
