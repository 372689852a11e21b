package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_TagsEveryEntryWithRole(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("server")
	l.Logger = l.Output(&buf)

	l.Info().Msg("démarrage")

	entry := logEntry(t, &buf)
	assert.Equal(t, "server", entry["role"])
	assert.Contains(t, entry, "time")
	assert.Equal(t, "démarrage", entry["message"])
}

func TestNewLogger_CallerFieldIsFunctionName(t *testing.T) {
	NewLogger("server")
	assert.Equal(t, "func", zerolog.CallerFieldName)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestNop_DiscardsEverything(t *testing.T) {
	var buf bytes.Buffer
	l := Nop()
	require.NotNil(t, l)
	l.Logger = l.Output(&buf)

	l.Error().Msg("dropped")

	assert.Empty(t, buf.String())
}

func TestGetChildLogger_InheritsParentFields(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger("client")
	parent.Logger = parent.Output(&buf)

	child := parent.GetChildLogger()
	require.NotSame(t, parent, child)

	child.Logger = child.Output(&buf)
	child.Info().Msg("via child")

	assert.Equal(t, "client", logEntry(t, &buf)["role"])
}

func TestFromContext(t *testing.T) {
	t.Run("bare context still yields a usable logger", func(t *testing.T) {
		require.NotNil(t, FromContext(context.Background()))
	})

	t.Run("returns the attached request-scoped logger", func(t *testing.T) {
		var buf bytes.Buffer
		zl := zerolog.New(&buf).With().Str("trace_id", "t-123").Logger()
		ctx := zl.WithContext(context.Background())

		FromContext(ctx).Info().Msg("scoped")

		assert.Equal(t, "t-123", logEntry(t, &buf)["trace_id"])
	})
}

func TestFromRequest(t *testing.T) {
	t.Run("bare request still yields a usable logger", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		require.NotNil(t, FromRequest(req))
	})

	t.Run("returns the logger the middleware attached", func(t *testing.T) {
		var buf bytes.Buffer
		zl := zerolog.New(&buf).With().Str("trace_id", "t-456").Logger()

		req := httptest.NewRequest(http.MethodPost, "/api/sync/push", nil)
		req = req.WithContext(zl.WithContext(req.Context()))

		FromRequest(req).Info().Msg("scoped")

		assert.Equal(t, "t-456", logEntry(t, &buf)["trace_id"])
	})
}
