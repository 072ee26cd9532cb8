package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, getLogLevel("warning"))
	assert.Equal(t, slog.LevelError, getLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, getLogLevel("nonsense"))
}

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: "info", Format: "json", Output: &buf})

	log.WithRequestID("req-1").LogAPIRequest(context.Background(), "GET", "/clients", 503, 40*time.Millisecond, errors.New("service unavailable"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "API Request Failed", record["msg"])
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "/clients", record["path"])
	assert.EqualValues(t, 503, record["status"])
}

func TestDebugRecordsFilteredAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions(Options{Level: "info", Format: "text", Output: &buf})

	log.LogCache(context.Background(), "clients_list:{}", true)
	assert.Empty(t, buf.String())

	log.LogSessionEvent(context.Background(), "logout", "u-1", map[string]interface{}{"forced": true})
	assert.Contains(t, buf.String(), "event=logout")
	assert.Contains(t, buf.String(), "forced=true")
}
