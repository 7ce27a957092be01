package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/nativescan/internal/domain/entities"
	"github.com/ochairo/nativescan/internal/domain/interfaces"
)

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(entities.LogConfig{Level: "info", Format: "text"}, &buf)
	defer closer.Close() //nolint:errcheck // Defer close

	logger.Debug("hidden")
	logger.Info("Scan started", interfaces.F("archive", "Demo.zip"))
	logger.Error("Scan failed", interfaces.F("kind", "duplicate_plist"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="Scan started" archive=Demo.zip`)
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "kind=duplicate_plist")
}

func TestLogger_JSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(entities.LogConfig{Level: "debug", Format: "json"}, &buf)

	scoped := logger.With(interfaces.F("scan_id", "abc-123"))
	scoped.Debug("Scan phase changed", interfaces.F("to", "read"))
	scoped.Warn("Slow archive", interfaces.F("entries", []string{"a", "b"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "DEBUG", first["level"])
	assert.Equal(t, "abc-123", first["scan_id"])
	assert.Equal(t, "read", first["to"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, []any{"a", "b"}, second["entries"])
}

func TestLogger_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nativescan.log")
	var console bytes.Buffer

	logger, closer := New(entities.LogConfig{Level: "info", File: path, MaxSize: 1, MaxBackups: 1}, &console)
	logger.Info("Batch scan complete", interfaces.F("archives", 3))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Contains(t, string(data), "Batch scan complete")
	assert.Contains(t, console.String(), "Batch scan complete")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"DEBUG": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewFromSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFromSlog(slog.New(slog.NewTextHandler(&buf, nil)))
	logger.Info("wrapped")
	assert.Contains(t, buf.String(), "msg=wrapped")

	var _ interfaces.Logger = NewFromSlog(nil)
}
