package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	res, err := NewLogger(Config{Level: "warn", Format: FormatJSON, Output: &buf})
	require.NoError(t, err)

	res.Logger.Info().Msg("hidden")
	res.Logger.Warn().Str("kind", "factor_not_found").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "factor_not_found", entry["kind"])
}

func TestNewLogger_ConsoleHasNoColourOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	res, err := NewLogger(Config{Level: "info", Output: &buf})
	require.NoError(t, err)

	res.Logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medcarbon.log")
	var buf bytes.Buffer
	res, err := NewLogger(Config{Output: &buf, File: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	res.Logger.Info().Msg("to file")
	require.NoError(t, res.Close())
	assert.FileExists(t, path)
}

func TestNewLogger_BadFileStillLogs(t *testing.T) {
	var buf bytes.Buffer
	res, err := NewLogger(Config{Output: &buf, File: filepath.Join(t.TempDir(), "missing", "x.log")})
	require.Error(t, err)
	require.NotNil(t, res)
	res.Logger.Info().Msg("console only")
	assert.Contains(t, buf.String(), "console only")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	ctx := l.WithContext(context.Background())

	FromContext(ctx).Info().Msg("ctx")
	assert.Contains(t, buf.String(), "ctx")

	assert.Equal(t, zerolog.Disabled, FromContext(context.Background()).GetLevel())
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	ComponentLogger(zerolog.New(&buf), "engine").Info().Msg("x")
	assert.Contains(t, buf.String(), `"component":"engine"`)
}
