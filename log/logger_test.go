package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/sso/errors"
	"github.com/kochabx/sso/log/desensitize"
	"github.com/kochabx/sso/log/writer"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithLevel(zerolog.InfoLevel))

	logger.Debug().Msg("hidden")
	logger.Info().Str("tenant", "master").Msg("session saved")
	logger.Error().Err(errors.BadRequest("INVALID_TICKET", "ticket %s not recognized", "ST-1000-x")).Msg("validate")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "master", entry["tenant"])
	assert.Equal(t, "session saved", entry["message"])
}

func TestLoggerDesensitize(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithDesensitize(desensitize.NewHook(desensitize.BuiltinRules()...)))

	logger.Info().
		Str("ticket", "ST-1000-0123456789abcdef0123456789abcdef").
		Str("secret", "hunter2").
		Msg("issued")

	out := buf.String()
	assert.Contains(t, out, "ST-1000-***")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.NotContains(t, out, "hunter2")
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).Named("cache")
	l.Info().Msg("started")
	assert.Contains(t, buf.String(), `"component":"cache"`)
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFromConfig(Config{
		Output: "file",
		File: FileConfig{
			Dir:        dir,
			RotateMode: writer.RotateModeSize,
		},
	})
	require.NoError(t, err)
	logger.Info().Msg("file output")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, "sso.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "file output")

	_, err = NewFromConfig(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = NewFromConfig(Config{Output: "file", File: FileConfig{Dir: dir, RotateMode: "weekly"}})
	assert.Error(t, err)
}

func TestGlobal(t *testing.T) {
	var buf bytes.Buffer
	old := G
	defer SetGlobalLogger(old)

	SetGlobalLogger(NewWriter(&buf))
	SetGlobalLevel(zerolog.WarnLevel)
	Info().Msg("skip")
	Warn().Msg("keep")
	assert.NotContains(t, buf.String(), "skip")
	assert.Contains(t, buf.String(), "keep")
}
