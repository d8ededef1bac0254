package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/recipebox/webapp/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONAtConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithSyncer(config.LogConfig{Level: "warn", Format: "json"}, false, zapcore.AddSync(&buf))

	logger.Info("hidden")
	logger.Warn("recipe missing", zap.Int("recipe_id", 4))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "recipe missing", entry["msg"])
	assert.EqualValues(t, 4, entry["recipe_id"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithSyncer(config.LogConfig{Level: "loud", Format: "console"}, true, zapcore.AddSync(&buf))

	logger.Debug("hidden")
	logger.Info("visible")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}
