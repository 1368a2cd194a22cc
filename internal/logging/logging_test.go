package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeWritesJSONToBuffer(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New().FromBuffer(&buf).Level("debug").Make()
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug().Str("family", "document").Msg("access denied")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "document", line["family"])
	assert.Equal(t, "access denied", line["message"])
	assert.Contains(t, line, "time")
}

func TestMakeFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New().FromBuffer(&buf).Level("warn").Make()
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestMakeUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New().FromBuffer(&buf).Level("chatty").Make()
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestMakeFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collabd.log")
	logger, err := New().FromPath(path).Make()
	require.NoError(t, err)

	logger.Info().Msg("to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
