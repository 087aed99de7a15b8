package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newWithStdout(Options{Level: "warn"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", zap.Int64("product_id", 8))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, 8, entry["product_id"])
}

func TestNewTeesIntoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.log")
	var buf bytes.Buffer
	logger, err := newWithStdout(Options{Level: "info", File: path}, &buf)
	require.NoError(t, err)

	logger.Info("checkout complete")
	_ = logger.Sync()

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "checkout complete")
	assert.Contains(t, buf.String(), "checkout complete")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	require.Error(t, err)
}
