package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleFormatterOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithWriter("debug", &buf)

	logger.WithField("topic", "/turtle1/pose").WithField("count", 3).Warnf("dropped %d jobs", 2)

	line := buf.String()
	assert.Contains(t, line, "[WAR] dropped 2 jobs count=3 topic=/turtle1/pose")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithWriter("info", &buf)

	logger.Debugf("hidden")
	logger.Infof("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[INF] shown")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLoggerWithWriter("chatty", &buf)

	logger.Debugf("hidden")
	logger.Infof("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogrusLoggerWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := NewLogrusLogger("info", dir)
	require.NoError(t, err)
	logger.Infof("node started")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INF] node started")
}
