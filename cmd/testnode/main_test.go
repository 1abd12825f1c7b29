package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/turtlebot3-test/pkg/config"
	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/runtime"
)

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	cfg, found, err := loadConfig(t.TempDir())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, config.DefaultBootstrapConfig(), cfg)
}

func TestLoadConfigReportsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.BootstrapFileName), []byte("executor: [1"), 0644))

	_, _, err := loadConfig(dir)
	assert.Error(t, err)
}

func TestNodeOptionsFromConfig(t *testing.T) {
	node := config.DefaultNodeConfig()
	node.VelocityPeriodMs = 250
	node.TopicMappings[0].RosTopic = "/tb3/cmd_vel"

	opts := nodeOptions(node)
	assert.Equal(t, "/tb3/cmd_vel", opts.VelocityTopic)
	assert.Equal(t, "/robot_description", opts.ScanTopic)
	assert.Equal(t, "/turtle1/pose", opts.PoseTopic)
	assert.Equal(t, 250*time.Millisecond, opts.VelocityPeriod)
	assert.Equal(t, time.Second, opts.ScanPeriod)
}

func TestNewTransport(t *testing.T) {
	logger := customlog.NewNopLogger()

	tr, err := newTransport(context.Background(), config.TransportConfig{Kind: config.TransportLoopback}, logger)
	require.NoError(t, err)
	assert.IsType(t, &runtime.LoopbackTransport{}, tr)
	require.NoError(t, tr.Close())

	_, err = newTransport(context.Background(), config.TransportConfig{Kind: "smoke-signals"}, logger)
	assert.ErrorIs(t, err, ErrUnknownTransport)
}
