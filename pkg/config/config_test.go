package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadBootstrapConfig(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContent := `
logging:
  level: "debug"
  log_path: "/var/log/testnode"
server:
  enabled: true
  http_port: 9090
transport:
  kind: "zeromq"
  zeromq:
    publish_bind_address: "tcp://*:6666"
    subscribe_connect_addresses:
      - "tcp://sim:7777"
      - "tcp://bridge:7778"
    poll_interval_ms: 50
executor:
  queue_size: 32
node:
  name: "tb3_fixture"
  velocity_period_ms: 200
  scan_period_ms: 2000
  topic_mappings:
    - topic_id: "cmd_vel"
      ros_topic: "/tb3/cmd_vel"
      message_type: "geometry_msgs/msg/Twist"
    - topic_id: "pose"
      ros_topic: "/tb3/pose"
      message_type: "turtlesim/msg/Pose"
      direction: "INBOUND"
      depth: 5
  defaults:
    direction: "OUTBOUND"
    depth: 10
`
	configPath := filepath.Join(tempDir, BootstrapFileName)
	if err := os.WriteFile(configPath, []byte(bootstrapContent), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	cfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level 'debug', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.LogPath != "/var/log/testnode" {
		t.Errorf("Expected log path '/var/log/testnode', got '%s'", cfg.Logging.LogPath)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected server http_port 9090, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Transport.ZeroMQ.PublishBindAddress != "tcp://*:6666" {
		t.Errorf("Expected publish_bind_address 'tcp://*:6666', got '%s'", cfg.Transport.ZeroMQ.PublishBindAddress)
	}
	if len(cfg.Transport.ZeroMQ.SubscribeConnectAddresses) != 2 {
		t.Errorf("Expected 2 subscribe addresses, got %v", cfg.Transport.ZeroMQ.SubscribeConnectAddresses)
	}
	if cfg.Transport.ZeroMQ.PollIntervalMs != 50 {
		t.Errorf("Expected poll_interval_ms 50, got %d", cfg.Transport.ZeroMQ.PollIntervalMs)
	}
	if cfg.Executor.QueueSize != 32 {
		t.Errorf("Expected queue_size 32, got %d", cfg.Executor.QueueSize)
	}
	if cfg.Node.Name != "tb3_fixture" {
		t.Errorf("Expected node name 'tb3_fixture', got '%s'", cfg.Node.Name)
	}
	if cfg.Node.VelocityPeriod() != 200*time.Millisecond {
		t.Errorf("Expected velocity period 200ms, got %v", cfg.Node.VelocityPeriod())
	}
	if cfg.Node.ScanPeriod() != 2*time.Second {
		t.Errorf("Expected scan period 2s, got %v", cfg.Node.ScanPeriod())
	}

	// Unspecified sections keep their defaults.
	if cfg.Transport.NATS.URL != "nats://localhost:4222" {
		t.Errorf("Expected default NATS url, got '%s'", cfg.Transport.NATS.URL)
	}

	// The scan mapping was omitted and must be filled in.
	scan, found := cfg.Node.GetTopicMapping(TopicIDScan)
	if !found {
		t.Fatalf("Expected scan topic mapping to be added from defaults")
	}
	if scan.RosTopic != "/robot_description" {
		t.Errorf("Expected default scan topic '/robot_description', got '%s'", scan.RosTopic)
	}

	pose, found := cfg.Node.GetTopicMapping(TopicIDPose)
	if !found {
		t.Fatalf("Expected pose topic mapping")
	}
	if pose.RosTopic != "/tb3/pose" || pose.Depth != 5 {
		t.Errorf("Unexpected pose mapping: %+v", pose)
	}
}

func TestLoadBootstrapConfigMissingFile(t *testing.T) {
	_, err := LoadBootstrapConfig(t.TempDir())
	if err == nil {
		t.Fatalf("Expected error for missing bootstrap config")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected error wrapping fs.ErrNotExist, got: %v", err)
	}
}

func TestParseBootstrapConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		errPart string
	}{
		{
			name: "missing zeromq bind address",
			content: `
transport:
  kind: "zeromq"
  zeromq:
    publish_bind_address: ""
`,
			errPart: "transport.zeromq.publish_bind_address",
		},
		{
			name: "unknown transport",
			content: `
transport:
  kind: "carrier-pigeon"
`,
			errPart: "invalid transport.kind",
		},
		{
			name: "missing nats url",
			content: `
transport:
  kind: "nats"
  nats:
    url: ""
`,
			errPart: "transport.nats.url",
		},
		{
			name: "zero queue",
			content: `
executor:
  queue_size: 0
`,
			errPart: "executor.queue_size",
		},
		{
			name: "bad port",
			content: `
server:
  enabled: true
  http_port: 70000
`,
			errPart: "server.http_port",
		},
		{
			name: "zero period",
			content: `
node:
  velocity_period_ms: 0
`,
			errPart: "timer periods",
		},
		{
			name:    "malformed yaml",
			content: "logging: [unterminated",
			errPart: "error parsing bootstrap config",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBootstrapConfig([]byte(tc.content))
			if err == nil {
				t.Fatalf("Expected error containing '%s', got nil", tc.errPart)
			}
			if !strings.Contains(err.Error(), tc.errPart) {
				t.Errorf("Expected error containing '%s', got: %v", tc.errPart, err)
			}
		})
	}
}

func TestDisabledServerSkipsPortCheck(t *testing.T) {
	cfg, err := ParseBootstrapConfig([]byte(`
server:
  enabled: false
  http_port: 0
transport:
  kind: "loopback"
`))
	if err != nil {
		t.Fatalf("ParseBootstrapConfig failed: %v", err)
	}
	if cfg.Server.Enabled {
		t.Errorf("Expected server disabled")
	}
}

func TestTopicMappingHelpers(t *testing.T) {
	node := DefaultNodeConfig()
	node.TopicMappings = append(node.TopicMappings, TopicMapping{
		// Missing direction and depth, will use defaults
		TopicID:     "odom",
		RosTopic:    "/odom",
		MessageType: "nav_msgs/msg/Odometry",
	})

	inbound := node.GetTopicMappingsByDirection(DirectionInbound)
	if len(inbound) != 1 {
		t.Fatalf("Expected 1 inbound topic, got %d", len(inbound))
	}
	if inbound[0].RosTopic != "/turtle1/pose" {
		t.Errorf("Expected /turtle1/pose, got %s", inbound[0].RosTopic)
	}

	outbound := node.GetTopicMappingsByDirection(DirectionOutbound)
	if len(outbound) != 3 {
		t.Errorf("Expected 3 outbound topics, got %d", len(outbound))
	}

	odom, found := node.GetTopicMapping("odom")
	if !found {
		t.Fatalf("Expected to find odom mapping")
	}
	if odom.Direction != DirectionOutbound {
		t.Errorf("Expected default OUTBOUND direction, got %s", odom.Direction)
	}
	if odom.Depth != 10 {
		t.Errorf("Expected default depth 10, got %d", odom.Depth)
	}

	if _, found := node.GetTopicMapping("nonexistent"); found {
		t.Errorf("Expected not to find nonexistent mapping")
	}
}

func TestBootstrapConfigYAMLRoundTrip(t *testing.T) {
	cfg := DefaultBootstrapConfig()
	data, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML failed: %v", err)
	}

	parsed, err := ParseBootstrapConfig(data)
	if err != nil {
		t.Fatalf("ParseBootstrapConfig failed: %v", err)
	}
	if parsed.Node.Name != cfg.Node.Name || parsed.Transport.Kind != cfg.Transport.Kind {
		t.Errorf("Round trip mismatch: %+v vs %+v", parsed, cfg)
	}
	if len(parsed.Node.TopicMappings) != 3 {
		t.Errorf("Expected 3 topic mappings, got %d", len(parsed.Node.TopicMappings))
	}
}
