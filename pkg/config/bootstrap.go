package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BootstrapFileName is the file LoadBootstrapConfig reads from the config directory.
const BootstrapFileName = "testnode_config.yaml"

// Transport kinds accepted in transport.kind
const (
	TransportZeroMQ   = "zeromq"
	TransportNATS     = "nats"
	TransportLoopback = "loopback"
)

// BootstrapConfig holds the process configuration loaded from testnode_config.yaml
type BootstrapConfig struct {
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Transport TransportConfig `yaml:"transport" json:"transport"`
	Executor  ExecutorConfig  `yaml:"executor" json:"executor"`
	Node      NodeConfig      `yaml:"node" json:"node"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// ServerConfig holds the diagnostics HTTP server settings
type ServerConfig struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	HTTPPort int  `yaml:"http_port" json:"http_port"`
}

// TransportConfig selects and configures the inter-process transport
type TransportConfig struct {
	Kind   string       `yaml:"kind" json:"kind"`
	ZeroMQ ZeroMQConfig `yaml:"zeromq" json:"zeromq"`
	NATS   NATSConfig   `yaml:"nats" json:"nats"`
}

// ZeroMQConfig holds ZeroMQ PUB/SUB settings
type ZeroMQConfig struct {
	PublishBindAddress        string   `yaml:"publish_bind_address" json:"publish_bind_address"`
	SubscribeConnectAddresses []string `yaml:"subscribe_connect_addresses" json:"subscribe_connect_addresses"`
	PollIntervalMs            int      `yaml:"poll_interval_ms" json:"poll_interval_ms"`
}

// NATSConfig holds NATS connection settings
type NATSConfig struct {
	URL             string `yaml:"url" json:"url"`
	Name            string `yaml:"name" json:"name"`
	SubjectPrefix   string `yaml:"subject_prefix,omitempty" json:"subject_prefix,omitempty"`
	MaxReconnects   int    `yaml:"max_reconnects" json:"max_reconnects"`
	ReconnectWaitMs int    `yaml:"reconnect_wait_ms" json:"reconnect_wait_ms"`
	TimeoutMs       int    `yaml:"timeout_ms" json:"timeout_ms"`
}

// ExecutorConfig holds executor settings
type ExecutorConfig struct {
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// DefaultBootstrapConfig returns the configuration used when no file is present.
func DefaultBootstrapConfig() *BootstrapConfig {
	return &BootstrapConfig{
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Enabled:  true,
			HTTPPort: 8080,
		},
		Transport: TransportConfig{
			Kind: TransportZeroMQ,
			ZeroMQ: ZeroMQConfig{
				PublishBindAddress:        "tcp://*:5556",
				SubscribeConnectAddresses: []string{"tcp://localhost:5557"},
				PollIntervalMs:            100,
			},
			NATS: NATSConfig{
				URL:             "nats://localhost:4222",
				Name:            "turtlebot3_test_node",
				MaxReconnects:   10,
				ReconnectWaitMs: 2000,
				TimeoutMs:       5000,
			},
		},
		Executor: ExecutorConfig{
			QueueSize: 100,
		},
		Node: DefaultNodeConfig(),
	}
}

// LoadBootstrapConfig loads testnode_config.yaml from configDir on top of the defaults.
// A missing file is reported as an error wrapping fs.ErrNotExist.
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFileName)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	return ParseBootstrapConfig(data)
}

// ParseBootstrapConfig parses YAML on top of DefaultBootstrapConfig and validates the result.
func ParseBootstrapConfig(data []byte) (*BootstrapConfig, error) {
	bootstrapCfg := DefaultBootstrapConfig()
	if err := yaml.Unmarshal(data, bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config: %w", err)
	}

	bootstrapCfg.Node.ensureTopicMappings()

	if err := bootstrapCfg.Validate(); err != nil {
		return nil, err
	}
	return bootstrapCfg, nil
}

// Validate checks required fields and value ranges.
func (c *BootstrapConfig) Validate() error {
	switch c.Transport.Kind {
	case TransportZeroMQ:
		if c.Transport.ZeroMQ.PublishBindAddress == "" {
			return fmt.Errorf("missing required field in bootstrap config: transport.zeromq.publish_bind_address")
		}
	case TransportNATS:
		if c.Transport.NATS.URL == "" {
			return fmt.Errorf("missing required field in bootstrap config: transport.nats.url")
		}
	case TransportLoopback:
	default:
		return fmt.Errorf("invalid transport.kind '%s' in bootstrap config", c.Transport.Kind)
	}

	if c.Executor.QueueSize <= 0 {
		return fmt.Errorf("executor.queue_size must be positive, got %d", c.Executor.QueueSize)
	}
	if c.Server.Enabled && (c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535) {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if c.Node.Name == "" {
		return fmt.Errorf("missing required field in bootstrap config: node.name")
	}
	if c.Node.VelocityPeriodMs <= 0 || c.Node.ScanPeriodMs <= 0 {
		return fmt.Errorf("node timer periods must be positive (velocity=%dms, scan=%dms)",
			c.Node.VelocityPeriodMs, c.Node.ScanPeriodMs)
	}
	for _, mapping := range c.Node.TopicMappings {
		if mapping.RosTopic == "" {
			return fmt.Errorf("topic mapping '%s' has no ros_topic", mapping.TopicID)
		}
	}
	return nil
}

// YAML renders the effective configuration.
func (c *BootstrapConfig) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
