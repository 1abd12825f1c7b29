package config

import (
	"time"
)

// Topic directions
const (
	DirectionOutbound = "OUTBOUND"
	DirectionInbound  = "INBOUND"
)

// Topic ids used by the test node
const (
	TopicIDCmdVel = "cmd_vel"
	TopicIDScan   = "scan"
	TopicIDPose   = "pose"
)

// NodeConfig holds the test node's registration settings
type NodeConfig struct {
	Name             string         `yaml:"name" json:"name"`
	VelocityPeriodMs int            `yaml:"velocity_period_ms" json:"velocity_period_ms"`
	ScanPeriodMs     int            `yaml:"scan_period_ms" json:"scan_period_ms"`
	TopicMappings    []TopicMapping `yaml:"topic_mappings" json:"topic_mappings"`
	Defaults         TopicDefaults  `yaml:"defaults" json:"defaults"`
}

// TopicMapping binds a node topic id to a middleware topic and message type
type TopicMapping struct {
	TopicID     string `yaml:"topic_id" json:"topic_id"`
	RosTopic    string `yaml:"ros_topic" json:"ros_topic"`
	MessageType string `yaml:"message_type" json:"message_type"`
	Direction   string `yaml:"direction,omitempty" json:"direction,omitempty"`
	Depth       int    `yaml:"depth,omitempty" json:"depth,omitempty"`
}

// TopicDefaults holds default values for topic mappings
type TopicDefaults struct {
	Direction string `yaml:"direction" json:"direction"`
	Depth     int    `yaml:"depth" json:"depth"`
}

// DefaultTopicMappings returns the three topics the test node registers.
func DefaultTopicMappings() []TopicMapping {
	return []TopicMapping{
		{
			TopicID:     TopicIDCmdVel,
			RosTopic:    "/turtle1/cmd_vel",
			MessageType: "geometry_msgs/msg/Twist",
			Direction:   DirectionOutbound,
		},
		{
			TopicID:     TopicIDScan,
			RosTopic:    "/robot_description",
			MessageType: "sensor_msgs/msg/LaserScan",
			Direction:   DirectionOutbound,
		},
		{
			TopicID:     TopicIDPose,
			RosTopic:    "/turtle1/pose",
			MessageType: "turtlesim/msg/Pose",
			Direction:   DirectionInbound,
		},
	}
}

// DefaultNodeConfig returns the node settings of the original fixture.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		Name:             "turtlebot3_test_node",
		VelocityPeriodMs: 100,
		ScanPeriodMs:     1000,
		TopicMappings:    DefaultTopicMappings(),
		Defaults: TopicDefaults{
			Direction: DirectionOutbound,
			Depth:     10,
		},
	}
}

// VelocityPeriod returns the velocity timer period.
func (c NodeConfig) VelocityPeriod() time.Duration {
	return time.Duration(c.VelocityPeriodMs) * time.Millisecond
}

// ScanPeriod returns the scan timer period.
func (c NodeConfig) ScanPeriod() time.Duration {
	return time.Duration(c.ScanPeriodMs) * time.Millisecond
}

// GetTopicMappingsByDirection returns topic mappings filtered by direction
func (c NodeConfig) GetTopicMappingsByDirection(direction string) []TopicMapping {
	var result []TopicMapping

	for _, mapping := range c.TopicMappings {
		mappingWithDefaults := applyDefaults(mapping, c.Defaults)
		if mappingWithDefaults.Direction == direction {
			result = append(result, mappingWithDefaults)
		}
	}

	return result
}

// GetTopicMapping returns the mapping for a topic id with defaults applied
func (c NodeConfig) GetTopicMapping(topicID string) (TopicMapping, bool) {
	for _, mapping := range c.TopicMappings {
		if mapping.TopicID == topicID {
			return applyDefaults(mapping, c.Defaults), true
		}
	}

	return TopicMapping{}, false
}

// ensureTopicMappings adds any of the node's topics missing from the file.
func (c *NodeConfig) ensureTopicMappings() {
	for _, def := range DefaultTopicMappings() {
		if _, ok := c.GetTopicMapping(def.TopicID); !ok {
			c.TopicMappings = append(c.TopicMappings, def)
		}
	}
}

// applyDefaults merges default values into a topic mapping where fields are empty
func applyDefaults(mapping TopicMapping, defaults TopicDefaults) TopicMapping {
	result := mapping

	if result.Direction == "" {
		result.Direction = defaults.Direction
	}

	if result.Depth == 0 {
		result.Depth = defaults.Depth
	}

	return result
}
