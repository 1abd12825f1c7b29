package runtime

import (
	"fmt"
	"sort"
	"sync"

	"github.com/open-teleop/turtlebot3-test/pkg/config"
	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
)

// TopicInfo holds metadata and counters for a topic
type TopicInfo struct {
	Topic       string `json:"topic"`
	MessageType string `json:"type"`
	Direction   string `json:"direction"`
	Depth       int    `json:"depth"`
	StatCount   int64  `json:"count"`
	// LastTimestamp is the envelope timestamp of the latest message, in ns.
	LastTimestamp int64 `json:"last_timestamp_ns"`
}

// TopicRegistry maintains information about topics
type TopicRegistry struct {
	logger customlog.Logger
	topics map[string]*TopicInfo
	mu     sync.RWMutex
}

// NewTopicRegistry creates a new topic registry
func NewTopicRegistry(logger customlog.Logger) *TopicRegistry {
	return &TopicRegistry{
		logger: logger,
		topics: make(map[string]*TopicInfo),
	}
}

// LoadFromConfig seeds the registry from the node's topic mappings.
// Counters of topics already present are kept.
func (r *TopicRegistry) LoadFromConfig(cfg config.NodeConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mapping := range cfg.TopicMappings {
		mapping, _ = cfg.GetTopicMapping(mapping.TopicID)
		info, exists := r.topics[mapping.RosTopic]
		if !exists {
			info = &TopicInfo{Topic: mapping.RosTopic}
			r.topics[mapping.RosTopic] = info
		}
		info.MessageType = mapping.MessageType
		info.Direction = mapping.Direction
		info.Depth = mapping.Depth
	}

	r.logger.Infof("Loaded %d topics into registry", len(r.topics))
}

// Register records a topic with its message type. Registering a known topic
// with a different type fails.
func (r *TopicRegistry) Register(topic, messageType, direction string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.topics[topic]
	if !exists {
		r.topics[topic] = &TopicInfo{
			Topic:       topic,
			MessageType: messageType,
			Direction:   direction,
		}
		return nil
	}

	if info.MessageType != "" && info.MessageType != messageType {
		return fmt.Errorf("%w: topic %s is %s, not %s", ErrTypeMismatch, topic, info.MessageType, messageType)
	}
	info.MessageType = messageType
	if info.Direction == "" {
		info.Direction = direction
	}
	return nil
}

// GetTopicInfo gets a copy of the information for a topic
func (r *TopicRegistry) GetTopicInfo(topic string) (TopicInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return TopicInfo{}, false
	}
	return *info, true
}

// UpdateTopicStats counts one message on a topic
func (r *TopicRegistry) UpdateTopicStats(topic string, timestamp int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.topics[topic]
	if !exists {
		info = &TopicInfo{Topic: topic}
		r.topics[topic] = info
	}

	info.StatCount++
	info.LastTimestamp = timestamp
}

// GetMessageType gets the message type for a topic
func (r *TopicRegistry) GetMessageType(topic string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return "", false
	}
	return info.MessageType, true
}

// GetAllTopics returns the registered topic names in sorted order
func (r *TopicRegistry) GetAllTopics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	return topics
}

// GetTopicStats returns a snapshot of every topic keyed by name
func (r *TopicRegistry) GetTopicStats() map[string]TopicInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]TopicInfo, len(r.topics))
	for topic, info := range r.topics {
		stats[topic] = *info
	}
	return stats
}
