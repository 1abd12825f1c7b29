package diagnostic

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/msgs"
	"github.com/open-teleop/turtlebot3-test/pkg/runtime"
)

// DefaultSnapshotTimeout bounds how long a request waits for the executor.
const DefaultSnapshotTimeout = 2 * time.Second

// Executor is what the service needs from the runtime executor
type Executor interface {
	Do(ctx context.Context, fn func()) error
	Metrics() runtime.Metrics
	Topics() map[string]runtime.TopicInfo
	NodeName() string
	SourceID() string
}

// PoseSource exposes the node's last received pose
type PoseSource interface {
	LastPose() (msgs.Pose, bool)
}

// NodeDiagnostics is a point-in-time view of the running node
type NodeDiagnostics struct {
	Timestamp time.Time                    `json:"timestamp"`
	NodeName  string                       `json:"node_name"`
	SourceID  string                       `json:"source_id"`
	Uptime    string                       `json:"uptime"`
	Executor  runtime.Metrics              `json:"executor"`
	Topics    map[string]runtime.TopicInfo `json:"topics"`
	LastPose  *msgs.Pose                   `json:"last_pose"`
}

// DiagnosticService answers diagnostics requests for the node
type DiagnosticService struct {
	executor Executor
	node     PoseSource
	logger   customlog.Logger
	started  time.Time
	timeout  time.Duration

	mu   sync.RWMutex
	last NodeDiagnostics
}

// NewDiagnosticService creates a new diagnostic service instance
func NewDiagnosticService(executor Executor, node PoseSource, logger customlog.Logger) *DiagnosticService {
	return &DiagnosticService{
		executor: executor,
		node:     node,
		logger:   logger,
		started:  time.Now(),
		timeout:  DefaultSnapshotTimeout,
		last: NodeDiagnostics{
			NodeName: executor.NodeName(),
			SourceID: executor.SourceID(),
			Topics:   map[string]runtime.TopicInfo{},
		},
	}
}

// SetSnapshotTimeout overrides DefaultSnapshotTimeout.
func (s *DiagnosticService) SetSnapshotTimeout(d time.Duration) {
	s.timeout = d
}

// Snapshot collects diagnostics. The pose is read on the executor so it
// never races the node's callbacks.
func (s *DiagnosticService) Snapshot(ctx context.Context) (NodeDiagnostics, error) {
	var pose *msgs.Pose
	err := s.executor.Do(ctx, func() {
		if p, ok := s.node.LastPose(); ok {
			pose = &p
		}
	})
	if err != nil {
		return NodeDiagnostics{}, err
	}

	snap := NodeDiagnostics{
		Timestamp: time.Now(),
		NodeName:  s.executor.NodeName(),
		SourceID:  s.executor.SourceID(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Executor:  s.executor.Metrics(),
		Topics:    s.executor.Topics(),
		LastPose:  pose,
	}

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()
	return snap, nil
}

// LastSnapshot returns the most recent successful snapshot
func (s *DiagnosticService) LastSnapshot() NodeDiagnostics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// GetDiagnosticsHandler handles API requests for node diagnostics. When the
// executor cannot answer in time the last snapshot is returned with 503.
func (s *DiagnosticService) GetDiagnosticsHandler(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), s.timeout)
	defer cancel()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Warnf("Diagnostics snapshot failed: %v", err)
		status := fiber.StatusServiceUnavailable
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, runtime.ErrQueueFull) && !errors.Is(err, runtime.ErrClosed) {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(fiber.Map{
			"status":      "stale",
			"error":       err.Error(),
			"diagnostics": s.LastSnapshot(),
		})
	}

	return c.JSON(fiber.Map{
		"status":      "success",
		"diagnostics": snap,
	})
}

// GetTopicsHandler handles API requests for topic statistics
func (s *DiagnosticService) GetTopicsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "success",
		"topics": s.executor.Topics(),
	})
}
