// Package testnode implements the TurtleBot3 test node: it publishes a
// velocity command and a synthetic laser scan on fixed timers and tracks
// the most recent pose it receives.
package testnode

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/msgs"
	"github.com/open-teleop/turtlebot3-test/pkg/runtime"
)

const (
	NodeName = "turtlebot3_test_node"

	DefaultVelocityTopic = "/turtle1/cmd_vel"
	DefaultScanTopic     = "/robot_description"
	DefaultPoseTopic     = "/turtle1/pose"

	QueueDepth = 10

	DefaultVelocityPeriod = 100 * time.Millisecond
	DefaultScanPeriod     = time.Second
)

// Velocity command policy
const (
	cruiseLinear  = 0.2
	cruiseAngular = 0.3
	// Beyond farDistance from the origin the node slows down and turns harder.
	farDistance = 8.0
	farLinear   = 0.1
	farAngular  = 0.5
)

// Synthetic scan geometry
const (
	ScanFrameID  = "base_scan"
	ScanSamples  = 360
	ScanRangeMin = 0.120
	ScanRangeMax = 3.5
	ScanAngleMin = 0.0
	ScanAngleMax = 2 * math.Pi
)

// Options configures a TestNode. Zero fields take the defaults above.
type Options struct {
	VelocityTopic  string
	ScanTopic      string
	PoseTopic      string
	VelocityPeriod time.Duration
	ScanPeriod     time.Duration
	// Rand is the source of scan samples. Seed it for reproducible scans.
	Rand *rand.Rand
	// Clock stamps scans. Defaults to the runtime clock.
	Clock func() time.Time
}

// TestNode owns the node's callbacks and its only state, the last pose.
// Every method is meant to run on the runtime's executor, so nothing here
// is locked.
type TestNode struct {
	logger customlog.Logger
	opts   Options

	velocityPub runtime.Publisher
	scanPub     runtime.Publisher
	poseSub     runtime.Subscription
	timers      []runtime.Timer

	lastPose  *msgs.Pose
	destroyed bool
}

// NewTestNode registers the node's publishers, subscription and timers with
// rt. On any registration failure everything created so far is released.
func NewTestNode(rt runtime.Runtime, logger customlog.Logger, opts *Options) (*TestNode, error) {
	o := withDefaults(rt, opts)
	n := &TestNode{
		logger: logger,
		opts:   o,
	}

	if err := n.register(rt); err != nil {
		n.Destroy()
		return nil, err
	}

	n.logger.Infof("TurtleBot3 test node has been started")
	return n, nil
}

func withDefaults(rt runtime.Runtime, opts *Options) Options {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.VelocityTopic == "" {
		o.VelocityTopic = DefaultVelocityTopic
	}
	if o.ScanTopic == "" {
		o.ScanTopic = DefaultScanTopic
	}
	if o.PoseTopic == "" {
		o.PoseTopic = DefaultPoseTopic
	}
	if o.VelocityPeriod <= 0 {
		o.VelocityPeriod = DefaultVelocityPeriod
	}
	if o.ScanPeriod <= 0 {
		o.ScanPeriod = DefaultScanPeriod
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Clock == nil {
		o.Clock = rt.Now
	}
	return o
}

func (n *TestNode) register(rt runtime.Runtime) error {
	var err error

	n.velocityPub, err = rt.CreatePublisher(n.opts.VelocityTopic, msgs.TwistTypeName)
	if err != nil {
		return fmt.Errorf("creating publisher %s: %w", n.opts.VelocityTopic, err)
	}
	n.scanPub, err = rt.CreatePublisher(n.opts.ScanTopic, msgs.LaserScanTypeName)
	if err != nil {
		return fmt.Errorf("creating publisher %s: %w", n.opts.ScanTopic, err)
	}
	n.poseSub, err = rt.CreateSubscription(n.opts.PoseTopic, msgs.PoseTypeName, n.handlePose)
	if err != nil {
		return fmt.Errorf("creating subscription %s: %w", n.opts.PoseTopic, err)
	}

	velocityTimer, err := rt.CreateTimer(n.opts.VelocityPeriod, n.EmitVelocityCommand)
	if err != nil {
		return fmt.Errorf("creating velocity timer: %w", err)
	}
	n.timers = append(n.timers, velocityTimer)

	scanTimer, err := rt.CreateTimer(n.opts.ScanPeriod, n.EmitSyntheticScan)
	if err != nil {
		return fmt.Errorf("creating scan timer: %w", err)
	}
	n.timers = append(n.timers, scanTimer)

	return nil
}

func (n *TestNode) handlePose(payload []byte, info runtime.MessageInfo) {
	pose, err := msgs.UnmarshalPose(payload)
	if err != nil {
		n.logger.Errorf("Dropping pose from %s: %v", info.SourceID, err)
		return
	}
	n.OnPoseReceived(pose)
}

// OnPoseReceived stores pose as the last known pose. There is no validation.
func (n *TestNode) OnPoseReceived(pose msgs.Pose) {
	n.lastPose = &pose
	n.logger.Infof("Received pose: x=%.2f, y=%.2f, theta=%.2f", pose.X, pose.Y, pose.Theta)
}

// LastPose returns the last received pose, if any.
func (n *TestNode) LastPose() (msgs.Pose, bool) {
	if n.lastPose == nil {
		return msgs.Pose{}, false
	}
	return *n.lastPose, true
}

// VelocityCommand computes the command to publish. Far from the origin it
// only changes the turn rate; it does not steer toward the origin.
func (n *TestNode) VelocityCommand() msgs.Twist {
	cmd := msgs.Twist{
		Linear:  msgs.Vector3{X: cruiseLinear},
		Angular: msgs.Vector3{Z: cruiseAngular},
	}

	if n.lastPose != nil {
		distance := math.Sqrt(n.lastPose.X*n.lastPose.X + n.lastPose.Y*n.lastPose.Y)
		if distance > farDistance {
			cmd.Linear.X = farLinear
			cmd.Angular.Z = farAngular
		}
	}
	return cmd
}

// EmitVelocityCommand publishes one velocity command. Publish errors are
// logged and not retried.
func (n *TestNode) EmitVelocityCommand() {
	if n.destroyed {
		return
	}
	cmd := n.VelocityCommand()
	if err := n.velocityPub.Publish(cmd); err != nil {
		n.logger.Errorf("Failed to publish cmd_vel: %v", err)
		return
	}
	n.logger.Debugf("Published cmd_vel: linear.x=%v, angular.z=%v", cmd.Linear.X, cmd.Angular.Z)
}

// SyntheticScan builds a fresh scan of independent uniform samples.
func (n *TestNode) SyntheticScan() msgs.LaserScan {
	scan := msgs.LaserScan{
		Header: msgs.Header{
			Stamp:   msgs.NewTime(n.opts.Clock()),
			FrameID: ScanFrameID,
		},
		AngleMin:       ScanAngleMin,
		AngleMax:       ScanAngleMax,
		AngleIncrement: (2 * math.Pi) / ScanSamples,
		TimeIncrement:  0,
		ScanTime:       0,
		RangeMin:       ScanRangeMin,
		RangeMax:       ScanRangeMax,
		Ranges:         make([]float64, ScanSamples),
		Intensities:    []float64{},
	}

	for i := range scan.Ranges {
		scan.Ranges[i] = scan.RangeMin + (scan.RangeMax-scan.RangeMin)*n.opts.Rand.Float64()
	}
	return scan
}

// EmitSyntheticScan publishes one synthetic scan.
func (n *TestNode) EmitSyntheticScan() {
	if n.destroyed {
		return
	}
	if err := n.scanPub.Publish(n.SyntheticScan()); err != nil {
		n.logger.Errorf("Failed to publish laser scan: %v", err)
		return
	}
	n.logger.Debugf("Published laser scan data")
}

// Destroy cancels the timers, releases the subscription and publishers and
// forgets the last pose. It is safe to call more than once.
func (n *TestNode) Destroy() error {
	if n.destroyed {
		return nil
	}
	n.destroyed = true

	for _, t := range n.timers {
		t.Cancel()
	}
	n.timers = nil

	var errs []error
	if n.poseSub != nil {
		errs = append(errs, n.poseSub.Close())
	}
	for _, p := range []runtime.Publisher{n.velocityPub, n.scanPub} {
		if p != nil {
			errs = append(errs, p.Close())
		}
	}
	n.lastPose = nil

	return errors.Join(errs...)
}
