package runtime

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/msgs"
)

const poseTopic = "/turtle1/pose"

func newTestExecutor(t *testing.T, opts *ExecutorOptions) (*Executor, *LoopbackTransport) {
	t.Helper()
	transport := NewLoopbackTransport()
	exec := NewExecutor(transport, customlog.NewNopLogger(), opts)
	t.Cleanup(func() {
		_ = exec.Close()
		_ = transport.Close()
	})
	return exec, transport
}

func TestExecutorRunsJobsInOrder(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, exec.enqueue(job{name: "ordered", fn: func() { order = append(order, i) }}))
	}
	for i := 0; i < 5; i++ {
		require.True(t, exec.SpinOnce(time.Second))
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.False(t, exec.SpinOnce(10*time.Millisecond))
	assert.Equal(t, int64(5), exec.Metrics().ExecutedCount)
}

func TestExecutorDropsWhenQueueFull(t *testing.T) {
	var buf bytes.Buffer
	logger := customlog.NewLogrusLoggerWithWriter("warn", &buf)
	exec := NewExecutor(NewLoopbackTransport(), logger, &ExecutorOptions{QueueSize: 2, NodeName: "drop_test"})
	defer exec.Close()

	noop := job{name: "noop", fn: func() {}}
	require.NoError(t, exec.enqueue(noop))
	require.NoError(t, exec.enqueue(noop))

	err := exec.enqueue(noop)
	assert.ErrorIs(t, err, ErrQueueFull)

	m := exec.Metrics()
	assert.Equal(t, int64(1), m.DroppedCount)
	assert.Equal(t, 2, m.QueueLength)
	assert.Equal(t, 2, m.QueueCapacity)
	assert.Contains(t, buf.String(), "Executor queue full")
	assert.Contains(t, buf.String(), "node=drop_test")
}

func TestLoopbackPublishReachesSubscription(t *testing.T) {
	exec, _ := newTestExecutor(t, &ExecutorOptions{NodeName: "loop"})

	var got msgs.Pose
	var gotInfo MessageInfo
	_, err := exec.CreateSubscription(poseTopic, msgs.PoseTypeName, func(payload []byte, info MessageInfo) {
		pose, err := msgs.UnmarshalPose(payload)
		require.NoError(t, err)
		got = pose
		gotInfo = info
	})
	require.NoError(t, err)

	pub, err := exec.CreatePublisher(poseTopic, msgs.PoseTypeName)
	require.NoError(t, err)
	assert.Equal(t, poseTopic, pub.Topic())

	sent := msgs.Pose{X: 1.5, Y: -2.25, Theta: 0.75}
	require.NoError(t, pub.Publish(sent))
	require.True(t, exec.SpinOnce(time.Second))

	assert.Equal(t, sent, got)
	assert.Equal(t, exec.SourceID(), gotInfo.SourceID)
	assert.Equal(t, uint64(1), gotInfo.Sequence)
	assert.Equal(t, msgs.PoseTypeName, gotInfo.TypeName)
	assert.False(t, gotInfo.Local)

	stats := exec.Topics()[poseTopic]
	// one publish and one receive
	assert.Equal(t, int64(2), stats.StatCount)
	assert.Equal(t, msgs.PoseTypeName, stats.MessageType)
}

func TestPublishRejectsWrongType(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	pub, err := exec.CreatePublisher("/turtle1/cmd_vel", msgs.TwistTypeName)
	require.NoError(t, err)

	err = pub.Publish(msgs.Pose{X: 1})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestConflictingTopicTypeRejected(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	_, err := exec.CreatePublisher(poseTopic, msgs.PoseTypeName)
	require.NoError(t, err)

	_, err = exec.CreateSubscription(poseTopic, msgs.TwistTypeName, func([]byte, MessageInfo) {})
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestReceivedTypeMismatchIsDropped(t *testing.T) {
	var buf bytes.Buffer
	transport := NewLoopbackTransport()
	exec := NewExecutor(transport, customlog.NewLogrusLoggerWithWriter("error", &buf), nil)
	defer exec.Close()

	called := false
	_, err := exec.CreateSubscription(poseTopic, msgs.PoseTypeName, func([]byte, MessageInfo) { called = true })
	require.NoError(t, err)

	payload, err := msgs.Twist{}.Marshal()
	require.NoError(t, err)
	require.NoError(t, transport.Publish(poseTopic, EncodeEnvelope(Envelope{
		Topic:    poseTopic,
		TypeName: msgs.TwistTypeName,
		SourceID: "foreign",
		Payload:  payload,
	})))

	assert.False(t, exec.SpinOnce(20*time.Millisecond))
	assert.False(t, called)
	assert.Contains(t, buf.String(), "message type mismatch")
}

func TestMalformedEnvelopeIsDropped(t *testing.T) {
	exec, transport := newTestExecutor(t, nil)

	_, err := exec.CreateSubscription(poseTopic, msgs.PoseTypeName, func([]byte, MessageInfo) {
		t.Error("handler must not run for a malformed envelope")
	})
	require.NoError(t, err)

	require.NoError(t, transport.Publish(poseTopic, []byte{1, 2, 3}))
	assert.False(t, exec.SpinOnce(20*time.Millisecond))
}

func TestInjectDeliversLocally(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	var info MessageInfo
	_, err := exec.CreateSubscription(poseTopic, msgs.PoseTypeName, func(_ []byte, i MessageInfo) { info = i })
	require.NoError(t, err)

	payload, err := msgs.Pose{X: 3}.Marshal()
	require.NoError(t, err)
	require.NoError(t, exec.Inject(poseTopic, payload))
	require.True(t, exec.SpinOnce(time.Second))

	assert.True(t, info.Local)
	assert.Equal(t, poseTopic, info.Topic)

	err = exec.Inject("/nobody/listens", payload)
	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestSpinFiresTimers(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	var ticks atomic.Int32
	tm, err := exec.CreateTimer(5*time.Millisecond, func() { ticks.Add(1) })
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, tm.Period())

	ctx, cancel := context.WithCancel(context.Background())
	spinErr := make(chan error, 1)
	go func() { spinErr <- exec.Spin(ctx) }()

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-spinErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Spin did not return after cancellation")
	}
}

func TestCancelledTimerSkipsQueuedExpiry(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	called := false
	tm, err := exec.CreateTimer(time.Hour, func() { called = true })
	require.NoError(t, err)

	tm.Cancel()
	tm.Cancel()
	require.NoError(t, exec.enqueue(job{name: "stale", fn: tm.(*timer).fire}))
	require.True(t, exec.SpinOnce(time.Second))
	assert.False(t, called)
}

func TestDoRunsOnSpinningExecutor(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = exec.Spin(ctx) }()

	value := 0
	require.NoError(t, exec.Do(ctx, func() { value = 42 }))
	assert.Equal(t, 42, value)

	// Do has run, so the executor is spinning.
	assert.ErrorIs(t, exec.Spin(ctx), ErrAlreadySpinning)
}

func TestDoHonoursContext(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Do(ctx, func() {})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSubscriptionsShareTransportSubscription(t *testing.T) {
	exec, transport := newTestExecutor(t, nil)

	first, err := exec.CreateSubscription(poseTopic, msgs.PoseTypeName, func([]byte, MessageInfo) {})
	require.NoError(t, err)
	second, err := exec.CreateSubscription(poseTopic, msgs.PoseTypeName, func([]byte, MessageInfo) {})
	require.NoError(t, err)
	assert.Equal(t, 1, transport.SubscriberCount(poseTopic))

	require.NoError(t, first.Close())
	assert.Equal(t, 1, transport.SubscriberCount(poseTopic))
	require.NoError(t, second.Close())
	assert.Equal(t, 0, transport.SubscriberCount(poseTopic))
	require.NoError(t, second.Close())
}

func TestCallbackPanicIsRecovered(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	require.NoError(t, exec.enqueue(job{name: "boom", fn: func() { panic("boom") }}))
	require.True(t, exec.SpinOnce(time.Second))

	m := exec.Metrics()
	assert.Equal(t, int64(1), m.PanicCount)
	assert.Equal(t, int64(1), m.ExecutedCount)
}

func TestClosedExecutorRejectsWork(t *testing.T) {
	exec, transport := newTestExecutor(t, nil)

	pub, err := exec.CreatePublisher("/turtle1/cmd_vel", msgs.TwistTypeName)
	require.NoError(t, err)
	_, err = exec.CreateSubscription(poseTopic, msgs.PoseTypeName, func([]byte, MessageInfo) {})
	require.NoError(t, err)

	require.NoError(t, exec.Close())
	require.NoError(t, exec.Close())

	assert.ErrorIs(t, pub.Publish(msgs.Twist{}), ErrClosed)
	assert.Equal(t, 0, transport.SubscriberCount(poseTopic))
	assert.ErrorIs(t, exec.Spin(context.Background()), ErrClosed)

	_, err = exec.CreateTimer(time.Second, func() {})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = exec.CreatePublisher("/x", msgs.PoseTypeName)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCreateTimerValidates(t *testing.T) {
	exec, _ := newTestExecutor(t, nil)

	_, err := exec.CreateTimer(0, func() {})
	assert.Error(t, err)
	_, err = exec.CreateTimer(time.Second, nil)
	assert.Error(t, err)
}

func TestClockOverride(t *testing.T) {
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	exec, _ := newTestExecutor(t, &ExecutorOptions{Clock: func() time.Time { return fixed }})
	assert.Equal(t, fixed, exec.Now())
}
