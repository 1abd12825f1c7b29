package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/open-teleop/turtlebot3-test/pkg/config"
	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/msgs"
)

const DefaultQueueSize = 100

// ExecutorOptions tunes an Executor. The zero value is usable.
type ExecutorOptions struct {
	QueueSize int
	NodeName  string
	// Clock overrides time.Now for stamps and Runtime.Now.
	Clock func() time.Time
}

type job struct {
	name string
	fn   func()
}

// Executor is a single-threaded cooperative scheduler. Timer expiries,
// inbound messages and Do calls become jobs on one FIFO queue which Spin
// runs to completion, one at a time.
type Executor struct {
	transport Transport
	logger    customlog.Logger
	nodeName  string
	sourceID  string
	now       func() time.Time

	jobs     chan job
	done     chan struct{}
	registry *TopicRegistry
	metrics  *executorMetrics

	mu            sync.Mutex
	closed        bool
	spinCtx       context.Context
	timers        map[*timer]struct{}
	publishers    map[*publisher]struct{}
	subscriptions map[string][]*subscription
	transportSubs map[string]Unsubscribe
}

var _ Runtime = (*Executor)(nil)

// NewExecutor creates an executor that publishes and subscribes through transport.
func NewExecutor(transport Transport, logger customlog.Logger, opts *ExecutorOptions) *Executor {
	if opts == nil {
		opts = &ExecutorOptions{}
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	sourceID := uuid.NewString()
	logger = logger.WithField("node", opts.NodeName)

	return &Executor{
		transport:     transport,
		logger:        logger,
		nodeName:      opts.NodeName,
		sourceID:      sourceID,
		now:           clock,
		jobs:          make(chan job, queueSize),
		done:          make(chan struct{}),
		registry:      NewTopicRegistry(logger),
		metrics:       &executorMetrics{},
		timers:        make(map[*timer]struct{}),
		publishers:    make(map[*publisher]struct{}),
		subscriptions: make(map[string][]*subscription),
		transportSubs: make(map[string]Unsubscribe),
	}
}

// NodeName returns the name the executor was created for.
func (e *Executor) NodeName() string { return e.nodeName }

// SourceID identifies this executor in every envelope it publishes.
func (e *Executor) SourceID() string { return e.sourceID }

func (e *Executor) Now() time.Time { return e.now() }

// Registry exposes the topic registry, e.g. to seed it from configuration.
func (e *Executor) Registry() *TopicRegistry { return e.registry }

// Topics returns per-topic statistics.
func (e *Executor) Topics() map[string]TopicInfo { return e.registry.GetTopicStats() }

// Metrics returns a snapshot of job counters and callback durations.
func (e *Executor) Metrics() Metrics {
	m := e.metrics.snapshot()
	m.QueueLength = len(e.jobs)
	m.QueueCapacity = cap(e.jobs)
	return m
}

// LoadTopics seeds the topic registry from the node configuration.
func (e *Executor) LoadTopics(cfg config.NodeConfig) {
	e.registry.LoadFromConfig(cfg)
}

func (e *Executor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Spin starts all timers and runs jobs until ctx is done or the executor is
// closed. Cancellation is the normal way to stop and returns nil.
func (e *Executor) Spin(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.spinCtx != nil {
		e.mu.Unlock()
		return ErrAlreadySpinning
	}
	e.spinCtx = ctx
	for t := range e.timers {
		t.start(ctx)
	}
	e.mu.Unlock()

	e.logger.Infof("Executor spinning (queue capacity %d)", cap(e.jobs))

	defer func() {
		e.mu.Lock()
		e.spinCtx = nil
		e.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.done:
			return nil
		case j := <-e.jobs:
			e.run(j)
		}
	}
}

// SpinOnce runs at most one queued job, waiting up to timeout for one to
// arrive. It reports whether a job ran. Timers are not started.
func (e *Executor) SpinOnce(timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case j := <-e.jobs:
		e.run(j)
		return true
	case <-e.done:
		return false
	case <-t.C:
		return false
	}
}

// Do runs fn on the executor goroutine and waits for it to finish.
func (e *Executor) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := e.enqueue(job{name: "do", fn: func() {
		defer close(finished)
		fn()
	}}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrClosed
	}
}

func (e *Executor) run(j job) {
	start := time.Now()
	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				e.logger.Errorf("Callback %s panicked: %v", j.name, r)
			}
		}()
		j.fn()
	}()
	e.metrics.recordExecuted(time.Since(start), panicked)
}

// enqueue never blocks. A full queue drops the job.
func (e *Executor) enqueue(j job) error {
	if e.isClosed() {
		return ErrClosed
	}

	select {
	case e.jobs <- j:
		return nil
	default:
		dropped := e.metrics.recordDropped()
		e.logger.WithField("job", j.name).Warnf("Executor queue full, dropped job (%d dropped so far)", dropped)
		return ErrQueueFull
	}
}

// CreatePublisher registers an outbound topic.
func (e *Executor) CreatePublisher(topic, typeName string) (Publisher, error) {
	if topic == "" || typeName == "" {
		return nil, errors.New("publisher needs a topic and a type")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if err := e.registry.Register(topic, typeName, config.DirectionOutbound); err != nil {
		return nil, err
	}

	p := &publisher{exec: e, topic: topic, typeName: typeName}
	e.publishers[p] = struct{}{}
	e.logger.Debugf("Created publisher on %s [%s]", topic, typeName)
	return p, nil
}

// CreateSubscription registers handler for topic. The transport subscription
// is shared by every handler on the same topic.
func (e *Executor) CreateSubscription(topic, typeName string, handler MessageHandler) (Subscription, error) {
	if topic == "" || typeName == "" {
		return nil, errors.New("subscription needs a topic and a type")
	}
	if handler == nil {
		return nil, errors.New("subscription needs a handler")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if err := e.registry.Register(topic, typeName, config.DirectionInbound); err != nil {
		return nil, err
	}

	if _, ok := e.transportSubs[topic]; !ok {
		unsub, err := e.transport.Subscribe(topic, func(data []byte) {
			e.receive(topic, data)
		})
		if err != nil {
			return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		e.transportSubs[topic] = unsub
	}

	s := &subscription{exec: e, topic: topic, typeName: typeName, handler: handler}
	e.subscriptions[topic] = append(e.subscriptions[topic], s)
	e.logger.Debugf("Created subscription on %s [%s]", topic, typeName)
	return s, nil
}

// CreateTimer registers a periodic callback. Timers tick only while the
// executor spins; a timer created during Spin starts immediately.
func (e *Executor) CreateTimer(period time.Duration, callback func()) (Timer, error) {
	if period <= 0 {
		return nil, fmt.Errorf("timer period must be positive, got %v", period)
	}
	if callback == nil {
		return nil, errors.New("timer needs a callback")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	t := &timer{exec: e, period: period, callback: callback, stop: make(chan struct{})}
	e.timers[t] = struct{}{}
	if e.spinCtx != nil {
		t.start(e.spinCtx)
	}
	return t, nil
}

// Inject delivers an encoded payload to the local subscriptions of topic
// without touching the transport.
func (e *Executor) Inject(topic string, payload []byte) error {
	if e.isClosed() {
		return ErrClosed
	}

	subs := e.subscriptionsFor(topic)
	if len(subs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSubscription, topic)
	}

	now := e.now()
	e.registry.UpdateTopicStats(topic, now.UnixNano())

	var errs []error
	for _, s := range subs {
		info := MessageInfo{
			Topic:     topic,
			TypeName:  s.typeName,
			SourceID:  e.sourceID,
			Timestamp: now,
			Local:     true,
		}
		if err := e.enqueue(s.deliveryJob(payload, info)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// receive runs on the transport's goroutine.
func (e *Executor) receive(topic string, data []byte) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		e.logger.Errorf("Dropping message on %s: %v", topic, err)
		return
	}
	if env.Topic != topic {
		e.logger.Warnf("Dropping envelope for %s delivered on %s", env.Topic, topic)
		return
	}

	subs := e.subscriptionsFor(topic)
	if len(subs) == 0 {
		return
	}
	e.registry.UpdateTopicStats(topic, env.TimestampNs)

	info := MessageInfo{
		Topic:     env.Topic,
		TypeName:  env.TypeName,
		SourceID:  env.SourceID,
		Sequence:  env.Sequence,
		Timestamp: time.Unix(0, env.TimestampNs),
	}
	for _, s := range subs {
		if s.typeName != env.TypeName {
			e.logger.Errorf("%v on %s: expected %s, got %s from %s",
				ErrTypeMismatch, topic, s.typeName, env.TypeName, env.SourceID)
			continue
		}
		// A full queue is already counted and logged by enqueue.
		_ = e.enqueue(s.deliveryJob(env.Payload, info))
	}
}

func (e *Executor) subscriptionsFor(topic string) []*subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*subscription(nil), e.subscriptions[topic]...)
}

func (e *Executor) removeSubscription(s *subscription) error {
	e.mu.Lock()
	subs := e.subscriptions[s.topic]
	for i, candidate := range subs {
		if candidate == s {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	var unsub Unsubscribe
	if len(subs) == 0 {
		delete(e.subscriptions, s.topic)
		unsub = e.transportSubs[s.topic]
		delete(e.transportSubs, s.topic)
	} else {
		e.subscriptions[s.topic] = subs
	}
	e.mu.Unlock()

	if unsub != nil {
		return unsub()
	}
	return nil
}

// Close cancels all timers and releases transport subscriptions. It does not
// close the transport itself. Pending jobs are discarded.
func (e *Executor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.done)

	timers := e.timers
	unsubs := e.transportSubs
	e.timers = make(map[*timer]struct{})
	e.transportSubs = make(map[string]Unsubscribe)
	e.subscriptions = make(map[string][]*subscription)
	for p := range e.publishers {
		p.closed.Store(true)
	}
	e.publishers = make(map[*publisher]struct{})
	e.mu.Unlock()

	for t := range timers {
		t.Cancel()
	}

	var errs []error
	for topic, unsub := range unsubs {
		if err := unsub(); err != nil {
			errs = append(errs, fmt.Errorf("unsubscribing %s: %w", topic, err))
		}
	}

	m := e.Metrics()
	e.logger.Infof("Executor metrics: executed=%d, dropped=%d, panics=%d, avg_time=%dµs, max_time=%dµs",
		m.ExecutedCount, m.DroppedCount, m.PanicCount, m.CallbackTimeAvg, m.CallbackTimeMax)

	return errors.Join(errs...)
}

type publisher struct {
	exec     *Executor
	topic    string
	typeName string
	seq      atomic.Uint64
	closed   atomic.Bool
}

func (p *publisher) Topic() string { return p.topic }

// Publish encodes msg, wraps it in an envelope and hands it to the transport.
func (p *publisher) Publish(msg msgs.Message) error {
	if p.closed.Load() || p.exec.isClosed() {
		return fmt.Errorf("publishing on %s: %w", p.topic, ErrClosed)
	}
	if msg.TypeName() != p.typeName {
		return fmt.Errorf("%w: %s expects %s, got %s", ErrTypeMismatch, p.topic, p.typeName, msg.TypeName())
	}

	payload, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("encoding %s for %s: %w", p.typeName, p.topic, err)
	}

	ts := p.exec.now().UnixNano()
	data := EncodeEnvelope(Envelope{
		Topic:       p.topic,
		TypeName:    p.typeName,
		SourceID:    p.exec.sourceID,
		Sequence:    p.seq.Add(1),
		TimestampNs: ts,
		Payload:     payload,
	})
	if err := p.exec.transport.Publish(p.topic, data); err != nil {
		return fmt.Errorf("publishing on %s: %w", p.topic, err)
	}
	p.exec.registry.UpdateTopicStats(p.topic, ts)
	return nil
}

func (p *publisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.exec.mu.Lock()
	delete(p.exec.publishers, p)
	p.exec.mu.Unlock()
	return nil
}

type subscription struct {
	exec     *Executor
	topic    string
	typeName string
	handler  MessageHandler
	closed   atomic.Bool
}

func (s *subscription) Topic() string { return s.topic }

func (s *subscription) deliveryJob(payload []byte, info MessageInfo) job {
	return job{
		name: "subscription " + s.topic,
		fn: func() {
			if s.closed.Load() {
				return
			}
			s.handler(payload, info)
		},
	}
}

func (s *subscription) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.exec.removeSubscription(s)
}

type timer struct {
	exec     *Executor
	period   time.Duration
	callback func()
	stop     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	running bool
}

func (t *timer) Period() time.Duration { return t.period }

// start launches the ticker goroutine unless one is already running.
// The goroutine only enqueues; the callback runs on the executor.
func (t *timer) start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	select {
	case <-t.stop:
		return
	default:
	}
	t.running = true

	go func() {
		ticker := time.NewTicker(t.period)
		defer ticker.Stop()
		defer func() {
			t.mu.Lock()
			t.running = false
			t.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			case <-ticker.C:
				_ = t.exec.enqueue(job{name: fmt.Sprintf("timer %v", t.period), fn: t.fire})
			}
		}
	}()
}

func (t *timer) fire() {
	select {
	case <-t.stop:
		return
	default:
	}
	t.callback()
}

// Cancel stops the timer. Expiries already queued are skipped.
func (t *timer) Cancel() {
	t.stopOnce.Do(func() { close(t.stop) })
	t.exec.mu.Lock()
	delete(t.exec.timers, t)
	t.exec.mu.Unlock()
}
