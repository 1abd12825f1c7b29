package natsbus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/open-teleop/turtlebot3-test/pkg/config"
	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/runtime"
)

// Conn is the part of a NATS connection the transport uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler nats.MsgHandler) (runtime.Unsubscribe, error)
	Drain() error
	Close()
}

// natsConn adapts *nats.Conn to Conn.
type natsConn struct {
	nc *nats.Conn
}

func (c natsConn) Publish(subject string, data []byte) error {
	return c.nc.Publish(subject, data)
}

func (c natsConn) Subscribe(subject string, handler nats.MsgHandler) (runtime.Unsubscribe, error) {
	sub, err := c.nc.Subscribe(subject, handler)
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

func (c natsConn) Drain() error { return c.nc.Drain() }
func (c natsConn) Close()       { c.nc.Close() }

// Subject maps a slash separated topic onto a dot separated NATS subject,
// e.g. /turtle1/cmd_vel becomes turtle1.cmd_vel.
func Subject(prefix, topic string) string {
	parts := make([]string, 0, 4)
	if prefix != "" {
		parts = append(parts, strings.Trim(prefix, "."))
	}
	for _, segment := range strings.Split(topic, "/") {
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return strings.Join(parts, ".")
}

// Transport publishes each topic on its own subject.
type Transport struct {
	conn   Conn
	prefix string
	logger customlog.Logger

	mu     sync.Mutex
	closed bool
}

var _ runtime.Transport = (*Transport)(nil)

// NewTransport connects to the configured server.
func NewTransport(ctx context.Context, cfg config.NATSConfig, logger customlog.Logger) (*Transport, error) {
	nc, err := Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewTransportWithConn(natsConn{nc: nc}, cfg.SubjectPrefix, logger), nil
}

// NewTransportWithConn wraps an existing connection.
func NewTransportWithConn(conn Conn, subjectPrefix string, logger customlog.Logger) *Transport {
	return &Transport{
		conn:   conn,
		prefix: subjectPrefix,
		logger: logger,
	}
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Transport) Publish(topic string, data []byte) error {
	if t.isClosed() {
		return runtime.ErrClosed
	}
	subject := Subject(t.prefix, topic)
	if err := t.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

func (t *Transport) Subscribe(topic string, deliver func([]byte)) (runtime.Unsubscribe, error) {
	if t.isClosed() {
		return nil, runtime.ErrClosed
	}
	subject := Subject(t.prefix, topic)
	unsub, err := t.conn.Subscribe(subject, func(m *nats.Msg) {
		deliver(m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	t.logger.Debugf("Subscribed %s to NATS subject %s", topic, subject)
	return unsub, nil
}

// Close drains the connection so in-flight messages complete, and forces a
// close if draining fails.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	if err := t.conn.Drain(); err != nil {
		t.conn.Close()
		return fmt.Errorf("error draining connection: %w", err)
	}
	return nil
}
