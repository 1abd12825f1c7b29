// Package zeromq carries runtime envelopes over ZeroMQ PUB/SUB sockets.
package zeromq

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-teleop/turtlebot3-test/pkg/config"
	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/runtime"
)

var ErrTransportClosed = fmt.Errorf("zeromq transport: %w", runtime.ErrClosed)

const defaultPollInterval = 100 * time.Millisecond

// Transport publishes on one bound PUB socket and receives on one SUB socket
// connected to every configured peer.
type Transport struct {
	ctx      *zmq4.Context
	sender   *MessageSender
	receiver *MessageReceiver
	logger   customlog.Logger

	mu     sync.Mutex
	closed bool
}

var _ runtime.Transport = (*Transport)(nil)

// NewTransport creates the sockets and starts receiving.
func NewTransport(cfg config.ZeroMQConfig, logger customlog.Logger) (*Transport, error) {
	if cfg.PublishBindAddress == "" {
		return nil, errors.New("zeromq transport needs a publish bind address")
	}
	pollInterval := time.Duration(cfg.PollIntervalMs) * time.Millisecond
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	sender, err := newMessageSender(ctx, cfg.PublishBindAddress, logger)
	if err != nil {
		ctx.Term()
		return nil, err
	}

	receiver, err := newMessageReceiver(ctx, cfg.SubscribeConnectAddresses, pollInterval, logger)
	if err != nil {
		sender.Close()
		ctx.Term()
		return nil, err
	}
	receiver.Start()

	logger.Infof("ZeroMQ transport ready (pub=%s, sub=%v)", cfg.PublishBindAddress, cfg.SubscribeConnectAddresses)

	return &Transport{
		ctx:      ctx,
		sender:   sender,
		receiver: receiver,
		logger:   logger,
	}, nil
}

func (t *Transport) Publish(topic string, data []byte) error {
	return t.sender.PublishMessage(topic, data)
}

func (t *Transport) Subscribe(topic string, deliver func([]byte)) (runtime.Unsubscribe, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}

	remove := t.receiver.subscribe(topic, deliver)
	return func() error {
		remove()
		return nil
	}, nil
}

// Close stops the receive loop, closes both sockets and terminates the context.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.logger.Infof("Stopping ZeroMQ transport")
	t.receiver.Stop()
	t.sender.Close()

	if err := t.ctx.Term(); err != nil {
		return fmt.Errorf("failed to terminate ZMQ context: %w", err)
	}
	t.logger.Infof("ZeroMQ transport stopped")
	return nil
}
