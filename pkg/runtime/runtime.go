// Package runtime is the middleware runtime a node registers with: typed
// publishers and subscriptions over a pluggable transport, periodic timers,
// and a single-threaded executor that runs every callback.
package runtime

import (
	"errors"
	"time"

	"github.com/open-teleop/turtlebot3-test/pkg/msgs"
)

var (
	ErrClosed          = errors.New("runtime closed")
	ErrTypeMismatch    = errors.New("message type mismatch")
	ErrQueueFull       = errors.New("executor queue full")
	ErrNoSubscription  = errors.New("no subscription for topic")
	ErrAlreadySpinning = errors.New("executor already spinning")
)

// Runtime is the set of capabilities a node is given at construction.
type Runtime interface {
	CreatePublisher(topic, typeName string) (Publisher, error)
	CreateSubscription(topic, typeName string, handler MessageHandler) (Subscription, error)
	CreateTimer(period time.Duration, callback func()) (Timer, error)
	Now() time.Time
}

type Publisher interface {
	Topic() string
	Publish(msg msgs.Message) error
	Close() error
}

type Subscription interface {
	Topic() string
	Close() error
}

type Timer interface {
	Period() time.Duration
	Cancel()
}

// MessageInfo describes where a delivered payload came from.
type MessageInfo struct {
	Topic     string
	TypeName  string
	SourceID  string
	Sequence  uint64
	Timestamp time.Time
	// Local is set for payloads injected in-process rather than received
	// from the transport.
	Local bool
}

// MessageHandler receives the encoded message payload. It always runs on the
// executor goroutine.
type MessageHandler func(payload []byte, info MessageInfo)

// Unsubscribe detaches a transport subscription.
type Unsubscribe func() error

// Transport moves encoded envelopes between processes. deliver may be called
// from any goroutine and must not block.
type Transport interface {
	Publish(topic string, data []byte) error
	Subscribe(topic string, deliver func(data []byte)) (Unsubscribe, error)
	Close() error
}
