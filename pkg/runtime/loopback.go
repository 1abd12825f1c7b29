package runtime

import (
	"sync"
)

// LoopbackTransport delivers publications to subscribers in the same
// process. Delivery is synchronous on the publishing goroutine.
type LoopbackTransport struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func([]byte)
	closed bool
}

var _ Transport = (*LoopbackTransport)(nil)

func NewLoopbackTransport() *LoopbackTransport {
	return &LoopbackTransport{
		subs: make(map[string]map[uint64]func([]byte)),
	}
}

func (l *LoopbackTransport) Publish(topic string, data []byte) error {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return ErrClosed
	}
	deliverers := make([]func([]byte), 0, len(l.subs[topic]))
	for _, deliver := range l.subs[topic] {
		deliverers = append(deliverers, deliver)
	}
	l.mu.RUnlock()

	for _, deliver := range deliverers {
		deliver(data)
	}
	return nil
}

func (l *LoopbackTransport) Subscribe(topic string, deliver func([]byte)) (Unsubscribe, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}

	l.nextID++
	id := l.nextID
	if l.subs[topic] == nil {
		l.subs[topic] = make(map[uint64]func([]byte))
	}
	l.subs[topic][id] = deliver

	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs[topic], id)
		if len(l.subs[topic]) == 0 {
			delete(l.subs, topic)
		}
		return nil
	}, nil
}

// SubscriberCount reports how many deliverers are attached to topic.
func (l *LoopbackTransport) SubscriberCount(topic string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs[topic])
}

func (l *LoopbackTransport) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.subs = make(map[string]map[uint64]func([]byte))
	return nil
}
