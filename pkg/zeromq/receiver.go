package zeromq

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"

	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
)

// MessageReceiver reads topic-framed messages from a SUB socket and hands
// each payload to the deliverers registered for its topic.
//
// The socket is owned by the receive goroutine once Start is called; it is
// closed there when the loop exits.
type MessageReceiver struct {
	socket       *zmq4.Socket
	poller       *zmq4.Poller
	pollInterval time.Duration
	logger       customlog.Logger
	running      atomic.Bool
	wg           sync.WaitGroup

	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]func([]byte)
}

func newMessageReceiver(ctx *zmq4.Context, addresses []string, pollInterval time.Duration, logger customlog.Logger) (*MessageReceiver, error) {
	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	// Topics are filtered in Go so a subscription never needs to touch the socket.
	if err := socket.SetSubscribe(""); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	for _, address := range addresses {
		if err := socket.Connect(address); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
		}
		logger.Infof("MessageReceiver connected to %s", address)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	return &MessageReceiver{
		socket:       socket,
		poller:       poller,
		pollInterval: pollInterval,
		logger:       logger,
		subs:         make(map[string]map[uint64]func([]byte)),
	}, nil
}

// Start begins the receive loop
func (r *MessageReceiver) Start() {
	if r.running.Swap(true) {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.socket.Close()
		r.logger.Debugf("MessageReceiver started")

		for r.running.Load() {
			// Poll with a timeout so Stop is noticed
			sockets, err := r.poller.Poll(r.pollInterval)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error polling socket: %v", err)
				}
				continue
			}
			if len(sockets) == 0 {
				continue
			}

			frames, err := r.socket.RecvMessageBytes(0)
			if err != nil {
				if r.running.Load() {
					r.logger.Errorf("Error receiving message: %v", err)
				}
				continue
			}
			if len(frames) != 2 {
				r.logger.Warnf("Dropping message with %d frames, expected topic and payload", len(frames))
				continue
			}

			r.dispatch(string(frames[0]), frames[1])
		}

		r.logger.Debugf("MessageReceiver stopped")
	}()
}

func (r *MessageReceiver) dispatch(topic string, data []byte) {
	r.mu.RLock()
	deliverers := make([]func([]byte), 0, len(r.subs[topic]))
	for _, deliver := range r.subs[topic] {
		deliverers = append(deliverers, deliver)
	}
	r.mu.RUnlock()

	for _, deliver := range deliverers {
		deliver(data)
	}
}

func (r *MessageReceiver) subscribe(topic string, deliver func([]byte)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	if r.subs[topic] == nil {
		r.subs[topic] = make(map[uint64]func([]byte))
	}
	r.subs[topic][id] = deliver

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs[topic], id)
		if len(r.subs[topic]) == 0 {
			delete(r.subs, topic)
		}
	}
}

// Stop halts the receive loop and waits for it to close the socket.
// A receiver that was never started closes its socket here.
func (r *MessageReceiver) Stop() {
	if !r.running.Swap(false) {
		if r.socket != nil {
			r.socket.Close()
			r.socket = nil
		}
		return
	}
	r.wg.Wait()
	r.socket = nil
}
