package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-teleop/turtlebot3-test/pkg/config"
	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/natsbus"
	"github.com/open-teleop/turtlebot3-test/pkg/runtime"
	"github.com/open-teleop/turtlebot3-test/pkg/zeromq"
)

var ErrUnknownTransport = errors.New("unknown transport")

// newTransport builds the transport selected by cfg.Kind.
func newTransport(ctx context.Context, cfg config.TransportConfig, logger customlog.Logger) (runtime.Transport, error) {
	switch cfg.Kind {
	case config.TransportZeroMQ:
		t, err := zeromq.NewTransport(cfg.ZeroMQ, logger.WithField("transport", cfg.Kind))
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TransportNATS:
		t, err := natsbus.NewTransport(ctx, cfg.NATS, logger.WithField("transport", cfg.Kind))
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TransportLoopback:
		logger.Warnf("Using loopback transport, nothing leaves this process")
		return runtime.NewLoopbackTransport(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Kind)
	}
}
