package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/open-teleop/turtlebot3-test/domain/diagnostic"
	"github.com/open-teleop/turtlebot3-test/domain/testnode"
	"github.com/open-teleop/turtlebot3-test/pkg/api"
	"github.com/open-teleop/turtlebot3-test/pkg/config"
	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
	"github.com/open-teleop/turtlebot3-test/pkg/runtime"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "testnode: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the bootstrap file. A missing file means defaults.
func loadConfig(dir string) (*config.BootstrapConfig, bool, error) {
	cfg, err := config.LoadBootstrapConfig(dir)
	if err == nil {
		return cfg, true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return config.DefaultBootstrapConfig(), false, nil
	}
	return nil, false, err
}

// nodeOptions maps the configured topics and periods onto the node.
func nodeOptions(cfg config.NodeConfig) *testnode.Options {
	opts := &testnode.Options{
		VelocityPeriod: cfg.VelocityPeriod(),
		ScanPeriod:     cfg.ScanPeriod(),
	}
	if m, ok := cfg.GetTopicMapping(config.TopicIDCmdVel); ok {
		opts.VelocityTopic = m.RosTopic
	}
	if m, ok := cfg.GetTopicMapping(config.TopicIDScan); ok {
		opts.ScanTopic = m.RosTopic
	}
	if m, ok := cfg.GetTopicMapping(config.TopicIDPose); ok {
		opts.PoseTopic = m.RosTopic
	}
	return opts
}

func run() error {
	configDir := os.Getenv("TESTNODE_CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}

	cfg, found, err := loadConfig(configDir)
	if err != nil {
		return fmt.Errorf("loading bootstrap config: %w", err)
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	if !found {
		logger.Warnf("No %s in %s, using built-in defaults", config.BootstrapFileName, configDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := newTransport(ctx, cfg.Transport, logger)
	if err != nil {
		return fmt.Errorf("creating %s transport: %w", cfg.Transport.Kind, err)
	}
	defer func() {
		if err := transport.Close(); err != nil {
			logger.Errorf("Closing transport: %v", err)
		}
	}()

	executor := runtime.NewExecutor(transport, logger, &runtime.ExecutorOptions{
		QueueSize: cfg.Executor.QueueSize,
		NodeName:  cfg.Node.Name,
	})
	executor.LoadTopics(cfg.Node)
	defer func() {
		if err := executor.Close(); err != nil {
			logger.Errorf("Closing executor: %v", err)
		}
	}()

	opts := nodeOptions(cfg.Node)
	node, err := testnode.NewTestNode(executor, logger.WithField("node", cfg.Node.Name), opts)
	if err != nil {
		return fmt.Errorf("starting node: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return executor.Spin(gctx)
	})

	if cfg.Server.Enabled {
		app := api.NewApp(cfg.Node.Name)
		api.RegisterDiagnosticRoutes(app, diagnostic.NewDiagnosticService(executor, node, logger))
		api.RegisterConfigRoutes(app, cfg, logger)
		api.RegisterWebSocketRoutes(app, executor, opts.PoseTopic, logger)

		g.Go(func() error {
			logger.Infof("Diagnostics server starting on port %d", cfg.Server.HTTPPort)
			if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.HTTPPort)); err != nil {
				return fmt.Errorf("diagnostics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		})
	}

	err = g.Wait()
	if ctx.Err() != nil {
		logger.Infof("Keyboard interrupt, shutting down")
	}

	// Spin has returned, so no callback can run concurrently with Destroy.
	if derr := node.Destroy(); derr != nil {
		logger.Errorf("Destroying node: %v", derr)
	}
	return err
}
