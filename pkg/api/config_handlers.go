package api

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/turtlebot3-test/pkg/config"
	customlog "github.com/open-teleop/turtlebot3-test/pkg/log"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	cfg    *config.BootstrapConfig
	logger customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(cfg *config.BootstrapConfig, logger customlog.Logger) *ConfigHandler {
	if cfg == nil {
		panic("config cannot be nil in NewConfigHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		cfg:    cfg,
		logger: logger,
	}
}

// RegisterConfigRoutes registers the read-only configuration endpoint.
func RegisterConfigRoutes(app *fiber.App, cfg *config.BootstrapConfig, logger customlog.Logger) {
	h := NewConfigHandler(cfg, logger)
	app.Get("/api/v1/config", h.handleGetConfig)
	logger.Infof("Registered configuration API endpoint at /api/v1/config")
}

// handleGetConfig returns the effective bootstrap configuration as YAML.
func (h *ConfigHandler) handleGetConfig(c *fiber.Ctx) error {
	h.logger.Debugf("Handling GET request for /api/v1/config")
	yamlData, err := h.cfg.YAML()
	if err != nil {
		h.logger.Errorf("Failed to render configuration YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}
