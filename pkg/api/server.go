package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp creates the diagnostics Fiber app with the liveness routes.
func NewApp(nodeName string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "TurtleBot3 Test Node",
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "turtlebot3 test node",
			"node":    nodeName,
		})
	})

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	return app
}

// DiagnosticHandlers serves the node status endpoints
type DiagnosticHandlers interface {
	GetDiagnosticsHandler(c *fiber.Ctx) error
	GetTopicsHandler(c *fiber.Ctx) error
}

// RegisterDiagnosticRoutes mounts the status endpoints under /api/v1.
func RegisterDiagnosticRoutes(app *fiber.App, h DiagnosticHandlers) {
	apiGroup := app.Group("/api/v1")
	apiGroup.Get("/diagnostics", h.GetDiagnosticsHandler)
	apiGroup.Get("/topics", h.GetTopicsHandler)
}

// Custom error handler
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Default 500 status code
	code := fiber.StatusInternalServerError

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
