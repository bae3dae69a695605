package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/openwx/internal/surface"
	"github.com/i474232898/openwx/internal/weather"
)

// NewApp builds the Fiber app with the shared error envelope and middleware.
// Set requestLog to false to silence per-request logging (tests).
func NewApp(requestLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "openwx",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// no WriteTimeout: /events streams indefinitely
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
		},
	})

	if requestLog {
		app.Use(fiberlogger.New())
	}
	app.Use(recover.New())
	return app
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, weather.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, weather.ErrProvider):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, weather.ErrTransport), errors.Is(err, weather.ErrMalformedResponse):
		return fiber.StatusBadGateway
	case errors.Is(err, surface.ErrRefreshInFlight):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
