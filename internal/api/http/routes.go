package httpapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/openwx/internal/bus"
	"github.com/i474232898/openwx/internal/logger"
	"github.com/i474232898/openwx/internal/scheduler"
	"github.com/i474232898/openwx/internal/surface"
	"github.com/i474232898/openwx/internal/weather"
)

var validate = validator.New()

// apiSource is the bus source for messages published through the HTTP API.
const apiSource = "api"

// Refresher triggers an immediate refresh of every tracked session.
type Refresher interface {
	ForceRefresh() scheduler.FireResult
}

// Deps are the components the API exposes. Dashboard and Refresher may be nil, in which
// case their routes are not registered.
type Deps struct {
	Service   *weather.Service
	Bus       *bus.Bus
	Dashboard *surface.Dashboard
	Refresher Refresher
	Log       *logger.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "openwx",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		reading, err := deps.Service.GetWeather(c.UserContext(), c.Query("q"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": reading})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := c.QueryParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
		}
		if err := validate.Struct(req); err != nil {
			return weather.ValidateDays(req.Days)
		}

		forecast, err := deps.Service.GetForecast(c.UserContext(), req.Q, req.Days)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": forecast})
	})

	v1.Post("/focus", func(c *fiber.Ctx) error {
		n := deps.Bus.Publish(bus.Message{Kind: bus.RequestFocus, Source: apiSource})
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"delivered": n}})
	})

	v1.Post("/broadcast", func(c *fiber.Ctx) error {
		var reading weather.Reading
		if err := c.BodyParser(&reading); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid reading body")
		}
		if err := validate.Struct(reading); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		n := deps.Bus.Publish(bus.Message{Kind: bus.BroadcastReading, Source: apiSource, Reading: &reading})
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"delivered": n}})
	})

	if deps.Refresher != nil {
		v1.Post("/refresh", func(c *fiber.Ctx) error {
			res := deps.Refresher.ForceRefresh()
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{
				"fired":     res.Fired,
				"coalesced": res.Coalesced,
				"skipped":   res.Skipped,
			}})
		})
	}

	v1.Get("/events", eventsHandler(deps.Bus, deps.Log))

	if deps.Dashboard != nil {
		registerDashboardRoutes(v1, deps.Dashboard)
	}
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Q    string `query:"q"`
	Days int    `query:"days" validate:"min=1,max=7"`
}
