package httpapi

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/openwx/internal/session"
	"github.com/i474232898/openwx/internal/store"
	"github.com/i474232898/openwx/internal/surface"
)

// commandWait bounds how long a dashboard command waits for its fetch.
const commandWait = 20 * time.Second

type searchRequest struct {
	Query string `json:"query"`
}

type locateRequest struct {
	Lat *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
}

func registerDashboardRoutes(v1 fiber.Router, d *surface.Dashboard) {
	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": d.View()})
	})

	v1.Post("/dashboard/search", func(c *fiber.Ctx) error {
		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid search body")
		}
		out, err := d.Search(req.Query)
		if err != nil {
			return err
		}
		return respondAfter(c, d, out)
	})

	v1.Post("/dashboard/locate", func(c *fiber.Ctx) error {
		var req locateRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid locate body")
			}
			if err := validate.Struct(req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Coordinates are out of range.")
			}
		}
		var at *surface.Position
		if req.Lat != nil && req.Lon != nil {
			at = &surface.Position{Lat: *req.Lat, Lon: *req.Lon}
		}
		return respondAfter(c, d, d.Locate(at))
	})

	v1.Post("/dashboard/unit", func(c *fiber.Ctx) error {
		d.ToggleUnit()
		return c.JSON(fiber.Map{"data": d.View()})
	})

	v1.Post("/dashboard/refresh", func(c *fiber.Ctx) error {
		out, err := d.Refresh()
		if err != nil {
			return err
		}
		return respondAfter(c, d, out)
	})

	v1.Get("/favorites", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": d.Favorites()})
	})

	v1.Post("/favorites", func(c *fiber.Ctx) error {
		label, err := d.AddFavorite()
		body := fiber.Map{"data": fiber.Map{"label": label, "favorites": d.Favorites()}}
		var persistErr *store.PersistError
		switch {
		case errors.As(err, &persistErr):
			body["warning"] = persistErr.Error()
		case err != nil:
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(body)
	})

	v1.Delete("/favorites/:label", func(c *fiber.Ctx) error {
		label, err := url.PathUnescape(c.Params("label"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid label")
		}
		removed, err := d.RemoveFavorite(label)
		body := fiber.Map{"data": fiber.Map{"removed": removed, "favorites": d.Favorites()}}
		var persistErr *store.PersistError
		switch {
		case errors.As(err, &persistErr):
			body["warning"] = persistErr.Error()
		case err != nil:
			return err
		}
		return c.JSON(body)
	})

	v1.Post("/favorites/:label/open", func(c *fiber.Ctx) error {
		label, err := url.PathUnescape(c.Params("label"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid label")
		}
		out, err := d.OpenFavorite(label)
		if err != nil {
			return err
		}
		return respondAfter(c, d, out)
	})
}

// respondAfter waits for the fetch behind a command and returns the dashboard view.
// A failure the dashboard shows to the user is returned as an error response instead.
func respondAfter(c *fiber.Ctx, d *surface.Dashboard, out <-chan session.Outcome) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), commandWait)
	defer cancel()

	select {
	case o, ok := <-out:
		if ok && o.Result == session.ResultFailed {
			return o.Err
		}
		return c.JSON(fiber.Map{"data": d.View()})
	case <-ctx.Done():
		// still loading; the view says so
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": d.View()})
	}
}
