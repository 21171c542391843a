package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-cli/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/providers", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"providers": service.Providers()})
	})

	v1.Put("/providers/:kind", func(c *fiber.Ctx) error {
		kind, err := weather.ParseKind(c.Params("kind"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var req configureRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := service.Configure(c.UserContext(), kind, req.APIKey); err != nil {
			return toHTTPError(err)
		}
		if err := service.Flush(); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to store configuration")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Post("/providers/:kind/activate", func(c *fiber.Ctx) error {
		kind, err := weather.ParseKind(c.Params("kind"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if _, err := service.ChooseActiveProvider(kind); err != nil {
			return toHTTPError(err)
		}
		if err := service.Flush(); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to store configuration")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		q, err := parseLocationQuery(c, true)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		kind, err := resolveProvider(service, q.Provider)
		if err != nil {
			return toHTTPError(err)
		}

		locs, err := service.SearchLocations(c.UserContext(), kind, q.Query)
		if err != nil {
			return toHTTPError(err)
		}
		if err := service.Flush(); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to store configuration")
		}
		return c.JSON(fiber.Map{
			"provider":  kind,
			"locations": locs,
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseLocationQuery(c, false)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		kind, err := resolveProvider(service, q.Provider)
		if err != nil {
			return toHTTPError(err)
		}

		// No interactive selection over HTTP: the first match wins.
		report, err := service.CurrentWeather(c.UserContext(), kind, q.Query, nil)
		if err != nil {
			return toHTTPError(err)
		}
		if err := service.Flush(); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to store configuration")
		}

		return c.JSON(fiber.Map{
			"provider":     report.Provider,
			"location":     report.Location,
			"description":  report.Weather.Description,
			"condition":    report.Weather.Condition(),
			"temperatureC": report.Weather.Temperature.Celsius(),
			"temperatureK": report.Weather.Temperature.Kelvin(),
		})
	})
}

type configureRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// locationQuery holds query parameters for location and weather lookups.
type locationQuery struct {
	Provider string
	Query    string `validate:"required"`
}

func parseLocationQuery(c *fiber.Ctx, requireQuery bool) (locationQuery, error) {
	q := locationQuery{
		Provider: c.Query("provider"),
		Query:    c.Query("q"),
	}
	if !requireQuery {
		// An empty query falls back to the saved location.
		return q, nil
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// resolveProvider parses an optional provider name and picks the active
// provider when it is empty.
func resolveProvider(service *weather.Service, name string) (weather.Kind, error) {
	var kind weather.Kind
	if name != "" {
		k, err := weather.ParseKind(name)
		if err != nil {
			return "", err
		}
		kind = k
	}
	return service.ChooseActiveProvider(kind)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, weather.ErrUnknownProvider),
		errors.Is(err, weather.ErrNoLocation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrProviderNotConfigured),
		errors.Is(err, weather.ErrNoActiveProvider):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, weather.ErrInvalidAPIKey):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, weather.ErrLocationNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weather.ErrIncompatibleLocation):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, weather.ErrBadResponse):
		return fiber.NewError(fiber.StatusBadGateway, "provider returned an unexpected response")
	default:
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
	}
}
