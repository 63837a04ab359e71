package handler

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"aycf/internal/flighttime"
	"aycf/internal/model"
	"aycf/internal/service"
)

// HealthCheck godoc
// @Summary Readiness probe
// @Description Pings the database.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe godoc
// @Summary Liveness probe
// @Tags health
// @Success 200 {string} string "OK"
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListAirports godoc
// @Summary Airports in the route network
// @Tags network
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /airports [get]
func ListAirports(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": svc.Airports(c.UserContext())})
	}
}

// ListDestinations godoc
// @Summary Direct destinations of an airport
// @Tags network
// @Produce json
// @Param code path string true "IATA code"
// @Success 200 {object} map[string][]string
// @Failure 404 {object} errorPayload
// @Router /airports/{code}/destinations [get]
func ListDestinations(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dests, err := svc.Destinations(c.UserContext(), c.Params("code"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": dests})
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// BrowseFlights godoc
// @Summary Browse every flight found so far
// @Tags flights
// @Produce json
// @Param from query string false "Departure airports, comma separated"
// @Param to query string false "Arrival airports, comma separated"
// @Param date_from query string false "First departure date (YYYY-MM-DD)"
// @Param date_to query string false "Last departure date, inclusive (YYYY-MM-DD)"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} map[string][]model.CheckedFlight
// @Failure 400 {object} errorPayload
// @Router /flights [get]
func BrowseFlights(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := model.FlightFilter{
			Departures: splitList(c.Query("from")),
			Arrivals:   splitList(c.Query("to")),
			Limit:      c.QueryInt("limit", 0),
		}
		if v := c.Query("date_from"); v != "" {
			d, err := flighttime.ParseDate(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date_from must be YYYY-MM-DD")
			}
			f.DateFrom = d
		}
		if v := c.Query("date_to"); v != "" {
			d, err := flighttime.ParseDate(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date_to must be YYYY-MM-DD")
			}
			f.DateTo = d.AddDate(0, 0, 1)
		}

		flights, err := svc.BrowseFlights(c.UserContext(), f)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": flights})
	}
}

// ListUsage godoc
// @Summary Accepted searches, newest first
// @Tags usage
// @Produce json
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.UsageListResult
// @Router /usage [get]
func ListUsage(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, bad := pagination(c)
		if bad != nil {
			return bad.write(c)
		}
		res, err := svc.Usage(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
