package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"aycf/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.SearchService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/airports", ListAirports(svc))
	app.Get("/airports/:code/destinations", ListDestinations(svc))

	app.Post("/searches/estimate", EstimateSearch(svc))
	app.Post("/searches", SubmitSearch(svc))
	app.Get("/searches", ListSearches(svc))
	app.Get("/searches/:id", GetSearch(svc))
	app.Get("/searches/:id/results", SearchResults(svc))
	app.Get("/searches/:id/report", SearchReport(svc))

	app.Get("/flights", BrowseFlights(svc))
	app.Get("/usage", ListUsage(svc))
}
