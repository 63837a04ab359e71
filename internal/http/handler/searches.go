package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"aycf/internal/service"
)

// badRequest is a client error detected while reading the request.
type badRequest struct {
	code    string
	message string
}

func (e *badRequest) write(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, e.code, e.message)
}

func pagination(c *fiber.Ctx) (int, int, *badRequest) {
	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil {
		return 0, 0, &badRequest{"INVALID_LIMIT", "invalid limit"}
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, &badRequest{"INVALID_OFFSET", "invalid offset"}
	}
	return limit, offset, nil
}

func parseRequest(c *fiber.Ctx) (service.SearchRequest, *badRequest) {
	var req service.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return req, &badRequest{"INVALID_BODY", "request body must be JSON"}
	}
	return req, nil
}

func jobID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// EstimateSearch godoc
// @Summary Estimate a search
// @Description Validates a search and reports how many segments it checks and how long that takes.
// @Tags searches
// @Accept json
// @Produce json
// @Param request body service.SearchRequest true "Search"
// @Success 200 {object} service.Estimate
// @Failure 400 {object} errorPayload
// @Router /searches/estimate [post]
func EstimateSearch(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, bad := parseRequest(c)
		if bad != nil {
			return bad.write(c)
		}
		est, err := svc.Estimate(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(est)
	}
}

// SubmitSearch godoc
// @Summary Queue a search
// @Tags searches
// @Accept json
// @Produce json
// @Param request body service.SearchRequest true "Search"
// @Success 202 {object} service.Submission
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /searches [post]
func SubmitSearch(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, bad := parseRequest(c)
		if bad != nil {
			return bad.write(c)
		}
		sub, err := svc.Submit(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Location("/searches/" + sub.Job.ID)
		return c.Status(fiber.StatusAccepted).JSON(sub)
	}
}

// ListSearches godoc
// @Summary List searches
// @Tags searches
// @Produce json
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.JobListResult
// @Router /searches [get]
func ListSearches(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, bad := pagination(c)
		if bad != nil {
			return bad.write(c)
		}
		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetSearch godoc
// @Summary Get a search
// @Tags searches
// @Produce json
// @Param id path string true "Search ID"
// @Success 200 {object} model.Job
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /searches/{id} [get]
func GetSearch(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		job, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(job)
	}
}

// SearchResults godoc
// @Summary Get the itineraries of a search
// @Tags searches
// @Produce json
// @Param id path string true "Search ID"
// @Success 200 {object} service.SearchResult
// @Failure 404 {object} errorPayload
// @Router /searches/{id}/results [get]
func SearchResults(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.Results(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// SearchReport godoc
// @Summary Redirect to the HTML report
// @Tags searches
// @Param id path string true "Search ID"
// @Success 302 {string} string "Found"
// @Failure 409 {object} errorPayload
// @Router /searches/{id}/report [get]
func SearchReport(svc service.SearchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.ReportURL(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}
