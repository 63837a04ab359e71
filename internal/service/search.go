package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aycf/internal/finder"
	"aycf/internal/logging"
	"aycf/internal/model"
	"aycf/internal/repository"
	"aycf/internal/routes"
	"aycf/internal/storage"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrNotFound       = errors.New("not found")
	ErrDuplicateJob   = errors.New("an identical search is already queued")
	ErrReportNotReady = errors.New("report is not ready")
)

const (
	maxBrowseCodes  = 20
	defaultPageSize = 10
	maxFlightLimit  = 500
)

// SearchRequest is the user input for a search or an estimate.
type SearchRequest struct {
	TripType            model.TripType `json:"trip_type" validate:"required,oneof=oneway roundtrip"`
	MaxStops            int            `json:"max_stops" validate:"min=0,max=1"`
	DepartureAirports   []string       `json:"departure_airports" validate:"required,min=1,max=5,dive,iata"`
	DestinationAirports []string       `json:"destination_airports" validate:"max=5,dive,iata"`
	DepartureDate       string         `json:"departure_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Email               string         `json:"email" validate:"required,email"`
}

// normalized upper-cases and deduplicates codes and trims text fields.
func (r SearchRequest) normalized() SearchRequest {
	r.TripType = model.TripType(strings.ToLower(strings.TrimSpace(string(r.TripType))))
	r.DepartureAirports = normalizeCodes(r.DepartureAirports)
	r.DestinationAirports = normalizeCodes(r.DestinationAirports)
	r.DepartureDate = strings.TrimSpace(r.DepartureDate)
	r.Email = strings.TrimSpace(r.Email)
	return r
}

// Params converts the request into search parameters. Round trips are
// always direct.
func (r SearchRequest) Params() model.SearchParams {
	r = r.normalized()
	p := model.SearchParams{
		TripType:            r.TripType,
		MaxStops:            r.MaxStops,
		DepartureAirports:   r.DepartureAirports,
		DestinationAirports: r.DestinationAirports,
		DepartureDate:       r.DepartureDate,
		Email:               r.Email,
	}
	if p.TripType == model.TripRoundTrip {
		p.MaxStops = 0
	}
	return p
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := map[string]bool{}
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Estimate describes how much work a search will be.
type Estimate struct {
	TripType         model.TripType `json:"trip_type"`
	Candidates       int            `json:"candidates"`
	UniqueSegments   int            `json:"unique_segments"`
	Checks           int            `json:"checks"`
	EstimatedSeconds int            `json:"estimated_seconds"`
	EstimatedTime    string         `json:"estimated_time"`
}

// Submission is an accepted search.
type Submission struct {
	Job      *model.Job `json:"job"`
	Estimate Estimate   `json:"estimate"`
}

// JobListResult is the service-level DTO for paginated jobs.
type JobListResult struct {
	Items []model.Job `json:"data"`
	Total int         `json:"total"`
}

// UsageListResult is the service-level DTO for paginated usage logs.
type UsageListResult struct {
	Items []model.UsageLog `json:"data"`
	Total int              `json:"total"`
}

// SearchResult is a job with its joined itineraries.
type SearchResult struct {
	Job         *model.Job         `json:"job"`
	Itineraries finder.Itineraries `json:"itineraries"`
}

// NetworkSource hands out the current route network.
type NetworkSource interface {
	Current() *routes.Graph
}

// SearchService defines the use cases of the flight finder.
type SearchService interface {
	// Estimate validates a request and reports its size without queueing it.
	Estimate(ctx context.Context, req SearchRequest) (*Estimate, error)

	// Submit validates and queues a search. Identical pending searches are
	// rejected with ErrDuplicateJob.
	Submit(ctx context.Context, req SearchRequest) (*Submission, error)

	Get(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, limit, offset int) (*JobListResult, error)

	// Results joins the stored flights of a finished job into itineraries.
	Results(ctx context.Context, id string) (*SearchResult, error)

	// ReportURL returns a presigned link to the report of a finished job.
	ReportURL(ctx context.Context, id string) (string, error)

	Airports(ctx context.Context) []string
	Destinations(ctx context.Context, code string) ([]string, error)

	// BrowseFlights searches every flight found so far.
	BrowseFlights(ctx context.Context, f model.FlightFilter) ([]model.CheckedFlight, error)

	Usage(ctx context.Context, limit, offset int) (*UsageListResult, error)
}

type searchService struct {
	network  NetworkSource
	jobs     repository.JobRepository
	flights  repository.FlightRepository
	usage    repository.UsageRepository
	reports  *storage.Reports
	validate *validator.Validate
	now      func() time.Time
	logger   zerolog.Logger
}

// NewSearchService constructs a new SearchService.
func NewSearchService(
	network NetworkSource,
	jobs repository.JobRepository,
	flights repository.FlightRepository,
	usage repository.UsageRepository,
	reports *storage.Reports,
) SearchService {
	return &searchService{
		network:  network,
		jobs:     jobs,
		flights:  flights,
		usage:    usage,
		reports:  reports,
		validate: newValidator(),
		now:      time.Now,
		logger:   logging.WithComponent("service"),
	}
}

// check validates a request against its tags and the current network.
func (s *searchService) check(req SearchRequest) (model.SearchParams, *routes.Graph, error) {
	req = req.normalized()
	if err := s.validate.Struct(req); err != nil {
		return model.SearchParams{}, nil, describe(err)
	}
	p := req.Params()
	g := s.network.Current()

	verr := &ValidationError{Fields: map[string]string{}}
	if unknown := unknownCodes(g, p.DepartureAirports); len(unknown) > 0 {
		verr.Fields["departure_airports"] = "unknown airports: " + strings.Join(unknown, ", ")
	}
	if unknown := unknownCodes(g, p.DestinationAirports); len(unknown) > 0 {
		verr.Fields["destination_airports"] = "unknown airports: " + strings.Join(unknown, ", ")
	}
	if p.TripType == model.TripOneWay && p.MaxStops > 0 && len(p.DestinationAirports) == 0 {
		verr.Fields["destination_airports"] = "one-stop searches need at least one destination"
	}
	if err := finder.ValidateDepartureDate(p.DepartureDate, s.now()); err != nil {
		verr.Fields["departure_date"] = err.Error()
	}
	if len(verr.Fields) > 0 {
		return p, g, verr
	}
	return p, g, nil
}

func unknownCodes(g *routes.Graph, codes []string) []string {
	var out []string
	for _, c := range codes {
		if !g.HasAirport(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *searchService) estimate(g *routes.Graph, p model.SearchParams) (Estimate, error) {
	var (
		candidates int
		segments   int
		plan       finder.Plan
		err        error
	)
	if p.TripType == model.TripRoundTrip {
		cands := finder.RoundTripCandidates(g, p.DepartureAirports, p.DestinationAirports)
		candidates, segments = len(cands), len(finder.UniqueRoundTripSegments(cands))
		plan, err = finder.RoundTripPlan(cands, p.DepartureDate, s.now())
	} else {
		cands := finder.OneWayCandidates(g, p.DepartureAirports, p.DestinationAirports, p.MaxStops)
		candidates, segments = len(cands), len(finder.UniqueSegments(cands))
		plan, err = finder.OneWayPlan(cands, p.DepartureDate, s.now())
	}
	if err != nil {
		return Estimate{}, fieldError("departure_date", err.Error())
	}
	if candidates == 0 {
		return Estimate{}, fieldError("departure_airports", "no routes connect the selected airports")
	}
	return Estimate{
		TripType:         p.TripType,
		Candidates:       candidates,
		UniqueSegments:   segments,
		Checks:           plan.Size(),
		EstimatedSeconds: finder.EstimateSeconds(segments),
		EstimatedTime:    finder.EstimateCheckingTime(segments),
	}, nil
}

func (s *searchService) Estimate(_ context.Context, req SearchRequest) (*Estimate, error) {
	p, g, err := s.check(req)
	if err != nil {
		return nil, err
	}
	est, err := s.estimate(g, p)
	if err != nil {
		return nil, err
	}
	return &est, nil
}

func (s *searchService) Submit(ctx context.Context, req SearchRequest) (*Submission, error) {
	p, g, err := s.check(req)
	if err != nil {
		return nil, err
	}
	est, err := s.estimate(g, p)
	if err != nil {
		return nil, err
	}

	key := p.Key()
	dup, err := s.jobs.FindPendingDuplicate(ctx, key)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, dup.ID)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("check duplicates: %w", err)
	}

	now := s.now().UTC()
	job, err := s.jobs.Create(ctx, &model.Job{
		ID:            uuid.New().String(),
		Params:        p,
		Status:        model.JobQueued,
		EstimatedTime: est.EstimatedTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a race with an identical submit
		return nil, ErrDuplicateJob
	}
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	// Usage statistics must not fail an accepted search.
	if err := s.usage.Append(ctx, &model.UsageLog{
		Timestamp:           now,
		TripType:            p.TripType,
		MaxStops:            p.MaxStops,
		DepartureAirports:   p.DepartureAirports,
		DestinationAirports: p.DestinationAirports,
	}); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("append usage log failed")
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("trip_type", string(p.TripType)).
		Int("segments", est.UniqueSegments).
		Msg("search queued")
	return &Submission{Job: job, Estimate: est}, nil
}

func (s *searchService) Get(ctx context.Context, id string) (*model.Job, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// List returns paginated jobs without exposing repository types.
func (s *searchService) List(ctx context.Context, limit, offset int) (*JobListResult, error) {
	limit, offset = page(limit, offset)
	res, err := s.jobs.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &JobListResult{Items: res.Items, Total: res.Total}, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *searchService) Results(ctx context.Context, id string) (*SearchResult, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &SearchResult{Job: job}
	if job.Status != model.JobDone {
		return res, nil
	}
	flights, err := s.flights.ListByJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load flights: %w", err)
	}
	res.Itineraries = finder.Join(finder.FlightNetwork(flights), job.Params, flights)
	return res, nil
}

func (s *searchService) ReportURL(ctx context.Context, id string) (string, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if job.Status != model.JobDone || job.ReportKey == "" {
		return "", fmt.Errorf("%w: job is %s", ErrReportNotReady, job.Status)
	}
	return s.reports.Link(ctx, job.ReportKey)
}

func (s *searchService) Airports(context.Context) []string {
	return s.network.Current().Airports()
}

func (s *searchService) Destinations(_ context.Context, code string) ([]string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	g := s.network.Current()
	if !g.HasAirport(code) {
		return nil, fmt.Errorf("%w: airport %s", ErrNotFound, code)
	}
	return g.Destinations(code), nil
}

func (s *searchService) BrowseFlights(ctx context.Context, f model.FlightFilter) ([]model.CheckedFlight, error) {
	f.Departures = normalizeCodes(f.Departures)
	f.Arrivals = normalizeCodes(f.Arrivals)
	if len(f.Departures) > maxBrowseCodes || len(f.Arrivals) > maxBrowseCodes {
		return nil, fieldError("from", "too many airports")
	}
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() && !f.DateTo.After(f.DateFrom) {
		return nil, fieldError("date_to", "must be after date_from")
	}
	if f.Limit <= 0 || f.Limit > maxFlightLimit {
		f.Limit = maxFlightLimit
	}
	return s.flights.Search(ctx, f)
}

func (s *searchService) Usage(ctx context.Context, limit, offset int) (*UsageListResult, error) {
	limit, offset = page(limit, offset)
	res, err := s.usage.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &UsageListResult{Items: res.Items, Total: res.Total}, nil
}
