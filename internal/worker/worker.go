// Package worker runs queued searches: it checks availability for every
// planned segment and date, joins the flights into itineraries, publishes
// the report and emails the link.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"aycf/internal/cache"
	"aycf/internal/config"
	"aycf/internal/finder"
	"aycf/internal/logging"
	"aycf/internal/model"
	"aycf/internal/notify"
	"aycf/internal/report"
	"aycf/internal/repository"
	"aycf/internal/routes"
	"aycf/internal/storage"
)

// Checker queries flight availability for one segment and date.
type Checker interface {
	Availability(ctx context.Context, s model.Segment, date string) ([]model.CheckedFlight, error)
}

// Notifier delivers the finished report.
type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
}

// Routes is the route network as the worker needs it.
type Routes interface {
	Current() *routes.Graph
	Stale(now time.Time) bool
	Reload() error
}

// Deps are the collaborators of a Worker. Cache and Metrics are optional.
type Deps struct {
	Jobs     repository.JobRepository
	Flights  repository.FlightRepository
	Routes   Routes
	Checker  Checker
	Cache    cache.Availability
	Reports  *storage.Reports
	Notifier Notifier
	Metrics  *Metrics
}

// Worker processes search jobs one at a time.
type Worker struct {
	cfg    config.WorkerConfig
	deps   Deps
	now    func() time.Time
	logger zerolog.Logger
}

func New(cfg config.WorkerConfig, deps Deps) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Hour
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = 10 * time.Minute
	}
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}
	return &Worker{
		cfg:    cfg,
		deps:   deps,
		now:    time.Now,
		logger: logging.WithComponent("worker"),
	}
}

// Run polls for jobs and refreshes the route network until ctx is done.
// It returns after in-flight work has stopped.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().
		Dur("poll_interval", w.cfg.PollInterval).
		Int("concurrency", w.cfg.Concurrency).
		Msg("worker started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.poll(ctx)
		return nil
	})
	g.Go(func() error {
		w.refresh(ctx)
		return nil
	})
	err := g.Wait()
	w.logger.Info().Msg("worker stopped")
	return err
}

func (w *Worker) poll(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		w.drain(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// drain processes jobs until the queue is empty.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		ok, err := w.RunOnce(ctx)
		if err != nil {
			if ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("job queue unavailable")
			}
			return
		}
		if !ok {
			return
		}
	}
}

func (w *Worker) refresh(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.RefreshInterval)
	defer ticker.Stop()
	w.RefreshRoutes()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RefreshRoutes()
		}
	}
}

// RefreshRoutes reloads the route network when a newer one is due. The
// snapshot only changes through an import, so a reload can leave it stale;
// that is logged and exported as the snapshot age.
func (w *Worker) RefreshRoutes() {
	now := w.now()
	if w.deps.Routes.Stale(now) {
		if err := w.deps.Routes.Reload(); err != nil {
			w.logger.Error().Err(err).Str("event", "routes.refresh_failed").Msg("route network refresh failed")
		}
	}

	var lastParsed time.Time
	if s := w.deps.Routes.Current().Snapshot(); s != nil {
		lastParsed = s.LastParsed
	}
	stale := w.deps.Routes.Stale(now)
	w.deps.Metrics.snapshot(lastParsed, now, stale)
	if stale {
		ev := w.logger.Warn().Str("event", "routes.snapshot_stale")
		if !lastParsed.IsZero() {
			ev = ev.Time("last_parsed", lastParsed).Dur("age", now.Sub(lastParsed))
		}
		ev.Msg("route snapshot is out of date, import a fresh availability table with aycfctl routes import")
	}
}

// RunOnce claims and processes a single job. It reports false when the
// queue was empty.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.deps.Jobs.ClaimNext(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}

	start := w.now()
	log := w.logger.With().Str("job_id", job.ID).Str("trip_type", string(job.Params.TripType)).Logger()
	log.Info().Msg("job claimed")

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	hbDone := make(chan struct{})
	go func() {
		defer close(hbDone)
		w.heartbeat(hbCtx, log, job.ID)
	}()
	count, key, err := w.process(ctx, job)
	stopHeartbeat()
	<-hbDone
	took := w.now().Sub(start)

	// The job context is cancelled on shutdown; the outcome must still be recorded.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err != nil && ctx.Err() != nil {
		if rerr := w.deps.Jobs.Requeue(sctx, job.ID); rerr != nil {
			log.Error().Err(rerr).Msg("requeue job failed")
		}
		w.deps.Metrics.job("requeued", took)
		log.Warn().Err(err).Dur("took", took).Msg("job interrupted, requeued")
		return true, nil
	}
	if err == nil {
		if err = w.deps.Jobs.Complete(sctx, job.ID, count, key); err != nil {
			log.Error().Err(err).Str("event", "job.complete_failed").Msg("complete job failed")
			err = fmt.Errorf("complete job: %w", err)
		}
	}
	if err != nil {
		if ferr := w.deps.Jobs.Fail(sctx, job.ID, err.Error()); ferr != nil {
			log.Error().Err(ferr).Msg("mark job failed")
		}
		w.deps.Metrics.job(string(model.JobFailed), took)
		log.Error().Err(err).Dur("took", took).Msg("job failed")
		return true, nil
	}
	w.deps.Metrics.job(string(model.JobDone), took)
	log.Info().Int("itineraries", count).Dur("took", took).Msg("job done")
	return true, nil
}

// heartbeat keeps the job's lease alive until ctx is done.
func (w *Worker) heartbeat(ctx context.Context, log zerolog.Logger, id string) {
	ticker := time.NewTicker(w.cfg.LeaseTimeout / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.deps.Jobs.Heartbeat(ctx, id); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("job heartbeat failed")
			}
		}
	}
}

// process runs the search and returns the itinerary count and report key.
func (w *Worker) process(ctx context.Context, job *model.Job) (int, string, error) {
	g := w.deps.Routes.Current()
	p := job.Params

	plan, err := w.plan(g, p)
	if err != nil {
		return 0, "", err
	}

	checked, err := w.runChecks(ctx, plan.Checks)
	if err != nil {
		return 0, "", err
	}
	if len(plan.Gated) > 0 {
		has := finder.HasFlights(checked)
		more, err := w.runChecks(ctx, plan.Unlocked(func(h string) bool { return has[h] }))
		if err != nil {
			return 0, "", err
		}
		checked = append(checked, more...)
	}

	if err := w.deps.Flights.SaveChecked(ctx, job.ID, checked); err != nil {
		return 0, "", fmt.Errorf("save flights: %w", err)
	}

	its := finder.Join(g, p, checked)
	html, err := report.RenderBytes(report.Data{
		JobID:        job.ID,
		TripType:     p.TripType,
		Departures:   p.DepartureAirports,
		Destinations: p.DestinationAirports,
		OneWay:       its.OneWay,
		RoundTrip:    its.RoundTrip,
		GeneratedAt:  w.now(),
	})
	if err != nil {
		return 0, "", err
	}
	key, err := w.deps.Reports.Save(ctx, job.ID, html)
	if err != nil {
		return 0, "", err
	}
	link, err := w.deps.Reports.Link(ctx, key)
	if err != nil {
		return 0, "", err
	}
	if err := w.deps.Notifier.Send(ctx, notify.Message{
		To:          p.Email,
		TripType:    p.TripType,
		ReportURL:   link,
		ResultCount: its.Count(),
	}); err != nil {
		return 0, "", err
	}
	return its.Count(), key, nil
}

// plan builds the checks for p. The date was validated on submit; a job
// that waited in the queue past it runs from today instead.
func (w *Worker) plan(g *routes.Graph, p model.SearchParams) (finder.Plan, error) {
	now := w.now()
	date, err := finder.ClampDepartureDate(p.DepartureDate, now)
	if err != nil {
		return finder.Plan{}, err
	}
	if p.TripType == model.TripRoundTrip {
		cands := finder.RoundTripCandidates(g, p.DepartureAirports, p.DestinationAirports)
		return finder.RoundTripPlan(cands, date, now)
	}
	cands := finder.OneWayCandidates(g, p.DepartureAirports, p.DestinationAirports, p.MaxStops)
	return finder.OneWayPlan(cands, date, now)
}

// runChecks runs checks concurrently. A failed check counts as no flights
// unless every check failed.
func (w *Worker) runChecks(ctx context.Context, checks []finder.Check) ([]model.CheckedFlight, error) {
	if len(checks) == 0 {
		return nil, nil
	}
	results := make([][]model.CheckedFlight, len(checks))
	failed := make([]error, len(checks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)
	for i, c := range checks {
		g.Go(func() error {
			flights, err := w.check(gctx, c)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed[i] = err
				w.logger.Warn().
					Err(err).
					Str("origin", c.Segment.Origin).
					Str("destination", c.Segment.Destination).
					Str("date", c.Date).
					Msg("availability check failed, treating as no flights")
				return nil
			}
			results[i] = flights
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		out      []model.CheckedFlight
		failures int
		lastErr  error
	)
	for i := range checks {
		if failed[i] != nil {
			failures++
			lastErr = failed[i]
			continue
		}
		out = append(out, results[i]...)
	}
	if failures == len(checks) {
		return nil, fmt.Errorf("all %d availability checks failed: %w", failures, lastErr)
	}
	return out, nil
}

func (w *Worker) check(ctx context.Context, c finder.Check) ([]model.CheckedFlight, error) {
	if flights, ok := w.deps.Cache.Get(ctx, c.Segment.Hash, c.Date); ok {
		w.deps.Metrics.check("cache")
		return flights, nil
	}
	flights, err := w.deps.Checker.Availability(ctx, c.Segment, c.Date)
	if err != nil {
		w.deps.Metrics.check("error")
		return nil, err
	}
	w.deps.Metrics.check("remote")
	w.deps.Cache.Set(ctx, c.Segment.Hash, c.Date, flights)
	return flights, nil
}
