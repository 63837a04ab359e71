package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"aycf/docs"
	"aycf/internal/cache"
	"aycf/internal/config"
	"aycf/internal/database"
	"aycf/internal/database/migration"
	handlers "aycf/internal/http/handler"
	"aycf/internal/http/middleware"
	"aycf/internal/logging"
	"aycf/internal/notify"
	"aycf/internal/otel"
	"aycf/internal/repository/postgres"
	"aycf/internal/routes"
	"aycf/internal/service"
	"aycf/internal/storage"
	"aycf/internal/wizz"
	"aycf/internal/worker"
)

// @title AYCF Flight Finder API
// @version 1.0
// @description Finds WizzAir All You Can Fly seats, one-stop connections and round trips.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logging.Configure(logging.Config{Level: cfg.LogLevel})
	logger := logging.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object storage")
	}
	reports := storage.NewReports(objStore, cfg.MinIO.PresignExpiry)

	network := routes.NewManager(cfg.Routes)
	if err := network.Reload(); err != nil {
		logger.Error().Err(err).Msg("route network not loaded, serving an empty network")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	jobRepo := postgres.NewJobPostgres(db, postgres.WithLease(cfg.Worker.LeaseTimeout))
	flightRepo := postgres.NewFlightPostgres(db)
	usageRepo := postgres.NewUsagePostgres(db)
	searchSvc := service.NewSearchService(network, jobRepo, flightRepo, usageRepo, reports)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return network.Watch(ctx)
	})

	if cfg.Worker.Enabled {
		w, closeWorker, err := newWorker(cfg, reg, worker.Deps{
			Jobs:     jobRepo,
			Flights:  flightRepo,
			Routes:   network,
			Reports:  reports,
			Notifier: notify.NewMailer(cfg.SMTP),
		})
		switch {
		case errors.Is(err, wizz.ErrNotConfigured):
			logger.Warn().Msg("WIZZ_SESSION_UUID not set, worker disabled")
		case err != nil:
			logger.Fatal().Err(err).Msg("failed to initialize worker")
		default:
			defer closeWorker()
			g.Go(func() error {
				return w.Run(ctx)
			})
		}
	}

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register http metrics")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    64 * 1024,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, searchSvc)

	g.Go(func() error {
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped with error")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Error().Err(err).Msg("failed to flush traces")
	}
}

// newWorker wires the availability client, the optional Redis cache and the
// worker metrics. The returned func releases the cache connection.
func newWorker(cfg *config.AppConfig, reg prometheus.Registerer, deps worker.Deps) (*worker.Worker, func(), error) {
	clientMetrics, err := wizz.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}
	client, err := wizz.NewClient(cfg.Wizz, wizz.WithMetrics(clientMetrics))
	if err != nil {
		return nil, nil, err
	}
	deps.Checker = client

	deps.Metrics, err = worker.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	closeCache := func() {}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(cfg.Redis, logging.WithComponent("cache"))
		if err != nil {
			return nil, nil, err
		}
		deps.Cache = rc
		closeCache = func() {
			st := rc.Stats()
			logger := logging.WithComponent("cache")
			logger.Info().
				Int64("hits", st.Hits).
				Int64("misses", st.Misses).
				Int64("sets", st.Sets).
				Msg("availability cache closed")
			_ = rc.Close()
		}
	}
	return worker.New(cfg.Worker, deps), closeCache, nil
}
