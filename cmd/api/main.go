package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/FizzSlash/AIdesign/internal/adapter/cache"
	"github.com/FizzSlash/AIdesign/internal/adapter/repo"
	"github.com/FizzSlash/AIdesign/internal/catalog"
	"github.com/FizzSlash/AIdesign/internal/domain"
	"github.com/FizzSlash/AIdesign/internal/generation"
	"github.com/FizzSlash/AIdesign/internal/http/handlers"
	"github.com/FizzSlash/AIdesign/internal/http/httpapi"
	"github.com/FizzSlash/AIdesign/internal/infra"
	"github.com/FizzSlash/AIdesign/internal/infra/credentials"
	"github.com/FizzSlash/AIdesign/internal/infra/geoip"
	"github.com/FizzSlash/AIdesign/internal/jobs"
	"github.com/FizzSlash/AIdesign/internal/layout"
	"github.com/FizzSlash/AIdesign/internal/middleware"
	"github.com/FizzSlash/AIdesign/internal/storage"
)

const defaultLocale = "en-US"

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("service", cfg.ServiceName).Logger()

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	metrics := infra.NewMetrics()
	sql := infra.NewSQLRunner(dbpool, logger, metrics)

	tracer, shutdownTracing, err := infra.SetupTracing(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up tracing")
	}

	gen, err := buildGenerator(ctx, cfg, credentials.NewStore(sql), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generation provider")
	}
	policy := retryPolicy(cfg)

	var catalogProvider domain.CatalogProvider = repo.NewCatalogRepository(sql)
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rdb.Close()
		catalogProvider = cache.NewCatalogCache(catalogProvider, rdb, cfg.CatalogCacheTTL, logger)
		logger.Info().Dur("ttl", cfg.CatalogCacheTTL).Msg("catalog cache enabled")
	}

	markup, err := storage.FromConfig(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure markup storage")
	}

	jobStore := repo.NewJobRepository(sql)
	artifacts := repo.NewArtifactRepository(sql)
	orch, err := jobs.New(jobs.Deps{
		Store:     jobStore,
		Artifacts: artifacts,
		Brands:    repo.NewBrandRepository(sql),
		Selector: catalog.NewSelector(catalogProvider, catalog.Options{
			MaxProducts:      cfg.MaxProducts,
			ImagesPerProduct: cfg.ImagesPerProduct,
		}, logger),
		Analyzer:   generation.NewIntentAnalyzer(gen, policy, logger),
		Copywriter: generation.NewCopywriter(gen, policy, logger),
		Assembler:  layout.NewAssembler(nil),
		Renderer:   layout.NewRenderer(cfg.RenderSizeLimitBytes, logger),
		Exporter:   markup,
		Usage:      repo.NewUsageRepository(sql),
		Metrics:    metrics,
		Tracer:     tracer,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	sweeper, err := jobs.NewSweeper(orch, cfg.SweepSchedule, cfg.StaleJobAfter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule stale job sweep")
	}
	// jobs left running by a previous process
	if _, err := orch.SweepStale(ctx, cfg.StaleJobAfter); err != nil {
		logger.Warn().Err(err).Msg("initial stale job sweep failed")
	}
	sweeper.Start()

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
		defer resolver.Close()
	}

	app := &handlers.App{
		Jobs:      orch,
		Artifacts: artifacts,
		Markup:    markup,
		Ping:      dbpool.Ping,
		Logger:    logger,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		Metrics:         metrics,
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   lookup,
		DefaultLocale:   defaultLocale,
	})
	server := infra.NewHTTPServer(cfg, router, logger)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdown(cfg, logger, server, sweeper, orch, shutdownTracing)
}

// shutdown stops intake first, then interrupts running jobs.
func shutdown(cfg *infra.Config, logger zerolog.Logger, server *infra.HTTPServer, sweeper *jobs.Sweeper, orch *jobs.Orchestrator, shutdownTracing func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	sweeper.Stop(ctx)
	if err := orch.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Int("running", orch.Running()).Msg("jobs did not stop in time")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to flush traces")
	}
	logger.Info().Msg("server stopped")
}
