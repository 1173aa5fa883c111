package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/evapower-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/evapower-etl/internal/adapter/kafka"
	"github.com/couchcryptid/evapower-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/evapower-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/evapower-etl/internal/config"
	"github.com/couchcryptid/evapower-etl/internal/domain"
	"github.com/couchcryptid/evapower-etl/internal/observability"
	"github.com/couchcryptid/evapower-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	estimator := domain.NewClimateEstimator(pipeline.NewInstrumentedCache(domain.NewMemoryCache(), metrics))

	// Observed weather series are feature-flagged via WEATHER_ENABLED.
	var provider domain.WeatherProvider
	if cfg.WeatherEnabled {
		client := openmeteo.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, metrics, logger)
		provider = openmeteo.NewCachedProvider(client, cfg.WeatherCacheSize, metrics)
		metrics.WeatherEnabled.Set(1)
		logger.Info("weather archive enabled",
			"base_url", cfg.WeatherBaseURL,
			"cache_size", cfg.WeatherCacheSize,
			"lookback_days", cfg.WeatherLookbackDays,
		)
	} else {
		logger.Info("weather archive disabled, using climate estimates")
	}

	assessor := domain.NewAssessor(estimator, provider, domain.AssessOptions{
		TargetPowerKW: cfg.TargetPowerKW,
		Efficiency:    cfg.HarvestEfficiency,
		LookbackDays:  cfg.WeatherLookbackDays,
	}, logger)

	var store *sqlite.Store
	var rankings httpadapter.Rankings
	if cfg.SQLitePath != "" {
		store, err = sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("failed to open assessment store", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		rankings = store
		logger.Info("assessment store opened", "path", cfg.SQLitePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready readiness = alwaysReady{}
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.PipelineEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)

		loaders := pipeline.MultiLoader{writer}
		if store != nil {
			loaders = append(loaders, store)
		}
		p := pipeline.New(reader, pipeline.NewTransformer(assessor, logger), loaders, logger, metrics,
			pipeline.Config{BatchSize: cfg.BatchSize, Workers: cfg.AssessWorkers})
		ready = p

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("pipeline disabled, serving API only")
	}

	api := httpadapter.NewAPI(estimator, assessor, rankings, cfg.HarvestEfficiency, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("assessment store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

type readiness interface {
	CheckReadiness(ctx context.Context) error
}

// alwaysReady reports ready when the service runs without a pipeline.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }
