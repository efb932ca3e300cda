package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"majority-vote/internal/cfg"
	"majority-vote/internal/metrics"
	"majority-vote/internal/report"
	"majority-vote/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line arguments
	var (
		configPath = flag.String("config", "", "Path to YAML config file (overrides CONFIG_FILE)")
		envFile    = flag.String("env", ".env", "Path to .env file")
		dataPath   = flag.String("data", "", "Path to CSV dataset (overrides config)")
		label      = flag.String("label", "", "Label column name (overrides config)")
		outputPath = flag.String("output", "", "Output directory for reports (overrides config)")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
		serve      = flag.Bool("serve", false, "Keep serving /metrics and /health after the run")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("file", *envFile).Msg("Failed to load env file")
	}
	if *configPath != "" {
		os.Setenv("CONFIG_FILE", *configPath)
	}

	// Load configuration
	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Override config with command line arguments
	if *dataPath != "" {
		config.DatasetPath = *dataPath
	}
	if *label != "" {
		config.LabelColumn = *label
	}
	if *outputPath != "" {
		config.ReportPath = *outputPath
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}

	// Setup logging
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.DatasetPath == "" {
		log.Fatal().Msg("No dataset given: set -data, DATASET_PATH or dataset.path")
	}

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *serve && config.MetricsPort > 0 {
		startMetricsServer(ctx, config)
	}

	store := initializeStorage(config)
	if store != nil {
		defer store.Close()
	}

	run, predictions, err := runPipeline(config, mw)
	if err != nil {
		mw.ErrorsInc()
		log.Fatal().Err(err).Msg("Run failed")
	}

	if store != nil {
		if err := persistRun(store, &run, predictions); err != nil {
			mw.ErrorsInc()
			log.Error().Err(err).Msg("Failed to store run")
		} else {
			mw.RunsStoredInc()
		}
	}

	reporter := report.NewReporter(run, predictions, config.ReportPath)
	if config.ReportPath != "" {
		if err := reporter.GenerateReport(); err != nil {
			log.Error().Err(err).Msg("Failed to generate reports")
		}
	}

	// Print summary to console
	reporter.PrintSummary(os.Stdout)

	log.Info().
		Str("run", run.ID).
		Float64("test_accuracy", run.TestAccuracy).
		Str("output", config.ReportPath).
		Msg("Run completed successfully")

	if *serve && config.MetricsPort > 0 {
		waitForShutdown(ctx, cancel)
	}
}

// initializeStorage initializes storage if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath != "" {
		store, err := storage.New(c.DataPath)
		if err != nil {
			log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
			return nil
		}
		return store
	}
	return nil
}

func persistRun(store *storage.Store, run *storage.RunRecord, predictions []storage.PredictionRecord) error {
	if err := store.StoreRun(run); err != nil {
		return err
	}
	if err := store.StorePredictions(run.ID, predictions); err != nil {
		return fmt.Errorf("store predictions: %w", err)
	}
	log.Info().Str("run", run.ID).Int("predictions", len(predictions)).Msg("Run stored")
	return nil
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		log.Info().Int("port", c.MetricsPort).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown waits for shutdown signals and handles graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()
}
