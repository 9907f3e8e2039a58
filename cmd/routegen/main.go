package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"routegen.busfleet.org/internal/app"
	"routegen.busfleet.org/internal/config"
	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/pathservice"
	"routegen.busfleet.org/internal/report"
	"routegen.busfleet.org/internal/routing"
	"routegen.busfleet.org/internal/store"
	"routegen.busfleet.org/internal/utils"
)

const version = "1.0.0"

func main() {
	var (
		port        = flag.Int("port", 4000, "API server port")
		env         = flag.String("env", "development", "Environment (development|staging|production)")
		dbPath      = flag.String("db", "routegen.db", "Path to the SQLite database holding stops and generated routes")
		configFile  = flag.String("config-file", "", "Path to a local JSON configuration file")
		configURL   = flag.String("config-url", "", "URL to a remote JSON configuration file")
		osrmURL     = flag.String("osrm-url", pathservice.DefaultOSRMBaseURL, `OSRM base URL, or "none" for straight-line paths`)
		maxClusters = flag.Int("max-clusters", routing.DefaultMaxClusters, "Default upper bound on routes per city")
		avgSpeed    = flag.Float64("avg-speed-kmh", routing.DefaultAverageSpeedKmh, "Average bus speed used for travel times")
		seed        = flag.Uint64("seed", 0, "Seed for random centroid init; 0 keeps farthest-point init")
		cacheDir    = flag.String("cache-dir", "cache", "Directory for downloaded GTFS bundles")
	)
	flag.Parse()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	configAuthUser := os.Getenv("CONFIG_AUTH_USER")
	configAuthPass := os.Getenv("CONFIG_AUTH_PASS")

	if err := config.ValidateConfigFlags(configFile, configURL); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := report.SetupSentry(os.Getenv("SENTRY_DSN"), *env, version); err != nil {
		logger.Warn("Sentry disabled", "error", err)
	}
	defer report.FlushSentry()
	report.ConfigureScope(*env, version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := app.NewPooledClient()

	var (
		cities []models.CityConfig
		err    error
	)
	switch {
	case *configFile != "":
		cities, err = config.LoadConfigFromFile(*configFile)
	case *configURL != "":
		cities, err = config.LoadConfigFromURL(ctx, client, *configURL, configAuthUser, configAuthPass, 3)
	default:
		fmt.Println("Error: No configuration provided. Use --config-file or --config-url.")
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if len(cities) == 0 {
		fmt.Println("Error: No cities found in configuration.")
		os.Exit(1)
	}

	if err := utils.CreateCacheDirectory(*cacheDir, logger); err != nil {
		logger.Error("Failed to create cache directory", "error", err)
		os.Exit(1)
	}

	db, err := store.OpenSQLite(ctx, *dbPath, logger)
	if err != nil {
		report.ReportError(err, sentry.LevelFatal)
		logger.Error("Failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	policy := routing.DefaultPolicy()
	policy.MaxClusters = *maxClusters
	policy.AverageSpeedKmh = *avgSpeed
	if *seed != 0 {
		policy.Init = routing.InitRandom
		policy.Seed = *seed
	}

	var paths routing.PathService = pathservice.NewOSRMService(*osrmURL, client, logger)
	if *osrmURL == "none" {
		paths = pathservice.StraightLine{}
	}

	cfg := config.NewConfig(*port, *env, cities)
	application := app.New(cfg, logger, client, app.Options{
		SQLite:   db,
		Paths:    paths,
		Policy:   policy,
		CacheDir: *cacheDir,
		Version:  version,
	})

	// If a remote URL is specified, refresh the configuration every minute
	if *configURL != "" {
		go application.ConfigService.RefreshConfig(ctx, *configURL, configAuthUser, configAuthPass, config.DefaultRefreshInterval)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: application.GenerateTimeout + 10*time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "cities", len(cities))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			report.ReportError(err, sentry.LevelFatal)
			report.FlushSentry()
			logger.Error(err.Error())
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}
