package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"routegen.busfleet.org/internal/store"
)

// import-stops loads the boardable stops of a GTFS bundle into the SQLite
// stop table of one city. Existing stops with the same ID are overwritten.
func main() {
	dbPath := flag.String("db", "routegen.db", "Path to SQLite database")
	city := flag.String("city", "", "City name the stops belong to")
	gtfsSource := flag.String("gtfs", "", "GTFS zip file path or http(s) URL")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall import timeout")
	flag.Parse()

	_ = godotenv.Load()

	if *city == "" || *gtfsSource == "" {
		fmt.Println("Error: both -city and -gtfs are required.")
		flag.Usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(*dbPath, *city, *gtfsSource, *timeout, logger); err != nil {
		logger.Error("Import failed", "city", *city, "error", err)
		os.Exit(1)
	}
}

func run(dbPath, city, source string, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := store.OpenSQLite(ctx, dbPath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	client := &http.Client{Timeout: timeout}
	data, err := store.LoadBundle(ctx, client, source, 3)
	if err != nil {
		return err
	}

	stops, skipped, err := store.ParseStops(data)
	if err != nil {
		return err
	}
	if skipped > 0 {
		logger.Warn("Skipped stops without a usable location", "city", city, "skipped", skipped)
	}

	n, err := db.UpsertStops(ctx, city, stops)
	if err != nil {
		return fmt.Errorf("failed to store stops: %w", err)
	}
	logger.Info("Imported stops", "city", city, "stops", n, "db", dbPath)
	return nil
}
