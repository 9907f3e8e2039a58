package config

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/report"
	"routegen.busfleet.org/internal/utils"
)

// ValidateConfigFlags ensures that only one configuration source is specified:
// either a config file "--config-file", a remote config URL "--config-url".
//
// Returns an error if more than one input method is specified.
func ValidateConfigFlags(configFile, configURL *string) error {
	if *configFile == "" && *configURL == "" {
		return fmt.Errorf("no configuration provided, either --config-file or --config-url must be specified")
	}
	if (*configFile != "" && *configURL != "") || (*configFile != "" && len(flag.Args()) > 0) || (*configURL != "" && len(flag.Args()) > 0) {
		return fmt.Errorf("only one of --config-file or --config-url can be specified")
	}
	return nil
}

// ValidateCities checks a city list before it replaces the live one.
// Names must be present and unique by slug, and the stop source must be
// usable with the fields given.
func ValidateCities(cities []models.CityConfig) error {
	seen := make(map[string]struct{}, len(cities))
	for i, city := range cities {
		slug := utils.CitySlug(city.Name)
		if slug == "" {
			return fmt.Errorf("city %d has no name", i)
		}
		if _, dup := seen[slug]; dup {
			return fmt.Errorf("city %q is configured more than once", city.Name)
		}
		seen[slug] = struct{}{}

		switch city.Source() {
		case models.StopSourceSQLite:
		case models.StopSourceGTFS:
			if city.GtfsUrl == "" {
				return fmt.Errorf("city %q uses the gtfs stop source but has no gtfs_url", city.Name)
			}
		case models.StopSourceOBA:
			if city.ObaBaseURL == "" {
				return fmt.Errorf("city %q uses the oba stop source but has no oba_base_url", city.Name)
			}
			if city.RadiusMeters <= 0 {
				return fmt.Errorf("city %q uses the oba stop source but has no radius_m", city.Name)
			}
		default:
			return fmt.Errorf("city %q has unknown stop_source %q", city.Name, city.StopSource)
		}

		if city.MaxClusters < 0 {
			return fmt.Errorf("city %q has negative max_clusters", city.Name)
		}
	}
	return nil
}

// refreshConfig periodically fetches the city list from a remote URL and
// swaps it into cfg. Failed fetches are logged and reported, and the loop
// keeps the previous list. It returns when ctx is cancelled.
func refreshConfig(ctx context.Context, client *http.Client, configURL, configAuthUser, configAuthPass string, cfg *Config, logger *slog.Logger, interval time.Duration, maxRetries int) {
	for {
		cities, err := loadConfigFromURL(ctx, client, configURL, configAuthUser, configAuthPass, maxRetries)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Stopping config refresh routine")
				return
			}
			report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
				Tags:  utils.MakeMap("config_url", configURL),
				Level: sentry.LevelError,
			})
			logger.Error("Failed to refresh remote config", "error", err)
		} else {
			cfg.UpdateConfig(cities)
			logger.Info("Successfully refreshed city configuration", "cities", len(cities))
		}

		select {
		case <-ctx.Done():
			logger.Info("Stopping config refresh routine")
			return
		case <-time.After(interval):
		}
	}
}

// loadConfigFromFile reads a JSON array of city configurations from disk.
func loadConfigFromFile(filePath string) ([]models.CityConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseCities(data)
}

// loadConfigFromURL fetches a JSON array of city configurations from a remote
// HTTP(S) endpoint, using optional basic authentication.
func loadConfigFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) ([]models.CityConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if authUser != "" && authPass != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote config returned status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote config: %w", err)
	}

	return parseCities(data)
}

func parseCities(data []byte) ([]models.CityConfig, error) {
	var cities []models.CityConfig
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if err := ValidateCities(cities); err != nil {
		return nil, fmt.Errorf("invalid city configuration: %w", err)
	}
	return cities, nil
}
