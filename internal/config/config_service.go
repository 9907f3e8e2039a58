package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/report"
	"routegen.busfleet.org/internal/utils"
)

// DefaultRefreshInterval is how often a remote city configuration is re-read.
const DefaultRefreshInterval = time.Minute

// ConfigService holds dependencies and provides config operations.
type ConfigService struct {
	Logger     *slog.Logger
	Client     *http.Client
	Config     *Config
	MaxRetries int
}

// NewConfigService creates a new ConfigService instance with the provided logger and HTTP client.
func NewConfigService(logger *slog.Logger, client *http.Client, config *Config) *ConfigService {
	return &ConfigService{
		Logger:     logger,
		Client:     client,
		Config:     config,
		MaxRetries: 3,
	}
}

// RefreshConfig blocks, re-reading the remote configuration every interval until ctx is cancelled.
func (cs *ConfigService) RefreshConfig(ctx context.Context, url, authUser, authPass string, interval time.Duration) {
	refreshConfig(ctx, cs.Client, url, authUser, authPass, cs.Config, cs.Logger, interval, cs.MaxRetries)
}

// LoadConfigFromFile reads the city list from a local JSON file.
func LoadConfigFromFile(filePath string) ([]models.CityConfig, error) {
	cities, err := loadConfigFromFile(filePath)
	if err != nil {
		err := fmt.Errorf("failed to load config from file %s: %w", filePath, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("file_path", filePath),
			Level: sentry.LevelError,
		})
		return nil, err
	}
	return cities, nil
}

// LoadConfigFromURL reads the city list from a remote JSON document.
func LoadConfigFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) ([]models.CityConfig, error) {
	cities, err := loadConfigFromURL(ctx, client, url, authUser, authPass, maxRetries)
	if err != nil {
		err := fmt.Errorf("failed to load config from URL %s: %w", url, err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return nil, err
	}
	return cities, nil
}
