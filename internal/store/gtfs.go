package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	remoteGtfs "github.com/jamespfennell/gtfs"
	"routegen.busfleet.org/internal/config"
	"routegen.busfleet.org/internal/geo"
	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/report"
	"routegen.busfleet.org/internal/utils"
)

// DefaultBundleTTL is how long a parsed GTFS bundle is served before it is downloaded again.
const DefaultBundleTTL = 24 * time.Hour

type cachedStops struct {
	url       string
	stops     []models.Stop
	fetchedAt time.Time
}

// GTFSStopStore reads a city's stops from its GTFS static bundle.
// Parsed stop lists are kept in memory per city. When CacheDir is set, every
// downloaded bundle is also written to disk and used if a later download fails.
type GTFSStopStore struct {
	Client     *http.Client
	Logger     *slog.Logger
	CacheDir   string
	MaxRetries int
	TTL        time.Duration

	backoff *config.BackoffStore
	mu      sync.RWMutex
	cache   map[string]cachedStops
	now     func() time.Time
}

// NewGTFSStopStore creates a GTFSStopStore. A nil client gets a 30 second timeout.
func NewGTFSStopStore(client *http.Client, logger *slog.Logger, cacheDir string) *GTFSStopStore {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GTFSStopStore{
		Client:     client,
		Logger:     logger,
		CacheDir:   cacheDir,
		MaxRetries: 3,
		TTL:        DefaultBundleTTL,
		backoff:    config.NewBackoffStore(),
		cache:      make(map[string]cachedStops),
		now:        time.Now,
	}
}

// CityStops returns the stops of city's GTFS bundle.
func (s *GTFSStopStore) CityStops(ctx context.Context, city models.CityConfig) ([]models.Stop, error) {
	if city.GtfsUrl == "" {
		return nil, fmt.Errorf("city %s has no gtfs_url", city.Name)
	}
	key := utils.CitySlug(city.Name)
	now := s.now()

	cached, ok := s.cached(key)
	if ok && cached.url == city.GtfsUrl && now.Sub(cached.fetchedAt) < s.TTL {
		return append([]models.Stop(nil), cached.stops...), nil
	}
	if ok && s.backoff.ShouldWait(key, now) {
		s.Logger.Warn("GTFS bundle download backing off, serving stale stops", "city", city.Name)
		return append([]models.Stop(nil), cached.stops...), nil
	}

	stops, err := s.refresh(ctx, city)
	if err != nil {
		if ok {
			s.Logger.Warn("GTFS bundle refresh failed, serving stale stops", "city", city.Name, "error", err)
			return append([]models.Stop(nil), cached.stops...), nil
		}
		return nil, err
	}
	return append([]models.Stop(nil), stops...), nil
}

func (s *GTFSStopStore) cached(key string) (cachedStops, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	return entry, ok
}

func (s *GTFSStopStore) refresh(ctx context.Context, city models.CityConfig) ([]models.Stop, error) {
	key := utils.CitySlug(city.Name)
	tags := utils.MakeMap("city", city.Name)

	data, err := LoadBundle(ctx, s.Client, city.GtfsUrl, s.MaxRetries)
	if err != nil {
		s.backoff.UpdateBackoff(key)
		if ctx.Err() != nil {
			return nil, err
		}
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:         tags,
			ExtraContext: map[string]interface{}{"gtfs_url": city.GtfsUrl},
			Level:        sentry.LevelError,
		})
		data, err = s.readCachedBundle(city, err)
		if err != nil {
			return nil, err
		}
	} else {
		s.backoff.ResetBackoff(key)
		s.writeCachedBundle(city, data)
	}

	stops, skipped, err := ParseStops(data)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:         tags,
			ExtraContext: map[string]interface{}{"gtfs_url": city.GtfsUrl},
			Level:        sentry.LevelError,
		})
		return nil, fmt.Errorf("failed to parse GTFS bundle of %s: %w", city.Name, err)
	}
	s.Logger.Info("Loaded GTFS stops", "city", city.Name, "stops", len(stops), "skipped", skipped)

	s.mu.Lock()
	s.cache[key] = cachedStops{url: city.GtfsUrl, stops: stops, fetchedAt: s.now()}
	s.mu.Unlock()
	return stops, nil
}

func (s *GTFSStopStore) readCachedBundle(city models.CityConfig, downloadErr error) ([]byte, error) {
	if s.CacheDir == "" {
		return nil, downloadErr
	}
	path, err := utils.GetLastCachedFile(s.CacheDir, city.Name)
	if err != nil {
		return nil, fmt.Errorf("%w (no cached bundle: %v)", downloadErr, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w (cached bundle unreadable: %v)", downloadErr, err)
	}
	s.Logger.Warn("Using cached GTFS bundle", "city", city.Name, "path", path, "error", downloadErr)
	return data, nil
}

func (s *GTFSStopStore) writeCachedBundle(city models.CityConfig, data []byte) {
	if s.CacheDir == "" {
		return
	}
	if err := utils.CreateCacheDirectory(s.CacheDir, s.Logger); err != nil {
		s.Logger.Error("Failed to create cache directory", "cache_dir", s.CacheDir, "error", err)
		return
	}
	path := utils.CachedBundlePath(s.CacheDir, city.Name, city.GtfsUrl)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.Logger.Error("Failed to cache GTFS bundle", "city", city.Name, "path", path, "error", err)
	}
}

// LoadBundle reads a GTFS zip from an http(s) URL, with retries, or from a local file path.
func LoadBundle(ctx context.Context, client *http.Client, source string, maxRetries int) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read GTFS bundle %s: %w", source, err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", source, err)
	}

	resp, err := config.DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to make GET request to %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status %d when downloading GTFS bundle from %s", resp.StatusCode, source)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GTFS bundle response body from %s: %w", source, err)
	}
	return data, nil
}

// ParseStops extracts boardable stops (location type 0) from a GTFS zip,
// sorted by stop ID. Stops without a usable location are skipped and counted.
func ParseStops(data []byte) ([]models.Stop, int, error) {
	static, err := remoteGtfs.ParseStatic(data, remoteGtfs.ParseStaticOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse GTFS static data: %w", err)
	}

	stops := make([]models.Stop, 0, len(static.Stops))
	skipped := 0
	for _, stop := range static.Stops {
		if stop.Type != 0 {
			continue
		}
		if stop.Latitude == nil || stop.Longitude == nil || !geo.IsValidLatLon(*stop.Latitude, *stop.Longitude) {
			skipped++
			continue
		}
		stops = append(stops, *models.NewStop(stop.Id, stop.Name, *stop.Latitude, *stop.Longitude))
	}

	sort.Slice(stops, func(i, j int) bool { return stops[i].StopID < stops[j].StopID })
	return stops, skipped, nil
}
