package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	onebusaway "github.com/OneBusAway/go-sdk"
	"github.com/OneBusAway/go-sdk/option"
	"routegen.busfleet.org/internal/geo"
	"routegen.busfleet.org/internal/models"
)

// OBAStopStore lists a city's stops from a OneBusAway server, searching a
// circle around the configured centre.
type OBAStopStore struct {
	Client *http.Client
	Logger *slog.Logger
}

func NewOBAStopStore(client *http.Client, logger *slog.Logger) *OBAStopStore {
	return &OBAStopStore{Client: client, Logger: logger}
}

func (s *OBAStopStore) CityStops(ctx context.Context, city models.CityConfig) ([]models.Stop, error) {
	if city.ObaBaseURL == "" {
		return nil, fmt.Errorf("city %s has no oba_base_url", city.Name)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(city.ObaApiKey),
		option.WithBaseURL(withTrailingSlash(city.ObaBaseURL)),
		option.WithMaxRetries(0),
	}
	if s.Client != nil {
		opts = append(opts, option.WithHTTPClient(s.Client))
	}
	client := onebusaway.NewClient(opts...)

	response, err := client.StopsForLocation.List(ctx, onebusaway.StopsForLocationListParams{
		Lat:    onebusaway.F(city.CenterLat),
		Lon:    onebusaway.F(city.CenterLon),
		Radius: onebusaway.F(city.RadiusMeters),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stops for %s: %w", city.Name, err)
	}
	if response == nil {
		return []models.Stop{}, nil
	}
	if response.Data.LimitExceeded {
		s.Logger.Warn("OneBusAway stop search limit exceeded, stop list is partial", "city", city.Name)
	}

	seen := make(map[string]struct{}, len(response.Data.List))
	stops := make([]models.Stop, 0, len(response.Data.List))
	for _, stop := range response.Data.List {
		if _, dup := seen[stop.ID]; dup {
			continue
		}
		if !geo.IsValidLatLon(stop.Lat, stop.Lon) {
			continue
		}
		seen[stop.ID] = struct{}{}
		stops = append(stops, *models.NewStop(stop.ID, stop.Name, stop.Lat, stop.Lon))
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].StopID < stops[j].StopID })

	s.Logger.Info("Loaded OneBusAway stops", "city", city.Name, "stops", len(stops))
	return stops, nil
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
