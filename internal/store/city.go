package store

import (
	"context"
	"errors"
	"fmt"

	"routegen.busfleet.org/internal/models"
)

// ErrUnknownCity is returned for a city that is not configured.
var ErrUnknownCity = errors.New("unknown city")

// CitySource loads the stops of one configured city.
type CitySource interface {
	CityStops(ctx context.Context, city models.CityConfig) ([]models.Stop, error)
}

// CityLookup resolves a city name to its configuration.
type CityLookup interface {
	City(name string) (models.CityConfig, bool)
}

// CityStopStore routes stop requests to the source configured for each city.
type CityStopStore struct {
	Cities  CityLookup
	Sources map[models.StopSource]CitySource
}

func NewCityStopStore(cities CityLookup, sources map[models.StopSource]CitySource) *CityStopStore {
	return &CityStopStore{Cities: cities, Sources: sources}
}

func (s *CityStopStore) GetStops(ctx context.Context, city string) ([]models.Stop, error) {
	cfg, ok := s.Cities.City(city)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	source, ok := s.Sources[cfg.Source()]
	if !ok || source == nil {
		return nil, fmt.Errorf("no %s stop source available for city %s", cfg.Source(), cfg.Name)
	}
	return source.CityStops(ctx, cfg)
}
