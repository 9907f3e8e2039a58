package config

import (
	"sync"

	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/utils"
)

// Config holds all the configuration settings for our application.
type Config struct {
	Port   int
	Env    string
	Mu     sync.RWMutex
	Cities []models.CityConfig
}

// NewConfig creates a new instance of a Config struct.
func NewConfig(port int, env string, cities []models.CityConfig) *Config {
	return &Config{
		Port:   port,
		Env:    env,
		Cities: cities,
	}
}

// UpdateConfig safely replaces the configured cities.
func (cfg *Config) UpdateConfig(newCities []models.CityConfig) {
	cfg.Mu.Lock()
	defer cfg.Mu.Unlock()
	cfg.Cities = newCities
}

// GetCities returns a copy of the cities slice so callers never share it
// with a concurrent refresh.
func (cfg *Config) GetCities() []models.CityConfig {
	cfg.Mu.RLock()
	defer cfg.Mu.RUnlock()
	return append([]models.CityConfig(nil), cfg.Cities...)
}

// City looks a city up by name. Matching ignores case and punctuation,
// so "San Jose" and "san-jose" are the same city.
func (cfg *Config) City(name string) (models.CityConfig, bool) {
	slug := utils.CitySlug(name)
	cfg.Mu.RLock()
	defer cfg.Mu.RUnlock()
	for _, city := range cfg.Cities {
		if utils.CitySlug(city.Name) == slug {
			return city, true
		}
	}
	return models.CityConfig{}, false
}
