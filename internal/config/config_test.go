package config

import (
	"testing"

	"routegen.busfleet.org/internal/models"
)

func TestConfigCityLookup(t *testing.T) {
	cfg := NewConfig(4000, "testing", []models.CityConfig{
		{Name: "San Jose", StopSource: models.StopSourceSQLite},
		{Name: "sample"},
	})

	tests := []struct {
		query string
		want  string
		found bool
	}{
		{"San Jose", "San Jose", true},
		{"san-jose", "San Jose", true},
		{"SAMPLE", "sample", true},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			city, ok := cfg.City(tt.query)
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, ok)
			}
			if city.Name != tt.want {
				t.Errorf("expected city %q, got %q", tt.want, city.Name)
			}
		})
	}
}

func TestConfigGetCitiesReturnsCopy(t *testing.T) {
	cfg := NewConfig(4000, "testing", []models.CityConfig{{Name: "sample"}})

	cities := cfg.GetCities()
	cities[0].Name = "changed"

	if cfg.GetCities()[0].Name != "sample" {
		t.Error("GetCities must not expose the internal slice")
	}

	cfg.UpdateConfig([]models.CityConfig{{Name: "a"}, {Name: "b"}})
	if n := len(cfg.GetCities()); n != 2 {
		t.Errorf("expected 2 cities after update, got %d", n)
	}
}
