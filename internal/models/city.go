package models

// StopSource names where a city's stops come from.
type StopSource string

const (
	StopSourceSQLite StopSource = "sqlite"
	StopSourceGTFS   StopSource = "gtfs"
	StopSourceOBA    StopSource = "oba"
)

// CityConfig describes one city the generator can serve.
type CityConfig struct {
	Name         string     `json:"name"`
	StopSource   StopSource `json:"stop_source"`
	GtfsUrl      string     `json:"gtfs_url"`
	ObaBaseURL   string     `json:"oba_base_url"`
	ObaApiKey    string     `json:"oba_api_key"`
	CenterLat    float64    `json:"center_lat"`
	CenterLon    float64    `json:"center_lon"`
	RadiusMeters float64    `json:"radius_m"`
	MaxClusters  int        `json:"max_clusters"`
}

// Source returns the configured stop source, defaulting to SQLite.
func (c CityConfig) Source() StopSource {
	if c.StopSource == "" {
		return StopSourceSQLite
	}
	return c.StopSource
}
