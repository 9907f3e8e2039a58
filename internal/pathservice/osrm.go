package pathservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"routegen.busfleet.org/internal/models"
)

const (
	// DefaultOSRMBaseURL is the public OSRM demo server.
	DefaultOSRMBaseURL = "https://router.project-osrm.org"
	DefaultProfile     = "driving"
	// DefaultMaxWaypoints matches the coordinate limit of the OSRM demo server.
	DefaultMaxWaypoints = 100
)

// osrmRouteResponse is the subset of the OSRM route service response we read.
type osrmRouteResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"` // in meters
	Duration float64 `json:"duration"` // in seconds
	Geometry struct {
		Type        string       `json:"type"`
		Coordinates [][2]float64 `json:"coordinates"` // [lng, lat]
	} `json:"geometry"`
}

// OSRMService fetches road-following paths from an OSRM route service.
type OSRMService struct {
	BaseURL      string
	Profile      string
	MaxWaypoints int
	Client       *http.Client
	Logger       *slog.Logger
}

// NewOSRMService creates an OSRMService. An empty baseURL selects the public
// demo server and a nil client gets a 10 second timeout.
func NewOSRMService(baseURL string, client *http.Client, logger *slog.Logger) *OSRMService {
	if baseURL == "" {
		baseURL = DefaultOSRMBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OSRMService{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Profile:      DefaultProfile,
		MaxWaypoints: DefaultMaxWaypoints,
		Client:       client,
		Logger:       logger,
	}
}

// RoadPath asks OSRM for a route through points, in order, and returns its
// full-resolution geometry. No retries are made; callers fall back on error.
func (s *OSRMService) RoadPath(ctx context.Context, points []models.Point) ([]models.Point, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("at least 2 points required, got %d", len(points))
	}
	if s.MaxWaypoints > 0 && len(points) > s.MaxWaypoints {
		return nil, fmt.Errorf("%d points exceed the OSRM waypoint limit of %d", len(points), s.MaxWaypoints)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.routeURL(points), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSRM request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call OSRM: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read OSRM response: %w", err)
	}

	var route osrmRouteResponse
	if err := json.Unmarshal(body, &route); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("OSRM returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode OSRM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || route.Code != "Ok" {
		return nil, fmt.Errorf("OSRM returned status %d code %q: %s", resp.StatusCode, route.Code, route.Message)
	}
	if len(route.Routes) == 0 || len(route.Routes[0].Geometry.Coordinates) == 0 {
		return nil, fmt.Errorf("OSRM returned no route geometry")
	}

	coords := route.Routes[0].Geometry.Coordinates
	path := make([]models.Point, len(coords))
	for i, c := range coords {
		path[i] = models.Point{Lat: c[1], Lng: c[0]}
	}

	if s.Logger != nil {
		s.Logger.Debug("Fetched road path",
			"waypoints", len(points),
			"path_points", len(path),
			"distance_m", route.Routes[0].Distance,
		)
	}
	return path, nil
}

// routeURL builds {base}/route/v1/{profile}/{lng,lat;lng,lat...}.
func (s *OSRMService) routeURL(points []models.Point) string {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
	}
	profile := s.Profile
	if profile == "" {
		profile = DefaultProfile
	}
	return fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=geojson", s.BaseURL, profile, strings.Join(coords, ";"))
}
