package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/getsentry/sentry-go"
	"routegen.busfleet.org/internal/geo"
	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/report"
	"routegen.busfleet.org/internal/utils"
)

// PathService turns an ordered list of at least two points into a road-following polyline.
type PathService interface {
	RoadPath(ctx context.Context, points []models.Point) ([]models.Point, error)
}

// Synthesizer turns one cluster into a GeneratedRoute.
type Synthesizer struct {
	Paths  PathService
	Policy Policy
	Logger *slog.Logger
}

// NewSynthesizer creates a Synthesizer. A nil PathService yields straight-line paths.
func NewSynthesizer(paths PathService, policy Policy, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		Paths:  paths,
		Policy: policy.withDefaults(),
		Logger: logger,
	}
}

// RouteID formats the identifier of the route built from a cluster, e.g. "R-SA-1".
func RouteID(city string, clusterIndex int) string {
	return fmt.Sprintf("R-%s-%d", utils.CityCode(city), clusterIndex+1)
}

// Synthesize builds the route for cluster. It returns nil without error when
// the cluster has fewer than two members.
//
// A failed road path request is not an error: the route keeps the straight-line
// stop coordinates and PathFallback is set. The only error returned is the
// context's, when the run was cancelled during the request.
func (s *Synthesizer) Synthesize(ctx context.Context, cluster Cluster, clusterIndex int, city string) (*models.GeneratedRoute, error) {
	if len(cluster.Members) < 2 {
		return nil, nil
	}

	ordered := OrderStops(cluster.Members)
	points := models.StopPoints(ordered)

	names := make([]string, len(ordered))
	ids := make([]string, len(ordered))
	for i, stop := range ordered {
		names[i] = stop.StopName
		ids[i] = stop.StopID
	}

	distance := geo.PathDistanceKm(points)
	if math.IsNaN(distance) || math.IsInf(distance, 0) {
		return nil, &PartitionError{Reason: fmt.Sprintf("non-finite distance for cluster %d", clusterIndex)}
	}

	route := &models.GeneratedRoute{
		RouteID:       RouteID(city, clusterIndex),
		RouteName:     fmt.Sprintf("%s to %s", names[0], names[len(names)-1]),
		BusType:       s.Policy.busTypeFor(clusterIndex),
		Stops:         names,
		StopIDs:       ids,
		TotalDistance: distance,
		TotalTime:     int(math.Round(s.Policy.travelMinutes(distance))),
		CentroidCell:  geo.CentroidCell(cluster.Centroid),
	}

	path, err := s.roadPath(ctx, points)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		pathErr := &PathServiceError{RouteID: route.RouteID, Err: err}
		s.logger().Warn("Falling back to straight-line path", "city", city, "route_id", route.RouteID, "error", err)
		report.ReportErrorWithSentryOptions(pathErr, report.SentryReportOptions{
			Tags: report.RunTags(city, ""),
			ExtraContext: map[string]interface{}{
				"route_id": route.RouteID,
				"stops":    len(points),
			},
			Level: sentry.LevelWarning,
		})
		path = points
		route.PathFallback = true
	}
	route.Path = path

	return route, nil
}

func (s *Synthesizer) roadPath(ctx context.Context, points []models.Point) ([]models.Point, error) {
	if s.Paths == nil {
		return points, nil
	}
	path, err := s.Paths.RoadPath(ctx, points)
	if err != nil {
		return nil, err
	}
	if len(path) == 0 {
		return nil, errors.New("path service returned an empty path")
	}
	return path, nil
}

func (s *Synthesizer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
