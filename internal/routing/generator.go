package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"routegen.busfleet.org/internal/models"
)

// StopStore supplies the stops of a city.
type StopStore interface {
	GetStops(ctx context.Context, city string) ([]models.Stop, error)
}

// Generator drives a full generation run for one city: load stops, partition,
// then synthesize one route per cluster. It never persists anything; the
// caller owns the returned result.
type Generator struct {
	Stops       StopStore
	Synthesizer *Synthesizer
	Policy      Policy
	Logger      *slog.Logger
	newRunID    func() string
}

// NewGenerator wires a Generator with the given collaborators.
func NewGenerator(stops StopStore, paths PathService, policy Policy, logger *slog.Logger) *Generator {
	policy = policy.withDefaults()
	return &Generator{
		Stops:       stops,
		Synthesizer: NewSynthesizer(paths, policy, logger),
		Policy:      policy,
		Logger:      logger,
		newRunID:    uuid.NewString,
	}
}

// RunOption adjusts a single generation run.
type RunOption func(*runOptions)

type runOptions struct {
	maxClusters int
}

// WithMaxClusters overrides the policy's cluster limit for one run.
func WithMaxClusters(n int) RunOption {
	return func(o *runOptions) {
		if n > 0 {
			o.maxClusters = n
		}
	}
}

// GenerateRoutes runs the generator for city.
//
// Path requests for different clusters run concurrently, bounded by
// Policy.PathConcurrency. If ctx is cancelled the run fails and no partial
// result is returned.
func (g *Generator) GenerateRoutes(ctx context.Context, city string, opts ...RunOption) (*models.GenerationResult, error) {
	o := runOptions{maxClusters: g.Policy.MaxClusters}
	for _, opt := range opts {
		opt(&o)
	}

	runID := uuid.NewString()
	if g.newRunID != nil {
		runID = g.newRunID()
	}
	logger := g.logger().With("city", city, "run_id", runID)

	stops, err := g.Stops.GetStops(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("failed to load stops for city %s: %w", city, err)
	}
	if len(stops) < 2 {
		return nil, &InsufficientDataError{City: city, Stops: len(stops), Reason: "at least 2 stops required"}
	}
	logger.Info("Starting route generation", "stops", len(stops), "max_clusters", o.maxClusters)

	partitioning, err := Partition(stops, o.maxClusters, g.Policy)
	if err != nil {
		var insufficient *InsufficientDataError
		if errors.As(err, &insufficient) {
			insufficient.City = city
		}
		return nil, err
	}
	if !partitioning.Converged {
		logger.Warn("Clustering did not converge", "iterations", partitioning.Iterations)
	}

	routes := make([]*models.GeneratedRoute, len(partitioning.Clusters))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(g.Policy.PathConcurrency, 1))
	for i, cluster := range partitioning.Clusters {
		group.Go(func() error {
			route, err := g.Synthesizer.Synthesize(groupCtx, cluster, i, city)
			if err != nil {
				return err
			}
			routes[i] = route
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("route generation for city %s aborted: %w", city, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("route generation for city %s aborted: %w", city, err)
	}

	result := &models.GenerationResult{
		RunID:  runID,
		City:   city,
		Routes: make([]models.GeneratedRoute, 0, len(routes)),
		Stats: models.GenerationStats{
			Stops:              len(stops),
			Clusters:           len(partitioning.Clusters),
			OutliersReassigned: partitioning.Outliers,
		},
	}
	for _, route := range routes {
		if route == nil {
			result.Stats.DroppedClusters++
			continue
		}
		if route.PathFallback {
			result.Stats.PathFallbacks++
		}
		result.Routes = append(result.Routes, *route)
	}

	logger.Info("Route generation finished",
		"clusters", result.Stats.Clusters,
		"routes", len(result.Routes),
		"outliers", result.Stats.OutliersReassigned,
		"path_fallbacks", result.Stats.PathFallbacks,
	)
	return result, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}
