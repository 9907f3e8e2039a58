package routing

import "routegen.busfleet.org/internal/models"

// InitStrategy selects how the partitioner seeds its initial centroids.
type InitStrategy string

const (
	// InitFarthestPoint seeds with the northernmost stop, then repeatedly with
	// the stop farthest from every centroid chosen so far. Fully deterministic.
	InitFarthestPoint InitStrategy = "farthest_point"
	// InitRandom seeds with distinct stops drawn by a PCG generator keyed on Policy.Seed.
	InitRandom InitStrategy = "random"
)

const (
	DefaultMaxClusters     = 7
	DefaultAverageSpeedKmh = 20.0
	DefaultMaxIterations   = 100
	DefaultMinClusterSize  = 2
	DefaultPathConcurrency = 4
)

// Policy holds the tunable heuristics of a generation run. The bus type
// round-robin and the flat average speed are placeholders, not calibrated rules.
type Policy struct {
	MaxClusters     int
	AverageSpeedKmh float64
	BusTypes        []models.BusType
	Init            InitStrategy
	Seed            uint64
	MaxIterations   int
	MinClusterSize  int
	PathConcurrency int
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxClusters:     DefaultMaxClusters,
		AverageSpeedKmh: DefaultAverageSpeedKmh,
		BusTypes:        append([]models.BusType(nil), models.DefaultBusTypes...),
		Init:            InitFarthestPoint,
		MaxIterations:   DefaultMaxIterations,
		MinClusterSize:  DefaultMinClusterSize,
		PathConcurrency: DefaultPathConcurrency,
	}
}

// withDefaults fills zero fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxClusters <= 0 {
		p.MaxClusters = d.MaxClusters
	}
	if p.AverageSpeedKmh <= 0 {
		p.AverageSpeedKmh = d.AverageSpeedKmh
	}
	if len(p.BusTypes) == 0 {
		p.BusTypes = d.BusTypes
	}
	if p.Init == "" {
		p.Init = d.Init
	}
	if p.MaxIterations <= 0 {
		p.MaxIterations = d.MaxIterations
	}
	if p.MinClusterSize <= 0 {
		p.MinClusterSize = d.MinClusterSize
	}
	if p.PathConcurrency <= 0 {
		p.PathConcurrency = d.PathConcurrency
	}
	return p
}

// busTypeFor returns the round-robin bus type for a cluster index.
func (p Policy) busTypeFor(clusterIndex int) models.BusType {
	types := p.BusTypes
	if len(types) == 0 {
		types = models.DefaultBusTypes
	}
	return types[clusterIndex%len(types)]
}

// travelMinutes converts a distance to minutes at the policy's average speed.
func (p Policy) travelMinutes(distanceKm float64) float64 {
	speed := p.AverageSpeedKmh
	if speed <= 0 {
		speed = DefaultAverageSpeedKmh
	}
	return distanceKm / (speed / 60.0)
}
