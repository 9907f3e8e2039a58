package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationRuns counts generation runs per city by outcome.
	GenerationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routegen_generation_runs_total",
		Help: "Number of route generation runs, labelled by outcome",
	}, []string{"city", "outcome"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routegen_generation_duration_seconds",
		Help:    "Wall time of route generation runs",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"city"})
)

var (
	RoutesGenerated = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "routegen_routes",
		Help: "Number of routes produced by the last successful run",
	}, []string{"city"})

	StopsClustered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "routegen_stops_clustered",
		Help: "Number of stops partitioned by the last successful run",
	}, []string{"city"})

	OutliersReassigned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routegen_outliers_reassigned_total",
		Help: "Stops moved from dissolved clusters to the nearest surviving cluster",
	}, []string{"city"})

	PathFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routegen_path_fallbacks_total",
		Help: "Routes that kept straight-line paths because the path service failed",
	}, []string{"city"})
)

var (
	// OutgoingLatency tracks requests made through the pooled HTTP client.
	OutgoingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routegen_outgoing_request_duration_seconds",
		Help:    "Latency of outgoing HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"host", "method", "status"})
)
