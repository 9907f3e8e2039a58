package metrics

import (
	"context"
	"errors"
	"time"

	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/routing"
	"routegen.busfleet.org/internal/utils"
)

const (
	OutcomeSuccess          = "success"
	OutcomeInsufficientData = "insufficient_data"
	OutcomePartitionError   = "partition_error"
	OutcomeCancelled        = "cancelled"
	OutcomeError            = "error"
)

// Outcome classifies the error of a generation run for the outcome label.
func Outcome(err error) string {
	var (
		insufficient *routing.InsufficientDataError
		partition    *routing.PartitionError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &insufficient):
		return OutcomeInsufficientData
	case errors.As(err, &partition):
		return OutcomePartitionError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}

// RecordRun exports one generation run. result may be nil when err is set.
func RecordRun(city string, result *models.GenerationResult, err error, elapsed time.Duration) {
	label := utils.CitySlug(city)
	GenerationRuns.WithLabelValues(label, Outcome(err)).Inc()
	GenerationDuration.WithLabelValues(label).Observe(elapsed.Seconds())

	if err != nil || result == nil {
		return
	}
	RoutesGenerated.WithLabelValues(label).Set(float64(len(result.Routes)))
	StopsClustered.WithLabelValues(label).Set(float64(result.Stats.Stops))
	OutliersReassigned.WithLabelValues(label).Add(float64(result.Stats.OutliersReassigned))
	PathFallbacks.WithLabelValues(label).Add(float64(result.Stats.PathFallbacks))
}
