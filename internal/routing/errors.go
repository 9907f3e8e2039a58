package routing

import "fmt"

// InsufficientDataError is returned when a city has too few stops to form a route.
// It is fatal to a generation run.
type InsufficientDataError struct {
	City   string
	Stops  int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.City == "" {
		return fmt.Sprintf("insufficient data: %s (got %d stops)", e.Reason, e.Stops)
	}
	return fmt.Sprintf("insufficient data for city %q: %s (got %d stops)", e.City, e.Reason, e.Stops)
}

// PartitionError is returned when stops cannot be clustered,
// e.g. non-finite coordinates or fewer distinct locations than clusters.
type PartitionError struct {
	Reason string
	Err    error
}

func (e *PartitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("partition failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("partition failed: %s", e.Reason)
}

func (e *PartitionError) Unwrap() error { return e.Err }

// PathServiceError describes a failed road path request for one route.
// It never escapes the synthesizer; the route falls back to straight lines.
type PathServiceError struct {
	RouteID string
	Err     error
}

func (e *PathServiceError) Error() string {
	return fmt.Sprintf("path service failed for route %s: %v", e.RouteID, e.Err)
}

func (e *PathServiceError) Unwrap() error { return e.Err }
