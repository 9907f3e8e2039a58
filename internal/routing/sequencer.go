package routing

import (
	"routegen.busfleet.org/internal/geo"
	"routegen.busfleet.org/internal/models"
)

// OrderStops arranges stops into a single open path with a greedy
// nearest-neighbour walk. The walk starts at the northernmost stop; ties on
// latitude and on distance go to the stop seen first in input order.
//
// The result is a new slice holding exactly the input stops. The heuristic
// does not backtrack, so adversarial layouts can yield a longer path than optimal.
func OrderStops(stops []models.Stop) []models.Stop {
	ordered := make([]models.Stop, 0, len(stops))
	if len(stops) < 2 {
		return append(ordered, stops...)
	}

	start := northernmost(stops)
	remaining := make([]models.Stop, 0, len(stops)-1)
	remaining = append(remaining, stops[:start]...)
	remaining = append(remaining, stops[start+1:]...)

	current := stops[start]
	ordered = append(ordered, current)
	for len(remaining) > 0 {
		next := 0
		best := geo.DistanceKm(current.Point(), remaining[0].Point())
		for i := 1; i < len(remaining); i++ {
			if d := geo.DistanceKm(current.Point(), remaining[i].Point()); d < best {
				best = d
				next = i
			}
		}
		current = remaining[next]
		ordered = append(ordered, current)
		remaining = append(remaining[:next], remaining[next+1:]...)
	}
	return ordered
}

// northernmost returns the index of the stop with the greatest latitude,
// the first one on ties.
func northernmost(stops []models.Stop) int {
	best := 0
	for i := 1; i < len(stops); i++ {
		if stops[i].Lat > stops[best].Lat {
			best = i
		}
	}
	return best
}
