package routing

import (
	"fmt"
	"math/rand/v2"

	"routegen.busfleet.org/internal/geo"
	"routegen.busfleet.org/internal/models"
)

// Cluster is a transient group of stops that becomes at most one route.
// Members keep the input order of the stops.
type Cluster struct {
	Index    int
	Members  []models.Stop
	Centroid models.Point
}

// Partitioning is the outcome of Partition.
type Partitioning struct {
	Clusters   []Cluster
	Outliers   int
	Iterations int
	Converged  bool
}

// Partition splits stops into at most maxClusters clusters with Lloyd's k-means
// over (lat, lng), using k = min(maxClusters, len(stops)/2), further capped at
// the number of distinct coordinates. Stops sharing a coordinate are common in
// GTFS feeds and only reduce k; a PartitionError is returned when every stop
// sits on the same coordinate and more than one cluster was asked for.
//
// Clusters left with fewer than policy.MinClusterSize members are dissolved and
// their stops treated as outliers: each outlier joins the surviving cluster
// whose centroid is nearest by great-circle distance, lower index on ties.
// Every input stop ends up in exactly one cluster; dissolved clusters are
// returned empty so indexes stay 0..k-1. Singleton stops are therefore kept
// rather than dropped, and with MinClusterSize >= 2 no cluster reaches the
// synthesizer with a single member.
func Partition(stops []models.Stop, maxClusters int, policy Policy) (*Partitioning, error) {
	policy = policy.withDefaults()

	k := min(maxClusters, len(stops)/2)
	if k < 1 {
		return nil, &InsufficientDataError{
			Stops:  len(stops),
			Reason: fmt.Sprintf("cannot form a cluster (max clusters %d)", maxClusters),
		}
	}

	points := models.StopPoints(stops)
	for i, p := range points {
		if !geo.IsFinite(p) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return nil, &PartitionError{
				Reason: fmt.Sprintf("stop %q has an unusable coordinate (%v, %v)", stops[i].StopID, p.Lat, p.Lng),
			}
		}
	}

	distinct := distinctLocations(points)
	if distinct == 1 && k > 1 {
		return nil, &PartitionError{Reason: fmt.Sprintf("all %d stops share one coordinate", len(stops))}
	}
	k = min(k, distinct)

	var (
		initial []models.Point
		err     error
	)
	switch policy.Init {
	case InitRandom:
		initial, err = randomCentroids(points, k, policy.Seed)
	case InitFarthestPoint:
		initial, err = farthestPointCentroids(points, k)
	default:
		err = fmt.Errorf("unknown init strategy %q", policy.Init)
	}
	if err != nil {
		return nil, &PartitionError{Reason: "cannot seed centroids", Err: err}
	}

	assign, centroids, iterations, converged := lloyd(points, initial, policy.MaxIterations)

	sizes := make([]int, k)
	for _, c := range assign {
		sizes[c]++
	}
	surviving := make([]bool, k)
	anySurvivor := false
	for c, n := range sizes {
		if n >= policy.MinClusterSize {
			surviving[c] = true
			anySurvivor = true
		}
	}
	if !anySurvivor {
		largest := 0
		for c := 1; c < k; c++ {
			if sizes[c] > sizes[largest] {
				largest = c
			}
		}
		surviving[largest] = true
	}

	outliers := 0
	for i, c := range assign {
		if surviving[c] {
			continue
		}
		assign[i] = nearestCentroidKm(points[i], centroids, surviving)
		outliers++
	}

	clusters := make([]Cluster, k)
	for c := range clusters {
		clusters[c].Index = c
		clusters[c].Centroid = centroids[c]
	}
	for i, c := range assign {
		clusters[c].Members = append(clusters[c].Members, stops[i])
	}
	for c := range clusters {
		if len(clusters[c].Members) > 0 {
			clusters[c].Centroid = geo.Centroid(models.StopPoints(clusters[c].Members))
		}
	}

	return &Partitioning{
		Clusters:   clusters,
		Outliers:   outliers,
		Iterations: iterations,
		Converged:  converged,
	}, nil
}

func distinctLocations(points []models.Point) int {
	seen := make(map[models.Point]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// lloyd runs k-means until assignments stop changing or maxIter is reached.
// An empty cluster keeps its previous centroid.
func lloyd(points, initial []models.Point, maxIter int) (assign []int, centroids []models.Point, iterations int, converged bool) {
	k := len(initial)
	centroids = append([]models.Point(nil), initial...)
	assign = make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	for iterations = 1; iterations <= maxIter; iterations++ {
		changed := false
		for i, p := range points {
			c := nearestCentroidSq(p, centroids)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			return assign, centroids, iterations, true
		}

		sumLat := make([]float64, k)
		sumLng := make([]float64, k)
		counts := make([]int, k)
		for i, c := range assign {
			sumLat[c] += points[i].Lat
			sumLng[c] += points[i].Lng
			counts[c]++
		}
		for c := range centroids {
			if counts[c] > 0 {
				centroids[c] = models.Point{
					Lat: sumLat[c] / float64(counts[c]),
					Lng: sumLng[c] / float64(counts[c]),
				}
			}
		}
	}
	return assign, centroids, maxIter, false
}

// sqDist is the squared Euclidean distance in degree space.
func sqDist(a, b models.Point) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat + dLng*dLng
}

func nearestCentroidSq(p models.Point, centroids []models.Point) int {
	best := 0
	bestDist := sqDist(p, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := sqDist(p, centroids[c]); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// nearestCentroidKm picks the closest allowed centroid by great-circle distance.
func nearestCentroidKm(p models.Point, centroids []models.Point, allowed []bool) int {
	best := -1
	bestDist := 0.0
	for c, centroid := range centroids {
		if !allowed[c] {
			continue
		}
		d := geo.DistanceKm(p, centroid)
		if best == -1 || d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// farthestPointCentroids seeds with the northernmost point, then adds the point
// with the largest distance to its nearest chosen centroid. Ties go to the
// earlier point, so the result depends only on input order.
func farthestPointCentroids(points []models.Point, k int) ([]models.Point, error) {
	first := 0
	for i := 1; i < len(points); i++ {
		if points[i].Lat > points[first].Lat {
			first = i
		}
	}
	centroids := []models.Point{points[first]}

	nearest := make([]float64, len(points))
	for i, p := range points {
		nearest[i] = sqDist(p, points[first])
	}

	for len(centroids) < k {
		pick := -1
		for i := range points {
			if nearest[i] > 0 && (pick == -1 || nearest[i] > nearest[pick]) {
				pick = i
			}
		}
		if pick == -1 {
			return nil, fmt.Errorf("only %d distinct locations for %d clusters", len(centroids), k)
		}
		centroids = append(centroids, points[pick])
		for i, p := range points {
			nearest[i] = min(nearest[i], sqDist(p, points[pick]))
		}
	}
	return centroids, nil
}

// randomCentroids draws k distinct locations in a seeded random order.
func randomCentroids(points []models.Point, k int, seed uint64) ([]models.Point, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	order := rng.Perm(len(points))

	centroids := make([]models.Point, 0, k)
	seen := make(map[models.Point]struct{}, k)
	for _, i := range order {
		if _, dup := seen[points[i]]; dup {
			continue
		}
		seen[points[i]] = struct{}{}
		centroids = append(centroids, points[i])
		if len(centroids) == k {
			return centroids, nil
		}
	}
	return nil, fmt.Errorf("only %d distinct locations for %d clusters", len(centroids), k)
}
