package routing

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"routegen.busfleet.org/internal/models"
)

// sampleStops is two well separated groups of three stops.
func sampleStops() []models.Stop {
	return []models.Stop{
		{StopID: "s1", StopName: "S1", Lat: 11.00, Lng: 76.90},
		{StopID: "s2", StopName: "S2", Lat: 11.01, Lng: 76.91},
		{StopID: "s3", StopName: "S3", Lat: 11.02, Lng: 76.92},
		{StopID: "s4", StopName: "S4", Lat: 10.80, Lng: 76.70},
		{StopID: "s5", StopName: "S5", Lat: 10.81, Lng: 76.71},
		{StopID: "s6", StopName: "S6", Lat: 10.82, Lng: 76.72},
	}
}

// sharedLocationStops puts three stops on each of two coordinates, as GTFS
// platforms of one station often are.
func sharedLocationStops() []models.Stop {
	return []models.Stop{
		{StopID: "n1", StopName: "N1", Lat: 11.0, Lng: 76.9},
		{StopID: "n2", StopName: "N2", Lat: 11.0, Lng: 76.9},
		{StopID: "n3", StopName: "N3", Lat: 11.0, Lng: 76.9},
		{StopID: "m1", StopName: "M1", Lat: 10.8, Lng: 76.7},
		{StopID: "m2", StopName: "M2", Lat: 10.8, Lng: 76.7},
		{StopID: "m3", StopName: "M3", Lat: 10.8, Lng: 76.7},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStopStore struct {
	stops map[string][]models.Stop
	err   error
}

func (f *fakeStopStore) GetStops(_ context.Context, city string) ([]models.Stop, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Stop(nil), f.stops[city]...), nil
}

// fakePathService returns a densified copy of the input, or err.
type fakePathService struct {
	mu    sync.Mutex
	calls int
	err   error
	empty bool
}

func (f *fakePathService) RoadPath(ctx context.Context, points []models.Point) ([]models.Point, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return nil, nil
	}
	path := make([]models.Point, 0, 2*len(points)-1)
	for i, p := range points {
		if i > 0 {
			prev := points[i-1]
			path = append(path, models.Point{Lat: (prev.Lat + p.Lat) / 2, Lng: (prev.Lng + p.Lng) / 2})
		}
		path = append(path, p)
	}
	return path, nil
}

func (f *fakePathService) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func stopIDs(stops []models.Stop) []string {
	ids := make([]string, len(stops))
	for i, s := range stops {
		ids[i] = s.StopID
	}
	return ids
}
