package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"routegen.busfleet.org/internal/config"
	"routegen.busfleet.org/internal/models"
	"routegen.busfleet.org/internal/pathservice"
	"routegen.busfleet.org/internal/routing"
	"routegen.busfleet.org/internal/store"
)

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

// newTestApplication wires an Application over a temporary SQLite database
// holding the sample city and a city with a single stop.
func newTestApplication(t *testing.T, paths routing.PathService) *Application {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "routegen.db"), logger)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.UpsertStops(ctx, "sample", sampleStops()); err != nil {
		t.Fatalf("failed to seed stops: %v", err)
	}
	if _, err := db.UpsertStops(ctx, "tiny", sampleStops()[:1]); err != nil {
		t.Fatalf("failed to seed stops: %v", err)
	}

	cfg := config.NewConfig(4000, "testing", []models.CityConfig{
		{Name: "sample", MaxClusters: 3},
		{Name: "tiny"},
		{Name: "feed", StopSource: models.StopSourceGTFS, GtfsUrl: filepath.Join(t.TempDir(), "missing.zip")},
	})

	if paths == nil {
		paths = pathservice.StraightLine{}
	}
	return New(cfg, logger, http.DefaultClient, Options{
		SQLite:  db,
		Paths:   paths,
		Policy:  routing.DefaultPolicy(),
		Version: "test-version",
	})
}

func newTestServer(t *testing.T, app *Application) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(app.Routes(ctx))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return server
}

// blockingPaths never answers before the request context ends.
type blockingPaths struct{}

func (blockingPaths) RoadPath(ctx context.Context, _ []models.Point) ([]models.Point, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
