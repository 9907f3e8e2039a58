package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"routegen.busfleet.org/internal/models"
)

func TestSQLiteStops(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	n, err := s.UpsertStops(ctx, "Sample", []models.Stop{
		{StopID: "s2", StopName: "Market", Lat: 10.01, Lng: 77.01},
		{StopID: "s1", StopName: "Depot", Lat: 10.02, Lng: 77.02},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Run("ordered by stop id", func(t *testing.T) {
		stops, err := s.GetStops(ctx, "sample")
		require.NoError(t, err)
		assert.Equal(t, []string{"s1", "s2"}, stopIDs(stops))
		assert.Equal(t, "Depot", stops[0].StopName)
		assert.InDelta(t, 10.02, stops[0].Lat, 1e-9)
	})

	t.Run("upsert replaces existing stop", func(t *testing.T) {
		_, err := s.UpsertStops(ctx, "sample", []models.Stop{
			{StopID: "s1", StopName: "Bus Depot", Lat: 10.03, Lng: 77.03},
		})
		require.NoError(t, err)

		stops, err := s.GetStops(ctx, "SAMPLE")
		require.NoError(t, err)
		require.Len(t, stops, 2)
		assert.Equal(t, "Bus Depot", stops[0].StopName)
		assert.InDelta(t, 10.03, stops[0].Lat, 1e-9)
	})

	t.Run("unknown city has no stops", func(t *testing.T) {
		stops, err := s.GetStops(ctx, "elsewhere")
		require.NoError(t, err)
		assert.Empty(t, stops)
	})

	t.Run("city stops source", func(t *testing.T) {
		stops, err := s.CityStops(ctx, models.CityConfig{Name: "Sample"})
		require.NoError(t, err)
		assert.Len(t, stops, 2)
	})
}

func sampleRoutes() []models.GeneratedRoute {
	return []models.GeneratedRoute{
		{
			RouteID:       "R-SA-1",
			RouteName:     "Depot to College",
			BusType:       models.BusTypeExpress,
			Stops:         []string{"Depot", "Market", "College"},
			StopIDs:       []string{"s1", "s2", "s3"},
			Path:          []models.Point{{Lat: 10.02, Lng: 77.02}, {Lat: 10.01, Lng: 77.01}, {Lat: 10.0, Lng: 77.0}},
			TotalDistance: 3.1,
			TotalTime:     9,
			CentroidCell:  "3bae",
		},
		{
			RouteID:       "R-SA-2",
			RouteName:     "Hill to Lake",
			BusType:       models.BusTypeDeluxe,
			Stops:         []string{"Hill", "Lake"},
			StopIDs:       []string{"s4", "s5"},
			Path:          []models.Point{{Lat: 10.2, Lng: 77.2}, {Lat: 10.19, Lng: 77.19}},
			TotalDistance: 1.5,
			TotalTime:     5,
			PathFallback:  true,
		},
	}
}

func TestSQLiteRoutes(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceRoutes(ctx, "sample", "run-1", sampleRoutes()))

	stored, err := s.ListRoutes(ctx, "Sample")
	require.NoError(t, err)
	assert.Equal(t, "run-1", stored.RunID)
	assert.Equal(t, sampleRoutes(), stored.Routes)

	t.Run("replace swaps the whole set", func(t *testing.T) {
		replacement := sampleRoutes()[:1]
		replacement[0].RouteName = "Depot to Market"
		require.NoError(t, s.ReplaceRoutes(ctx, "sample", "run-2", replacement))

		stored, err := s.ListRoutes(ctx, "sample")
		require.NoError(t, err)
		assert.Equal(t, "run-2", stored.RunID)
		require.Len(t, stored.Routes, 1)
		assert.Equal(t, "Depot to Market", stored.Routes[0].RouteName)
	})

	t.Run("failed replace keeps previous set", func(t *testing.T) {
		duplicate := sampleRoutes()
		duplicate[1].RouteID = duplicate[0].RouteID
		err := s.ReplaceRoutes(ctx, "sample", "run-3", duplicate)
		require.Error(t, err)

		stored, err := s.ListRoutes(ctx, "sample")
		require.NoError(t, err)
		assert.Equal(t, "run-2", stored.RunID)
		assert.Len(t, stored.Routes, 1)
	})

	t.Run("other cities are untouched", func(t *testing.T) {
		require.NoError(t, s.ReplaceRoutes(ctx, "other", "run-x", nil))
		stored, err := s.ListRoutes(ctx, "sample")
		require.NoError(t, err)
		assert.Len(t, stored.Routes, 1)

		empty, err := s.ListRoutes(ctx, "other")
		require.NoError(t, err)
		assert.Empty(t, empty.Routes)
	})
}
