package routing

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"routegen.busfleet.org/internal/models"
)

func TestOrderStops(t *testing.T) {
	t.Run("empty and single inputs are returned unchanged", func(t *testing.T) {
		assert.Empty(t, OrderStops(nil))

		one := []models.Stop{{StopID: "a", Lat: 1, Lng: 1}}
		assert.Equal(t, one, OrderStops(one))
	})

	t.Run("starts at the northernmost stop", func(t *testing.T) {
		stops := []models.Stop{
			{StopID: "south", Lat: 10.0, Lng: 76.0},
			{StopID: "north", Lat: 10.2, Lng: 76.0},
			{StopID: "middle", Lat: 10.1, Lng: 76.0},
		}
		got := OrderStops(stops)
		assert.Equal(t, []string{"north", "middle", "south"}, stopIDs(got))
	})

	t.Run("latitude tie goes to the first stop in input order", func(t *testing.T) {
		stops := []models.Stop{
			{StopID: "low", Lat: 9.0, Lng: 1.0},
			{StopID: "first", Lat: 10.0, Lng: 1.0},
			{StopID: "second", Lat: 10.0, Lng: 1.1},
		}
		got := OrderStops(stops)
		assert.Equal(t, "first", got[0].StopID)
	})

	t.Run("distance tie goes to the first remaining stop", func(t *testing.T) {
		north := models.Stop{StopID: "n", Lat: 11, Lng: 0}
		east := models.Stop{StopID: "e", Lat: 10, Lng: 1}
		west := models.Stop{StopID: "w", Lat: 10, Lng: -1}

		assert.Equal(t, []string{"n", "e", "w"}, stopIDs(OrderStops([]models.Stop{east, north, west})))
		assert.Equal(t, []string{"n", "w", "e"}, stopIDs(OrderStops([]models.Stop{west, north, east})))
	})

	t.Run("collinear stops are walked end to end", func(t *testing.T) {
		stops := []models.Stop{
			{StopID: "c", Lat: 10.02, Lng: 76.0},
			{StopID: "a", Lat: 10.04, Lng: 76.0},
			{StopID: "e", Lat: 10.00, Lng: 76.0},
			{StopID: "b", Lat: 10.03, Lng: 76.0},
			{StopID: "d", Lat: 10.01, Lng: 76.0},
		}
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, stopIDs(OrderStops(stops)))
	})

	t.Run("never drops or duplicates stops", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))
		stops := make([]models.Stop, 40)
		for i := range stops {
			stops[i] = models.Stop{
				StopID: fmt.Sprintf("stop-%02d", i),
				Lat:    10 + rng.Float64(),
				Lng:    76 + rng.Float64(),
			}
		}
		input := append([]models.Stop(nil), stops...)

		got := OrderStops(stops)
		require.Len(t, got, len(stops))
		assert.ElementsMatch(t, stopIDs(stops), stopIDs(got))
		assert.Equal(t, input, stops, "input slice must not be modified")
	})
}
