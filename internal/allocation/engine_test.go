package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/fleet-allocation/internal/models"
)

func bangaloreRiders() []models.Rider {
	return []models.Rider{
		{ID: "1", Status: models.RiderAvailable, Coordinates: models.Coord{Lat: 12.93, Lng: 77.61}, Categories: []models.Category{"food"}},
		{ID: "2", Status: models.RiderAvailable, Coordinates: models.Coord{Lat: 12.90, Lng: 77.58}, Categories: []models.Category{"grocery"}},
	}
}

func TestExactCategoryMatchAtPickup(t *testing.T) {
	best, ok := Allocate(Request{Pickup: models.Coord{Lat: 12.93, Lng: 77.61}, Category: "food_delivery"}, bangaloreRiders())
	if !ok {
		t.Fatal("no match")
	}
	if best.Rider.ID != "1" {
		t.Fatalf("expected 1, got %s", best.Rider.ID)
	}
	assert.Zero(t, best.DistanceKm)
	assert.Zero(t, best.PreferenceScore)
}

func TestNoMatchFallsBackToNearest(t *testing.T) {
	best, ok := Allocate(Request{Pickup: models.Coord{Lat: 12.93, Lng: 77.61}, Category: "courier"}, bangaloreRiders())
	require.True(t, ok)
	assert.Equal(t, "1", best.Rider.ID)
	assert.Equal(t, 1, best.PreferenceScore)
}

func TestPreferenceBeatsProximity(t *testing.T) {
	pickup := models.Coord{Lat: 0, Lng: 0}
	riders := []models.Rider{
		// ~1 km away, wrong category
		{ID: "A", Status: models.RiderAvailable, Coordinates: models.Coord{Lat: 0.009, Lng: 0}, Categories: []models.Category{"taxi"}},
		// ~10 km away, right category
		{ID: "B", Status: models.RiderAvailable, Coordinates: models.Coord{Lat: 0.09, Lng: 0}, Categories: []models.Category{"food"}},
	}
	best, ok := Allocate(Request{Pickup: pickup, Category: "food"}, riders)
	require.True(t, ok)
	assert.Equal(t, "B", best.Rider.ID)
	assert.InDelta(t, 10, best.DistanceKm, 0.1)
}

func TestNoAvailableRiders(t *testing.T) {
	riders := bangaloreRiders()
	for i := range riders {
		riders[i].Status = models.RiderBusy
	}
	riders = append(riders, models.Rider{ID: "3", Status: models.RiderOffline, Categories: []models.Category{"food"}})
	for _, cat := range []string{"food", "courier", "", "unknown"} {
		_, ok := Allocate(Request{Pickup: models.Coord{Lat: 12.93, Lng: 77.61}, Category: cat}, riders)
		assert.False(t, ok, cat)
	}
	_, ok := Allocate(Request{Category: "food"}, nil)
	assert.False(t, ok)
}

func TestNeverPicksUnavailableRider(t *testing.T) {
	riders := []models.Rider{
		{ID: "busy-match", Status: models.RiderBusy, Coordinates: models.Coord{Lat: 12.93, Lng: 77.61}, Categories: []models.Category{"food"}},
		{ID: "offline-match", Status: models.RiderOffline, Coordinates: models.Coord{Lat: 12.93, Lng: 77.61}, Categories: []models.Category{"food"}},
		{ID: "far", Status: models.RiderAvailable, Coordinates: models.Coord{Lat: 13.5, Lng: 78}, Categories: nil},
	}
	best, ok := Allocate(Request{Pickup: models.Coord{Lat: 12.93, Lng: 77.61}, Category: "food"}, riders)
	require.True(t, ok)
	assert.Equal(t, "far", best.Rider.ID)
}

func TestTiesKeepCollectionOrder(t *testing.T) {
	at := models.Coord{Lat: 12.9, Lng: 77.6}
	riders := []models.Rider{
		{ID: "z", Status: models.RiderAvailable, Coordinates: at, Categories: []models.Category{"food"}},
		{ID: "a", Status: models.RiderAvailable, Coordinates: at, Categories: []models.Category{"food"}},
	}
	for i := 0; i < 20; i++ {
		best, ok := Allocate(Request{Pickup: at, Category: "food"}, riders)
		require.True(t, ok)
		assert.Equal(t, "z", best.Rider.ID)
	}
}

func TestUnknownCategoryPassesThrough(t *testing.T) {
	riders := []models.Rider{
		{ID: "near", Status: models.RiderAvailable, Coordinates: models.Coord{Lat: 0, Lng: 0}, Categories: []models.Category{"food"}},
		{ID: "pharma", Status: models.RiderAvailable, Coordinates: models.Coord{Lat: 1, Lng: 1}, Categories: []models.Category{"pharmacy"}},
	}
	best, ok := Allocate(Request{Pickup: models.Coord{}, Category: "pharmacy"}, riders)
	require.True(t, ok)
	assert.Equal(t, "pharma", best.Rider.ID)
}
