package geo

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/example/fleet-allocation/internal/models"
)

const EarthRadiusKm = 6371.0

// MaxDistanceKm is the longest possible great-circle distance, half the
// Earth's circumference. Any radius at or beyond it covers every position.
const MaxDistanceKm = math.Pi * EarthRadiusKm

// searchRadius maps a requested radius onto the one a Locator applies:
// zero or negative means unbounded.
func searchRadius(radiusKm float64) float64 {
	if radiusKm <= 0 || radiusKm > MaxDistanceKm {
		return MaxDistanceKm
	}
	return radiusKm
}

// Haversine returns the great-circle distance in kilometres. NaN inputs
// propagate to the result.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1, rlat2 := radians(lat1), radians(lat2)
	sinLat := math.Sin(radians(lat2-lat1) / 2)
	sinLng := math.Sin(radians(lon2-lon1) / 2)
	h := sinLat*sinLat + math.Cos(rlat1)*math.Cos(rlat2)*sinLng*sinLng
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func DistanceKm(a, b models.Coord) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Nearby is a rider position returned by a Locator lookup.
type Nearby struct {
	RiderID    string       `json:"rider_id"`
	Coord      models.Coord `json:"coordinates"`
	DistanceKm float64      `json:"distance_km"`
}

// Locator tracks live rider positions for proximity lookups.
type Locator interface {
	Upsert(ctx context.Context, riderID string, c models.Coord) error
	Nearby(ctx context.Context, center models.Coord, radiusKm float64, limit int) ([]Nearby, error)
}

type Index struct {
	mu     sync.RWMutex
	riders map[string]models.Coord
}

func NewIndex() *Index {
	return &Index{riders: make(map[string]models.Coord)}
}

func (g *Index) Upsert(_ context.Context, riderID string, c models.Coord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.riders[riderID] = c
	return nil
}

// Nearby scans every tracked rider; the in-process index only ever holds one
// fleet's worth of positions.
func (g *Index) Nearby(_ context.Context, center models.Coord, radiusKm float64, limit int) ([]Nearby, error) {
	radius := searchRadius(radiusKm)
	g.mu.RLock()
	hits := make([]Nearby, 0, len(g.riders))
	for id, c := range g.riders {
		d := DistanceKm(center, c)
		if d > radius {
			continue
		}
		hits = append(hits, Nearby{RiderID: id, Coord: c, DistanceKm: d})
	}
	g.mu.RUnlock()

	// id breaks ties so map order never leaks into results
	slices.SortFunc(hits, func(a, b Nearby) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		return strings.Compare(a.RiderID, b.RiderID)
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
