package allocation

import (
	"sort"

	"github.com/example/fleet-allocation/internal/category"
	"github.com/example/fleet-allocation/internal/geo"
	"github.com/example/fleet-allocation/internal/models"
)

// Request is the part of an order the engine scores against.
type Request struct {
	Pickup   models.Coord
	Category string
}

// Candidate is an available rider scored for one request. PreferenceScore is
// 0 when the rider serves the request's category and 1 otherwise.
type Candidate struct {
	Rider           models.Rider
	DistanceKm      float64
	PreferenceScore int
}

// Allocate picks the best available rider for req. Candidates are ordered by
// preference score first and distance second, so a matching rider further
// away beats a closer non-matching one. Equal candidates keep the order of
// riders. It returns false when no rider is available.
func Allocate(req Request, riders []models.Rider) (Candidate, bool) {
	cat := category.Normalize(req.Category)
	cands := make([]Candidate, 0, len(riders))
	for _, r := range riders {
		if r.Status != models.RiderAvailable {
			continue
		}
		score := 1
		if r.HasCategory(cat) {
			score = 0
		}
		cands = append(cands, Candidate{
			Rider:           r,
			DistanceKm:      geo.DistanceKm(req.Pickup, r.Coordinates),
			PreferenceScore: score,
		})
	}
	if len(cands) == 0 {
		return Candidate{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].PreferenceScore != cands[j].PreferenceScore {
			return cands[i].PreferenceScore < cands[j].PreferenceScore
		}
		return cands[i].DistanceKm < cands[j].DistanceKm
	})
	return cands[0], true
}
