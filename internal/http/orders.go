package httpapi

import (
	"net/http"

	"github.com/example/fleet-allocation/internal/allocation"
	"github.com/example/fleet-allocation/internal/eta"
	"github.com/example/fleet-allocation/internal/models"
)

type allocatedRider struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Rating           float64           `json:"rating"`
	Location         latLng            `json:"location"`
	EstimatedArrival string            `json:"estimated_arrival"`
	Preferences      []models.Category `json:"preferences"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type orderResponse struct {
	Success            bool            `json:"success"`
	AllocationID       string          `json:"allocation_id"`
	OrderID            string          `json:"order_id"`
	Rider              allocatedRider  `json:"rider"`
	DistanceKm         float64         `json:"distance_km"`
	NormalizedCategory models.Category `json:"normalized_category"`
}

func newOrderResponse(a allocation.Allocation) orderResponse {
	return orderResponse{
		Success:      true,
		AllocationID: a.ID,
		OrderID:      a.OrderID,
		Rider: allocatedRider{
			ID:               a.Rider.ID,
			Name:             a.Rider.Name,
			Rating:           a.Rider.Rating,
			Location:         latLng{Lat: a.Rider.Coordinates.Lat, Lng: a.Rider.Coordinates.Lng},
			EstimatedArrival: eta.Label(a.EstimatedArrival),
			Preferences:      a.Rider.Categories,
		},
		DistanceKm:         a.DistanceKm,
		NormalizedCategory: a.NormalizedCategory,
	}
}

// handleOrder allocates a rider to a partner order. Finding nobody is a
// normal answer and comes back as 200 with success=false.
func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var order models.Order
	if err := decodeJSON(r, &order); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.deps.Allocator.Allocate(r.Context(), order)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(a))
}
