package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/example/fleet-allocation/internal/apperr"
	"github.com/example/fleet-allocation/internal/directory"
	"github.com/example/fleet-allocation/internal/models"
)

const (
	defaultNearbyRadiusKm = 5.0
	defaultNearbyLimit    = 10
)

func (s *Server) handleListRiders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"riders": s.deps.Riders.List(r.Context())})
}

type registerRiderRequest struct {
	Name          string        `json:"name"`
	Phone         string        `json:"phone"`
	LocationLabel string        `json:"location_label"`
	Coordinates   *models.Coord `json:"coordinates"`
	Categories    []string      `json:"categories"`
	Rating        float64       `json:"rating"`
}

func (s *Server) handleRegisterRider(w http.ResponseWriter, r *http.Request) {
	var req registerRiderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Coordinates == nil {
		s.writeError(w, r, fmt.Errorf("coordinates are required: %w", apperr.ErrInvalidArgument))
		return
	}
	rider, err := s.deps.Riders.Register(r.Context(), directory.NewRider{
		Name:          req.Name,
		Phone:         req.Phone,
		LocationLabel: req.LocationLabel,
		Coordinates:   *req.Coordinates,
		Categories:    req.Categories,
		Rating:        req.Rating,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Locator.Upsert(r.Context(), rider.ID, rider.Coordinates); err != nil {
		s.logger.Warn("geo index upsert failed", "rider_id", rider.ID, "error", err)
	}
	writeOK(w, envelope{"rider": rider})
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Status models.RiderStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.deps.Riders.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	rider, err := s.deps.Riders.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"rider": rider})
}

// handleSetPreferences takes the list under "categories" or, for older
// clients, "preferences". Anything other than an array is rejected.
func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Categories  json.RawMessage `json:"categories"`
		Preferences json.RawMessage `json:"preferences"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.deps.Riders.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	raw := req.Categories
	if len(raw) == 0 {
		raw = req.Preferences
	}
	var list []string
	if len(raw) == 0 || raw[0] != '[' || json.Unmarshal(raw, &list) != nil {
		s.writeError(w, r, fmt.Errorf("preferences must be an array: %w", apperr.ErrInvalidArgument))
		return
	}
	rider, err := s.deps.Riders.SetPreferences(r.Context(), id, list)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"rider": rider})
}

func (s *Server) handleRiderLocation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var c models.Coord
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !c.Valid() {
		s.writeError(w, r, fmt.Errorf("coordinates must be finite: %w", apperr.ErrInvalidArgument))
		return
	}
	rider, err := s.deps.Riders.UpdateLocation(r.Context(), id, c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.publishLocation(r.Context(), id, c)
	writeOK(w, envelope{"rider": rider})
}

func (s *Server) handleNearbyRiders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	center, ok := queryCoord(r)
	if !ok {
		s.writeError(w, r, fmt.Errorf("lat and lng query parameters are required: %w", apperr.ErrInvalidArgument))
		return
	}
	radius := defaultNearbyRadiusKm
	if v := q.Get("radius_km"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			s.writeError(w, r, fmt.Errorf("radius_km must be a positive number: %w", apperr.ErrInvalidArgument))
			return
		}
		radius = f
	}
	limit := defaultNearbyLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, r, fmt.Errorf("limit must be a positive integer: %w", apperr.ErrInvalidArgument))
			return
		}
		limit = n
	}
	found, err := s.deps.Locator.Nearby(r.Context(), center, radius, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"riders": found})
}

func (s *Server) handleRiderTasks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var override *models.Coord
	if c, ok := queryCoord(r); ok {
		override = &c
	}
	matches, err := s.deps.Matches.FindTasksFor(r.Context(), id, override)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"tasks": matches})
}

// queryCoord reads lat/lng query parameters; ok is false unless both parse
// to finite numbers.
func queryCoord(r *http.Request) (models.Coord, bool) {
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
	if err1 != nil || err2 != nil {
		return models.Coord{}, false
	}
	c := models.Coord{Lat: lat, Lng: lng}
	return c, c.Valid()
}
