package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/fleet-allocation/internal/events"
	"github.com/example/fleet-allocation/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsInbound is what a rider app may send over its session.
type wsInbound struct {
	Type        string        `json:"type"`
	Coordinates *models.Coord `json:"coordinates"`
}

// handleWS keeps a rider session open until the client goes away. Notices
// flow out through the registry; "location" messages flow in.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["rider_id"]
	if _, err := s.deps.Riders.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "rider_id", id, "error", err)
		return
	}
	session := s.deps.Sessions.Add(id, conn)
	defer s.deps.Sessions.Remove(id, session)
	s.logger.Info("rider session opened", "rider_id", id, "sessions", s.deps.Sessions.Connected())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info("rider session closed", "rider_id", id, "error", err)
			return
		}
		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("ignoring malformed ws message", "rider_id", id, "error", err)
			continue
		}
		if msg.Type == "location" && msg.Coordinates != nil && msg.Coordinates.Valid() {
			s.recordLocation(context.Background(), id, *msg.Coordinates)
		}
	}
}

func (s *Server) recordLocation(ctx context.Context, id string, c models.Coord) {
	if _, err := s.deps.Riders.UpdateLocation(ctx, id, c); err != nil {
		s.logger.Warn("ws location update failed", "rider_id", id, "error", err)
		return
	}
	s.publishLocation(ctx, id, c)
}

// publishLocation feeds a stored position to the geo index and the event
// stream. Both are best-effort.
func (s *Server) publishLocation(ctx context.Context, id string, c models.Coord) {
	if err := s.deps.Locator.Upsert(ctx, id, c); err != nil {
		s.logger.Warn("geo index upsert failed", "rider_id", id, "error", err)
	}
	events.Emit(ctx, s.deps.Events, s.logger, events.Event{
		Type: events.TypeRiderLocation,
		Key:  id,
		Data: models.LocationUpdate{RiderID: id, Coord: c, At: time.Now().UTC()},
	})
}
