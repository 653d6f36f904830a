package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/fleet-allocation/internal/events"
	"github.com/example/fleet-allocation/internal/models"
	"github.com/example/fleet-allocation/internal/tasks"
)

type createTaskRequest struct {
	Platform        string        `json:"platform"`
	Category        string        `json:"category"`
	PickupLocation  *models.Coord `json:"pickup_location"`
	DropoffLocation *models.Coord `json:"dropoff_location"`
	EstimatedValue  float64       `json:"estimated_value"`
}

// riderRef accepts both spellings used by partner clients.
type riderRef struct {
	RiderID      string `json:"rider_id"`
	RiderIDCamel string `json:"riderId"`
}

func (r riderRef) id() string {
	if r.RiderID != "" {
		return r.RiderID
	}
	return r.RiderIDCamel
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.deps.Tasks.Create(r.Context(), tasks.NewTask{
		Platform:        req.Platform,
		Category:        req.Category,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		EstimatedValue:  req.EstimatedValue,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	events.Emit(r.Context(), s.deps.Events, s.logger, events.Event{Type: events.TypeTaskCreated, Key: task.ID, Data: task})
	writeOK(w, envelope{"task": task})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := tasks.Filter{
		Status:   models.TaskStatus(q.Get("status")),
		Category: q.Get("category"),
		RiderID:  q.Get("riderId"),
	}
	if f.RiderID == "" {
		f.RiderID = q.Get("rider_id")
	}
	writeOK(w, envelope{"tasks": s.deps.Tasks.List(r.Context(), f)})
}

func (s *Server) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	var req riderRef
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.deps.Tasks.Assign(r.Context(), mux.Vars(r)["id"], req.id())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.taskChanged(r, task)
	writeOK(w, envelope{"task": task})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.deps.Tasks.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.taskChanged(r, task)
	writeOK(w, envelope{"task": task})
}

func (s *Server) handleAcceptTask(w http.ResponseWriter, r *http.Request) {
	var req riderRef
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, rider, err := s.deps.Fleet.AcceptTask(r.Context(), mux.Vars(r)["id"], req.id())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"task": task, "rider": rider})
}

func (s *Server) handleAdvanceTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.deps.Fleet.AdvanceTask(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"task": task})
}

// taskChanged announces a raw task edit; the fleet service does its own.
func (s *Server) taskChanged(r *http.Request, task models.Task) {
	events.Emit(r.Context(), s.deps.Events, s.logger, events.Event{Type: events.TypeTaskStatus, Key: task.ID, Data: task})
}
