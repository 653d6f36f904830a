package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/example/fleet-allocation/internal/allocation"
	"github.com/example/fleet-allocation/internal/directory"
	"github.com/example/fleet-allocation/internal/dispatch"
	"github.com/example/fleet-allocation/internal/events"
	"github.com/example/fleet-allocation/internal/fleet"
	"github.com/example/fleet-allocation/internal/geo"
	"github.com/example/fleet-allocation/internal/taskmatch"
	"github.com/example/fleet-allocation/internal/tasks"
)

// Deps is everything the API needs; cmd/server builds it.
type Deps struct {
	Riders    *directory.Directory
	Tasks     *tasks.Store
	Allocator *allocation.Service
	Matches   *taskmatch.Query
	Fleet     *fleet.Service
	Locator   geo.Locator
	Sessions  *dispatch.WSRegistry
	Events    events.Publisher
	Logger    *slog.Logger

	// Ready reports backend health for /ready; nil means always ready.
	Ready       func(ctx context.Context) error
	CORSOrigins []string
}

type Server struct {
	deps    Deps
	logger  *slog.Logger
	mux     *mux.Router
	handler http.Handler
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.Locator == nil {
		deps.Locator = geo.NewIndex()
	}
	if deps.Sessions == nil {
		deps.Sessions = dispatch.NewWSRegistry()
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{deps: deps, logger: deps.Logger, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(s.mux)
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api").Subrouter()

	api.HandleFunc("/riders", s.handleListRiders).Methods(http.MethodGet)
	api.HandleFunc("/riders", s.handleRegisterRider).Methods(http.MethodPost)
	api.HandleFunc("/riders/nearby", s.handleNearbyRiders).Methods(http.MethodGet)
	api.HandleFunc("/riders/{id}/availability", s.handleSetAvailability).Methods(http.MethodPost)
	api.HandleFunc("/riders/{id}/preferences", s.handleSetPreferences).Methods(http.MethodPost)
	api.HandleFunc("/riders/{id}/location", s.handleRiderLocation).Methods(http.MethodPost)
	api.HandleFunc("/riders/{id}/tasks", s.handleRiderTasks).Methods(http.MethodGet)

	api.HandleFunc("/order", s.handleOrder).Methods(http.MethodPost)
	api.HandleFunc("/v1/allocate-rider", s.handleOrder).Methods(http.MethodPost)

	api.HandleFunc("/partner/task", s.handleCreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}/assign", s.handleAssignTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/status", s.handleTaskStatus).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/accept", s.handleAcceptTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}/advance", s.handleAdvanceTask).Methods(http.MethodPost)

	s.mux.HandleFunc("/ws/{rider_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.mux.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }
