package allocation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/example/fleet-allocation/internal/apperr"
	"github.com/example/fleet-allocation/internal/category"
	"github.com/example/fleet-allocation/internal/dispatch"
	"github.com/example/fleet-allocation/internal/eta"
	"github.com/example/fleet-allocation/internal/events"
	"github.com/example/fleet-allocation/internal/idgen"
	"github.com/example/fleet-allocation/internal/models"
	"github.com/example/fleet-allocation/internal/observability"
)

type RiderSource interface {
	List(ctx context.Context) []models.Rider
}

// Allocation is a successful engine decision. No task record backs it.
type Allocation struct {
	ID                 string          `json:"allocation_id"`
	OrderID            string          `json:"order_id"`
	Platform           string          `json:"platform"`
	Rider              models.Rider    `json:"rider"`
	DistanceKm         float64         `json:"distance_km"`
	PreferenceScore    int             `json:"preference_score"`
	NormalizedCategory models.Category `json:"normalized_category"`
	EstimatedArrival   int             `json:"estimated_arrival_minutes"`
}

type Service struct {
	Riders   RiderSource
	Notifier dispatch.Notifier // optional
	Events   events.Publisher  // optional
	Logger   *slog.Logger
}

// Allocate validates order, runs the engine over the current roster and
// announces the pick best-effort. apperr.ErrNoCandidate means no rider is
// available, which is a normal negative result.
func (s *Service) Allocate(ctx context.Context, order models.Order) (Allocation, error) {
	start := time.Now()
	defer func() { observability.AllocationLatency.Observe(time.Since(start).Seconds()) }()

	if strings.TrimSpace(order.Platform) == "" || order.Category == "" || order.PickupLocation == nil || order.DropoffLocation == nil {
		observability.AllocationsTotal.WithLabelValues("invalid").Inc()
		return Allocation{}, fmt.Errorf("missing required fields: platform, category, pickup_location, dropoff_location: %w", apperr.ErrInvalidArgument)
	}
	if order.OrderID == "" {
		order.OrderID = idgen.New("ord")
	}

	best, ok := Allocate(Request{Pickup: *order.PickupLocation, Category: order.Category}, s.Riders.List(ctx))
	if !ok {
		observability.AllocationsTotal.WithLabelValues("no_candidate").Inc()
		s.logger().Info("allocation found no available rider", "order_id", order.OrderID, "platform", order.Platform)
		return Allocation{}, apperr.ErrNoCandidate
	}

	a := Allocation{
		ID:                 idgen.New("alloc"),
		OrderID:            order.OrderID,
		Platform:           order.Platform,
		Rider:              best.Rider,
		DistanceKm:         math.Round(best.DistanceKm*100) / 100,
		PreferenceScore:    best.PreferenceScore,
		NormalizedCategory: category.Normalize(order.Category),
		EstimatedArrival:   eta.Minutes(best.DistanceKm),
	}
	observability.AllocationsTotal.WithLabelValues("matched").Inc()
	observability.AllocationDistanceKm.Observe(best.DistanceKm)
	s.logger().Info("order allocated",
		"allocation_id", a.ID,
		"order_id", a.OrderID,
		"rider_id", a.Rider.ID,
		"distance_km", a.DistanceKm,
		"preference_score", a.PreferenceScore,
	)

	if s.Notifier != nil {
		// best-effort; the rider may not have an open session
		_ = s.Notifier.Notify(a.Rider.ID, dispatch.Notice{Type: events.TypeAllocation, Payload: a})
	}
	events.Emit(ctx, s.Events, s.logger(), events.Event{Type: events.TypeAllocation, Key: a.ID, Data: a})
	return a, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
