// Package taskmatch answers "which open tasks can this rider take", nearest
// pickup first.
package taskmatch

import (
	"context"
	"sort"

	"github.com/example/fleet-allocation/internal/category"
	"github.com/example/fleet-allocation/internal/geo"
	"github.com/example/fleet-allocation/internal/models"
	"github.com/example/fleet-allocation/internal/tasks"
)

type RiderLookup interface {
	Get(ctx context.Context, id string) (models.Rider, error)
}

type TaskLister interface {
	List(ctx context.Context, f tasks.Filter) []models.Task
}

type Query struct {
	Riders RiderLookup
	Tasks  TaskLister
}

// FindTasksFor returns the pending tasks in the rider's categories sorted by
// pickup distance from override, or from the rider's stored coordinates when
// override is nil or not finite.
func (q *Query) FindTasksFor(ctx context.Context, riderID string, override *models.Coord) ([]models.TaskMatch, error) {
	rider, err := q.Riders.Get(ctx, riderID)
	if err != nil {
		return nil, err
	}
	from := rider.Coordinates
	if override != nil && override.Valid() {
		from = *override
	}

	pending := q.Tasks.List(ctx, tasks.Filter{Status: models.TaskPending})
	out := make([]models.TaskMatch, 0, len(pending))
	for _, t := range pending {
		if !rider.HasCategory(category.Normalize(string(t.Category))) {
			continue
		}
		out = append(out, models.TaskMatch{Task: t, DistanceKm: geo.DistanceKm(from, t.PickupLocation)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}
