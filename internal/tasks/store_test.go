package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/fleet-allocation/internal/apperr"
	"github.com/example/fleet-allocation/internal/models"
	"github.com/example/fleet-allocation/internal/storage"
)

type fakeRiders map[string]models.Rider

func (f fakeRiders) Get(_ context.Context, id string) (models.Rider, error) {
	r, ok := f[id]
	if !ok {
		return models.Rider{}, fmt.Errorf("rider %s: %w", id, apperr.ErrNotFound)
	}
	return r, nil
}

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(backend storage.Backend) *Store {
	s := New(backend, fakeRiders{
		"r1": {ID: "r1", Status: models.RiderAvailable},
		"r2": {ID: "r2", Status: models.RiderOffline},
	}, nil)
	clock := t0
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("task_%d", n)
	}
	return s
}

func coord(lat, lng float64) *models.Coord { return &models.Coord{Lat: lat, Lng: lng} }

func zomato() NewTask {
	return NewTask{Platform: "Zomato", Category: "food_delivery", PickupLocation: coord(12.9, 77.6), DropoffLocation: coord(12.95, 77.65)}
}

func TestCreateDefaults(t *testing.T) {
	s := newTestStore(storage.NewMemoryStore())
	task, err := s.Create(context.Background(), zomato())
	require.NoError(t, err)
	assert.Equal(t, "task_1", task.ID)
	assert.Equal(t, models.CategoryFood, task.Category)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.Zero(t, task.EstimatedValue)
	assert.Empty(t, task.RiderID)
	assert.Nil(t, task.DeliveredAt)
	assert.Equal(t, t0.Add(time.Minute), task.CreatedAt)
}

func TestCreateRequiresFields(t *testing.T) {
	s := newTestStore(storage.NewMemoryStore())
	for name, mutate := range map[string]func(*NewTask){
		"platform": func(n *NewTask) { n.Platform = "" },
		"category": func(n *NewTask) { n.Category = "" },
		"pickup":   func(n *NewTask) { n.PickupLocation = nil },
		"dropoff":  func(n *NewTask) { n.DropoffLocation = nil },
	} {
		in := zomato()
		mutate(&in)
		_, err := s.Create(context.Background(), in)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument, name)
	}
	assert.Empty(t, s.List(context.Background(), Filter{}))
}

func TestCreateThenListRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore())
	_, err := s.Create(ctx, NewTask{Platform: "Blinkit", Category: "grocery", PickupLocation: coord(1, 1), DropoffLocation: coord(2, 2)})
	require.NoError(t, err)
	created, err := s.Create(ctx, zomato())
	require.NoError(t, err)

	got := s.List(ctx, Filter{Status: models.TaskPending, Category: "food"})
	require.Len(t, got, 1)
	assert.Equal(t, created, got[0])

	// filters normalise the category alias too
	got = s.List(ctx, Filter{Category: "food_delivery"})
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)

	assert.Len(t, s.List(ctx, Filter{}), 2)
	assert.Empty(t, s.List(ctx, Filter{RiderID: "r1"}))
}

func TestAssign(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore())
	task, err := s.Create(ctx, zomato())
	require.NoError(t, err)

	_, err = s.Assign(ctx, "missing", "r1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.Assign(ctx, task.ID, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// availability is deliberately not checked here
	assigned, err := s.Assign(ctx, task.ID, "r2")
	require.NoError(t, err)
	assert.Equal(t, models.TaskAssigned, assigned.Status)
	assert.Equal(t, "r2", assigned.RiderID)

	got := s.List(ctx, Filter{RiderID: "r2"})
	require.Len(t, got, 1)
	assert.Equal(t, task.ID, got[0].ID)
}

func TestUpdateStatusDeliveredAt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore())
	task, err := s.Create(ctx, zomato())
	require.NoError(t, err)

	picked, err := s.UpdateStatus(ctx, task.ID, models.TaskPickedUp)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPickedUp, picked.Status)
	assert.Nil(t, picked.DeliveredAt)

	delivered, err := s.UpdateStatus(ctx, task.ID, models.TaskDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.TaskDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	assert.True(t, delivered.DeliveredAt.After(delivered.CreatedAt))

	_, err = s.UpdateStatus(ctx, task.ID, models.TaskStatus("lost"))
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = s.UpdateStatus(ctx, "missing", models.TaskCancelled)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateStatusDoesNotEnforceOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore())
	task, err := s.Create(ctx, zomato())
	require.NoError(t, err)

	_, err = s.UpdateStatus(ctx, task.ID, models.TaskDelivered)
	require.NoError(t, err)
	back, err := s.UpdateStatus(ctx, task.ID, models.TaskPending)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, back.Status)
}

func TestTransitionEnforcesOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore())
	task, err := s.Create(ctx, zomato())
	require.NoError(t, err)

	_, err = s.Transition(ctx, task.ID, models.TaskDelivered)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	for _, st := range []models.TaskStatus{models.TaskAssigned, models.TaskPickedUp, models.TaskEnRoute, models.TaskDelivered} {
		_, err = s.Transition(ctx, task.ID, st)
		require.NoError(t, err, st)
	}
	_, err = s.Transition(ctx, task.ID, models.TaskCancelled)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestClaimOnlyPending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore())
	task, err := s.Create(ctx, zomato())
	require.NoError(t, err)

	claimed, err := s.Claim(ctx, task.ID, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskAssigned, claimed.Status)
	assert.Equal(t, "r1", claimed.RiderID)

	_, err = s.Claim(ctx, task.ID, "r2")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	got, err := s.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RiderID)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(storage.NewMemoryStore())
	task, err := s.Create(ctx, zomato())
	require.NoError(t, err)
	_, err = s.Assign(ctx, task.ID, "r1")
	require.NoError(t, err)

	require.NoError(t, s.Restore(ctx, task))
	got, err := s.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, got)
}

type brokenTasks struct{ *storage.MemoryStore }

func (brokenTasks) SaveTasks(context.Context, []models.Task) error { return errors.New("disk full") }

func TestSaveFailureSurfaces(t *testing.T) {
	s := newTestStore(brokenTasks{storage.NewMemoryStore()})
	_, err := s.Create(context.Background(), zomato())
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

type unreadableTasks struct{ *storage.MemoryStore }

func (unreadableTasks) LoadTasks(context.Context) ([]models.Task, error) {
	return nil, errors.New("connection refused")
}

func TestLoadFailureOnlyListFailsOpen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(unreadableTasks{storage.NewMemoryStore()})

	assert.Empty(t, s.List(ctx, Filter{}))

	_, err := s.Get(ctx, "task_1")
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.Assign(ctx, "task_1", "r1")
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}
