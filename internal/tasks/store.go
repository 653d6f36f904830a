package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/fleet-allocation/internal/apperr"
	"github.com/example/fleet-allocation/internal/category"
	"github.com/example/fleet-allocation/internal/idgen"
	"github.com/example/fleet-allocation/internal/models"
	"github.com/example/fleet-allocation/internal/observability"
	"github.com/example/fleet-allocation/internal/storage"
)

// RiderLookup resolves riders by id; the rider directory satisfies it.
type RiderLookup interface {
	Get(ctx context.Context, id string) (models.Rider, error)
}

// Filter selects tasks by exact match on every non-empty field.
type Filter struct {
	Status   models.TaskStatus
	Category string
	RiderID  string
}

type NewTask struct {
	Platform        string
	Category        string
	PickupLocation  *models.Coord
	DropoffLocation *models.Coord
	EstimatedValue  float64
}

type Store struct {
	backend storage.Backend
	riders  RiderLookup
	logger  *slog.Logger
	mu      sync.Mutex

	now   func() time.Time
	newID func() string
}

func New(backend storage.Backend, riders RiderLookup, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		riders:  riders,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return idgen.New("task") },
	}
}

// List returns matching tasks in collection order. A failed load is logged
// and reads as an empty collection.
func (s *Store) List(ctx context.Context, f Filter) []models.Task {
	all, err := s.backend.LoadTasks(ctx)
	if err != nil {
		s.logger.Error("load tasks failed, serving empty list", "error", err)
		return []models.Task{}
	}
	cat := category.Normalize(f.Category)
	out := make([]models.Task, 0, len(all))
	for _, t := range all {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if cat != "" && t.Category != cat {
			continue
		}
		if f.RiderID != "" && t.RiderID != f.RiderID {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Get looks a task up by id; an unreadable collection is ErrPersistence.
func (s *Store) Get(ctx context.Context, id string) (models.Task, error) {
	all, err := s.load(ctx)
	if err != nil {
		return models.Task{}, err
	}
	for _, t := range all {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Task{}, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
}

func (s *Store) Create(ctx context.Context, in NewTask) (models.Task, error) {
	if strings.TrimSpace(in.Platform) == "" || in.Category == "" || in.PickupLocation == nil || in.DropoffLocation == nil {
		return models.Task{}, fmt.Errorf("platform, category, pickup_location and dropoff_location are required: %w", apperr.ErrInvalidArgument)
	}
	t := models.Task{
		ID:              s.newID(),
		Platform:        in.Platform,
		Category:        category.Normalize(in.Category),
		PickupLocation:  *in.PickupLocation,
		DropoffLocation: *in.DropoffLocation,
		Status:          models.TaskPending,
		EstimatedValue:  in.EstimatedValue,
		CreatedAt:       s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load(ctx)
	if err != nil {
		return models.Task{}, err
	}
	all = append(all, t)
	if err := s.save(ctx, all); err != nil {
		return models.Task{}, err
	}
	observability.TasksCreatedTotal.WithLabelValues(string(t.Category)).Inc()
	if !category.IsCanonical(t.Category) {
		s.logger.Warn("task created with unrecognised category", "task_id", t.ID, "category", t.Category)
	}
	return t, nil
}

// Assign binds riderID to the task and marks it assigned. Only the rider's
// existence is checked, not its availability.
func (s *Store) Assign(ctx context.Context, taskID, riderID string) (models.Task, error) {
	if _, err := s.Get(ctx, taskID); err != nil {
		return models.Task{}, err
	}
	if _, err := s.riders.Get(ctx, riderID); err != nil {
		return models.Task{}, err
	}
	return s.update(ctx, taskID, func(t *models.Task) error {
		t.RiderID = riderID
		t.Status = models.TaskAssigned
		return nil
	})
}

// UpdateStatus sets any legal status without checking the lifecycle order.
// DeliveredAt is stamped when the new status is delivered.
func (s *Store) UpdateStatus(ctx context.Context, taskID string, status models.TaskStatus) (models.Task, error) {
	if !status.IsValid() {
		return models.Task{}, fmt.Errorf("task status %q: %w", status, apperr.ErrInvalidArgument)
	}
	return s.update(ctx, taskID, func(t *models.Task) error {
		s.apply(t, status)
		return nil
	})
}

// Transition is UpdateStatus restricted to the forward-only lifecycle.
func (s *Store) Transition(ctx context.Context, taskID string, status models.TaskStatus) (models.Task, error) {
	if !status.IsValid() {
		return models.Task{}, fmt.Errorf("task status %q: %w", status, apperr.ErrInvalidArgument)
	}
	return s.update(ctx, taskID, func(t *models.Task) error {
		if !t.Status.CanTransition(status) {
			return fmt.Errorf("task %s %s -> %s: %w", t.ID, t.Status, status, apperr.ErrInvalidTransition)
		}
		s.apply(t, status)
		return nil
	})
}

// Claim is Assign under the strict lifecycle: the task must be pending.
func (s *Store) Claim(ctx context.Context, taskID, riderID string) (models.Task, error) {
	return s.update(ctx, taskID, func(t *models.Task) error {
		if !t.Status.CanTransition(models.TaskAssigned) {
			return fmt.Errorf("task %s is %s: %w", t.ID, t.Status, apperr.ErrInvalidTransition)
		}
		t.RiderID = riderID
		s.apply(t, models.TaskAssigned)
		return nil
	})
}

// Restore overwrites a task with a previously read snapshot. It exists for
// compensating a half-finished multi-collection change.
func (s *Store) Restore(ctx context.Context, snapshot models.Task) error {
	_, err := s.update(ctx, snapshot.ID, func(t *models.Task) error {
		*t = snapshot
		return nil
	})
	return err
}

func (s *Store) apply(t *models.Task, status models.TaskStatus) {
	t.Status = status
	if status == models.TaskDelivered {
		at := s.now().UTC()
		t.DeliveredAt = &at
	}
	observability.TaskTransitionsTotal.WithLabelValues(string(status)).Inc()
}

func (s *Store) update(ctx context.Context, id string, fn func(*models.Task) error) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return models.Task{}, err
	}
	idx := -1
	for i := range all {
		if all[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Task{}, fmt.Errorf("task %s: %w", id, apperr.ErrNotFound)
	}
	if err := fn(&all[idx]); err != nil {
		return models.Task{}, err
	}
	if err := s.save(ctx, all); err != nil {
		return models.Task{}, err
	}
	return all[idx], nil
}

func (s *Store) load(ctx context.Context) ([]models.Task, error) {
	all, err := s.backend.LoadTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w: %w", apperr.ErrPersistence, err)
	}
	return all, nil
}

func (s *Store) save(ctx context.Context, all []models.Task) error {
	if err := s.backend.SaveTasks(ctx, all); err != nil {
		s.logger.Error("save tasks failed", "error", err)
		return fmt.Errorf("save tasks: %w: %w", apperr.ErrPersistence, err)
	}
	return nil
}
