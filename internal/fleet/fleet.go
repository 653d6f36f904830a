// Package fleet keeps task and rider state in step: accepting a task makes
// the rider busy, finishing or cancelling it frees the rider again.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/fleet-allocation/internal/apperr"
	"github.com/example/fleet-allocation/internal/dispatch"
	"github.com/example/fleet-allocation/internal/events"
	"github.com/example/fleet-allocation/internal/models"
)

type RiderBook interface {
	Get(ctx context.Context, id string) (models.Rider, error)
	Update(ctx context.Context, id string, fn func(*models.Rider) error) (models.Rider, error)
	SetStatus(ctx context.Context, id string, status models.RiderStatus) (models.Rider, error)
	RecordCompletion(ctx context.Context, id string, earnings float64) (models.Rider, error)
}

type TaskBook interface {
	Get(ctx context.Context, id string) (models.Task, error)
	Claim(ctx context.Context, taskID, riderID string) (models.Task, error)
	Transition(ctx context.Context, taskID string, status models.TaskStatus) (models.Task, error)
	Restore(ctx context.Context, snapshot models.Task) error
}

type Service struct {
	riders   RiderBook
	tasks    TaskBook
	notifier dispatch.Notifier
	events   events.Publisher
	logger   *slog.Logger
	mu       sync.Mutex
}

func NewService(riders RiderBook, tasks TaskBook, notifier dispatch.Notifier, pub events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{riders: riders, tasks: tasks, notifier: notifier, events: pub, logger: logger}
}

// AcceptTask claims a pending task for an available rider and marks the
// rider busy. If the rider write fails the task is put back as it was.
func (s *Service) AcceptTask(ctx context.Context, taskID, riderID string) (models.Task, models.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rider, err := s.riders.Get(ctx, riderID)
	if err != nil {
		return models.Task{}, models.Rider{}, err
	}
	if rider.Status != models.RiderAvailable {
		return models.Task{}, models.Rider{}, fmt.Errorf("rider %s is %s: %w", riderID, rider.Status, apperr.ErrRiderUnavailable)
	}
	before, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return models.Task{}, models.Rider{}, err
	}
	task, err := s.tasks.Claim(ctx, taskID, riderID)
	if err != nil {
		return models.Task{}, models.Rider{}, err
	}
	rider, err = s.riders.Update(ctx, riderID, func(r *models.Rider) error {
		if r.Status != models.RiderAvailable {
			return fmt.Errorf("rider %s is %s: %w", riderID, r.Status, apperr.ErrRiderUnavailable)
		}
		r.Status = models.RiderBusy
		return nil
	})
	if err != nil {
		return models.Task{}, models.Rider{}, s.compensate(ctx, before, err)
	}

	s.announce(ctx, task)
	return task, rider, nil
}

// AdvanceTask moves a task one step along the lifecycle (or cancels it).
// Delivery books the task value on the rider; delivery and cancellation both
// make the assigned rider available again.
func (s *Service) AdvanceTask(ctx context.Context, taskID string, status models.TaskStatus) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	task, err := s.tasks.Transition(ctx, taskID, status)
	if err != nil {
		return models.Task{}, err
	}
	if task.Status.IsTerminal() && task.RiderID != "" {
		if task.Status == models.TaskDelivered {
			_, err = s.riders.RecordCompletion(ctx, task.RiderID, task.EstimatedValue)
		} else {
			_, err = s.riders.SetStatus(ctx, task.RiderID, models.RiderAvailable)
		}
		if err != nil {
			return models.Task{}, s.compensate(ctx, before, err)
		}
	}

	s.announce(ctx, task)
	return task, nil
}

func (s *Service) compensate(ctx context.Context, snapshot models.Task, cause error) error {
	if rerr := s.tasks.Restore(ctx, snapshot); rerr != nil {
		s.logger.Error("task rollback failed, task and rider may disagree",
			"task_id", snapshot.ID, "cause", cause, "error", rerr)
		return errors.Join(cause, fmt.Errorf("rollback task %s: %w", snapshot.ID, rerr))
	}
	s.logger.Warn("task change rolled back", "task_id", snapshot.ID, "cause", cause)
	return cause
}

func (s *Service) announce(ctx context.Context, task models.Task) {
	s.logger.Info("task status changed", "task_id", task.ID, "rider_id", task.RiderID, "status", task.Status)
	if s.notifier != nil && task.RiderID != "" {
		_ = s.notifier.Notify(task.RiderID, dispatch.Notice{Type: events.TypeTaskStatus, Payload: task})
	}
	events.Emit(ctx, s.events, s.logger, events.Event{Type: events.TypeTaskStatus, Key: task.ID, Data: task})
}
