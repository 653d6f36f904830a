package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/example/fleet-allocation/internal/models"
)

// MemoryStore keeps both collections in process memory. Loads hand out
// copies so callers can never mutate the stored slices in place.
type MemoryStore struct {
	mu     sync.RWMutex
	riders []models.Rider
	tasks  []models.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadRiders(_ context.Context) ([]models.Rider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRiders(m.riders), nil
}

func (m *MemoryStore) SaveRiders(_ context.Context, riders []models.Rider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders = cloneRiders(riders)
	return nil
}

func (m *MemoryStore) LoadTasks(_ context.Context) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tasks), nil
}

func (m *MemoryStore) SaveTasks(_ context.Context, tasks []models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = slices.Clone(tasks)
	return nil
}

func cloneRiders(in []models.Rider) []models.Rider {
	out := make([]models.Rider, len(in))
	for i, r := range in {
		r.Categories = slices.Clone(r.Categories)
		out[i] = r
	}
	return out
}
