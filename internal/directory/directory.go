// Package directory owns the rider roster. Every mutation loads the whole
// collection, applies the change and saves the collection back before
// returning.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/example/fleet-allocation/internal/apperr"
	"github.com/example/fleet-allocation/internal/category"
	"github.com/example/fleet-allocation/internal/idgen"
	"github.com/example/fleet-allocation/internal/models"
	"github.com/example/fleet-allocation/internal/observability"
	"github.com/example/fleet-allocation/internal/storage"
)

type Directory struct {
	backend storage.Backend
	logger  *slog.Logger
	mu      sync.Mutex
}

func New(backend storage.Backend, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{backend: backend, logger: logger}
}

// List returns every rider in collection order. A failed load is logged and
// reads as an empty roster.
func (d *Directory) List(ctx context.Context) []models.Rider {
	riders, err := d.backend.LoadRiders(ctx)
	if err != nil {
		d.logger.Error("load riders failed, serving empty roster", "error", err)
		return []models.Rider{}
	}
	return riders
}

// Get looks a rider up by id. Unlike List it does not fail open: an unreadable
// roster is ErrPersistence, never ErrNotFound.
func (d *Directory) Get(ctx context.Context, id string) (models.Rider, error) {
	riders, err := d.load(ctx)
	if err != nil {
		return models.Rider{}, err
	}
	for _, r := range riders {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Rider{}, fmt.Errorf("rider %s: %w", id, apperr.ErrNotFound)
}

func (d *Directory) SetStatus(ctx context.Context, id string, status models.RiderStatus) (models.Rider, error) {
	if !status.IsValid() {
		return models.Rider{}, fmt.Errorf("rider status %q: %w", status, apperr.ErrInvalidArgument)
	}
	return d.Update(ctx, id, func(r *models.Rider) error {
		r.Status = status
		return nil
	})
}

// SetPreferences replaces the rider's categories with the normalised form of
// raw, keeping the caller's order.
func (d *Directory) SetPreferences(ctx context.Context, id string, raw []string) (models.Rider, error) {
	cats := category.NormalizeAll(raw)
	return d.Update(ctx, id, func(r *models.Rider) error {
		r.Categories = cats
		return nil
	})
}

func (d *Directory) UpdateLocation(ctx context.Context, id string, c models.Coord) (models.Rider, error) {
	if !c.Valid() {
		return models.Rider{}, fmt.Errorf("rider location: %w", apperr.ErrInvalidArgument)
	}
	return d.Update(ctx, id, func(r *models.Rider) error {
		r.Coordinates = c
		return nil
	})
}

// RecordCompletion books one delivered task and its earnings on the rider and
// makes the rider available again, in a single roster write.
func (d *Directory) RecordCompletion(ctx context.Context, id string, earnings float64) (models.Rider, error) {
	return d.Update(ctx, id, func(r *models.Rider) error {
		r.TotalRides++
		r.TotalEarnings += earnings
		r.Status = models.RiderAvailable
		return nil
	})
}

type NewRider struct {
	Name          string
	Phone         string
	LocationLabel string
	Coordinates   models.Coord
	Categories    []string
	Rating        float64
}

// Register adds a rider with a fresh id, status available and zero counters.
func (d *Directory) Register(ctx context.Context, in NewRider) (models.Rider, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.Rider{}, fmt.Errorf("rider name required: %w", apperr.ErrInvalidArgument)
	}
	if !in.Coordinates.Valid() {
		return models.Rider{}, fmt.Errorf("rider coordinates: %w", apperr.ErrInvalidArgument)
	}
	rider := models.Rider{
		ID:            idgen.New("rider"),
		Name:          in.Name,
		Phone:         in.Phone,
		LocationLabel: in.LocationLabel,
		Coordinates:   in.Coordinates,
		Categories:    category.NormalizeAll(in.Categories),
		Status:        models.RiderAvailable,
		Rating:        in.Rating,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	riders, err := d.load(ctx)
	if err != nil {
		return models.Rider{}, err
	}
	riders = append(riders, rider)
	if err := d.save(ctx, riders); err != nil {
		return models.Rider{}, err
	}
	return rider, nil
}

// Update applies fn to the rider with the given id and persists the roster.
// Nothing is saved when fn returns an error.
func (d *Directory) Update(ctx context.Context, id string, fn func(*models.Rider) error) (models.Rider, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	riders, err := d.load(ctx)
	if err != nil {
		return models.Rider{}, err
	}
	idx := -1
	for i := range riders {
		if riders[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return models.Rider{}, fmt.Errorf("rider %s: %w", id, apperr.ErrNotFound)
	}
	if err := fn(&riders[idx]); err != nil {
		return models.Rider{}, err
	}
	if err := d.save(ctx, riders); err != nil {
		return models.Rider{}, err
	}
	return riders[idx], nil
}

func (d *Directory) load(ctx context.Context) ([]models.Rider, error) {
	riders, err := d.backend.LoadRiders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load riders: %w: %w", apperr.ErrPersistence, err)
	}
	return riders, nil
}

func (d *Directory) save(ctx context.Context, riders []models.Rider) error {
	if err := d.backend.SaveRiders(ctx, riders); err != nil {
		d.logger.Error("save riders failed", "error", err)
		return fmt.Errorf("save riders: %w: %w", apperr.ErrPersistence, err)
	}
	available := 0
	for _, r := range riders {
		if r.Status == models.RiderAvailable {
			available++
		}
	}
	observability.RidersAvailable.Set(float64(available))
	return nil
}
