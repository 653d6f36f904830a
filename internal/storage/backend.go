package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/fleet-allocation/internal/models"
)

// ErrNotFound is returned by a DocumentStore when a collection has never been
// written.
var ErrNotFound = errors.New("not found")

// Collection names one of the persisted entity collections.
type Collection string

const (
	Riders Collection = "riders"
	Tasks  Collection = "tasks"
)

// File is the collection's document name in file-like stores.
func (c Collection) File() string { return string(c) + ".json" }

// Backend persists the two entity collections. Every call loads or saves a
// whole collection; order is preserved.
type Backend interface {
	LoadRiders(ctx context.Context) ([]models.Rider, error)
	SaveRiders(ctx context.Context, riders []models.Rider) error
	LoadTasks(ctx context.Context) ([]models.Task, error)
	SaveTasks(ctx context.Context, tasks []models.Task) error
}

// DocumentStore keeps one encoded document per collection. Each
// implementation decides where a collection lives.
type DocumentStore interface {
	Fetch(ctx context.Context, c Collection) ([]byte, error)
	Put(ctx context.Context, c Collection, doc []byte) error
}

// JSONBackend stores each collection as one JSON array in a DocumentStore.
// A collection that was never written loads as empty.
type JSONBackend struct {
	docs DocumentStore
}

func NewJSONBackend(docs DocumentStore) *JSONBackend {
	return &JSONBackend{docs: docs}
}

func (b *JSONBackend) LoadRiders(ctx context.Context) ([]models.Rider, error) {
	return decodeCollection[models.Rider](ctx, b.docs, Riders)
}

func (b *JSONBackend) SaveRiders(ctx context.Context, riders []models.Rider) error {
	return encodeCollection(ctx, b.docs, Riders, riders)
}

func (b *JSONBackend) LoadTasks(ctx context.Context) ([]models.Task, error) {
	return decodeCollection[models.Task](ctx, b.docs, Tasks)
}

func (b *JSONBackend) SaveTasks(ctx context.Context, tasks []models.Task) error {
	return encodeCollection(ctx, b.docs, Tasks, tasks)
}

func decodeCollection[T any](ctx context.Context, docs DocumentStore, c Collection) ([]T, error) {
	doc, err := docs.Fetch(ctx, c)
	switch {
	case errors.Is(err, ErrNotFound):
		return []T{}, nil
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", c, err)
	}
	items := []T{}
	if err := json.Unmarshal(doc, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func encodeCollection[T any](ctx context.Context, docs DocumentStore, c Collection, items []T) error {
	if items == nil {
		items = []T{}
	}
	doc, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	if err := docs.Put(ctx, c, doc); err != nil {
		return fmt.Errorf("save %s: %w", c, err)
	}
	return nil
}
