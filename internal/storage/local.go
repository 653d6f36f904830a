package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirDocuments keeps each collection as <dir>/<collection>.json. Writes go
// through a temp file in the same directory and a rename, so a crash leaves
// either the old or the new roster on disk.
type DirDocuments struct {
	dir string
}

func NewDirDocuments(dir string) (*DirDocuments, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("data dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &DirDocuments{dir: abs}, nil
}

func (d *DirDocuments) path(c Collection) string {
	return filepath.Join(d.dir, c.File())
}

func (d *DirDocuments) Fetch(_ context.Context, c Collection) ([]byte, error) {
	doc, err := os.ReadFile(d.path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", c, ErrNotFound)
	}
	return doc, err
}

func (d *DirDocuments) Put(_ context.Context, c Collection, doc []byte) error {
	tmp, err := os.CreateTemp(d.dir, "."+string(c)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.path(c))
}

// NewFileStore is a JSONBackend writing riders.json and tasks.json under dir.
func NewFileStore(dir string) (*JSONBackend, error) {
	docs, err := NewDirDocuments(dir)
	if err != nil {
		return nil, err
	}
	return NewJSONBackend(docs), nil
}
