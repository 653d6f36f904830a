package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDocuments keeps each collection as one row of fleet_collections, see
// migrations/001_create_collections.sql.
type PostgresDocuments struct {
	db *sql.DB
}

func NewPostgresDocuments(dsn string) (*PostgresDocuments, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}
	return &PostgresDocuments{db: db}, nil
}

func (p *PostgresDocuments) Fetch(ctx context.Context, c Collection) ([]byte, error) {
	var body []byte
	err := p.db.QueryRowContext(ctx, `SELECT body FROM fleet_collections WHERE name = $1`, string(c)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", c, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", c, err)
	}
	return body, nil
}

func (p *PostgresDocuments) Put(ctx context.Context, c Collection, doc []byte) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO fleet_collections(name, body, updated_at) VALUES($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`, string(c), doc)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", c, err)
	}
	return nil
}

func (p *PostgresDocuments) Close() error { return p.db.Close() }
