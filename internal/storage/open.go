package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// Options selects and configures a Backend.
type Options struct {
	Kind string // memory, file, s3, postgres, redis

	DataDir string

	S3Bucket string
	S3Prefix string
	S3Region string

	PGDSN string

	RedisAddr     string
	RedisPassword string
}

// Open builds the Backend named by opts.Kind. The returned closer releases
// any connection the backend holds and is never nil.
func Open(ctx context.Context, opts Options) (Backend, io.Closer, error) {
	switch opts.Kind {
	case "", "memory":
		return NewMemoryStore(), nopCloser{}, nil
	case "file":
		b, err := NewFileStore(opts.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return b, nopCloser{}, nil
	case "s3":
		if opts.S3Bucket == "" {
			return nil, nil, fmt.Errorf("s3 backend requires a bucket")
		}
		docs, err := NewS3Documents(ctx, opts.S3Bucket, opts.S3Prefix, opts.S3Region)
		if err != nil {
			return nil, nil, err
		}
		return NewJSONBackend(docs), nopCloser{}, nil
	case "postgres":
		docs, err := NewPostgresDocuments(opts.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres backend: %w", err)
		}
		return NewJSONBackend(docs), docs, nil
	case "redis":
		c := redis.NewClient(&redis.Options{Addr: opts.RedisAddr, Password: opts.RedisPassword})
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return nil, nil, fmt.Errorf("redis backend: %w", err)
		}
		return NewJSONBackend(NewRedisDocuments(c)), c, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", opts.Kind)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
