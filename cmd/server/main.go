package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/example/fleet-allocation/internal/allocation"
	"github.com/example/fleet-allocation/internal/config"
	"github.com/example/fleet-allocation/internal/directory"
	"github.com/example/fleet-allocation/internal/dispatch"
	"github.com/example/fleet-allocation/internal/events"
	"github.com/example/fleet-allocation/internal/fleet"
	"github.com/example/fleet-allocation/internal/geo"
	httpapi "github.com/example/fleet-allocation/internal/http"
	"github.com/example/fleet-allocation/internal/logging"
	"github.com/example/fleet-allocation/internal/storage"
	"github.com/example/fleet-allocation/internal/taskmatch"
	"github.com/example/fleet-allocation/internal/tasks"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.ServerConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		migrate(cfg.PGDSN, logger)
	}

	backend, closer, err := storage.Open(ctx, storage.Options{
		Kind:          cfg.StorageBackend,
		DataDir:       cfg.DataDir,
		S3Bucket:      cfg.S3Bucket,
		S3Prefix:      cfg.S3Prefix,
		S3Region:      cfg.S3Region,
		PGDSN:         cfg.PGDSN,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closer.Close()

	if cfg.SeedFile != "" {
		seedRoster(ctx, backend, cfg.SeedFile, logger)
	}

	locator, closeLocator := newLocator(cfg, logger)
	defer closeLocator()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	defer publisher.Close()

	riders := directory.New(backend, logger)
	taskStore := tasks.New(backend, riders, logger)
	sessions := dispatch.NewWSRegistry()

	for _, r := range riders.List(ctx) {
		if err := locator.Upsert(ctx, r.ID, r.Coordinates); err != nil {
			logger.Warn("geo index warmup failed", "rider_id", r.ID, "error", err)
			break
		}
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Riders:    riders,
		Tasks:     taskStore,
		Allocator: &allocation.Service{Riders: riders, Notifier: sessions, Events: publisher, Logger: logger},
		Matches:   &taskmatch.Query{Riders: riders, Tasks: taskStore},
		Fleet:     fleet.NewService(riders, taskStore, sessions, publisher, logger),
		Locator:   locator,
		Sessions:  sessions,
		Events:    publisher,
		Logger:    logger,
		Ready: func(ctx context.Context) error {
			_, err := backend.LoadRiders(ctx)
			return err
		},
		CORSOrigins: cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fleet-allocation listening",
			"addr", cfg.HTTPAddr,
			"storage", cfg.StorageBackend,
			"events", cfg.EventsBackend,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// migrate applies migrations/001_create_collections.sql. Failures are logged;
// the postgres backend reports a missing table on first use.
func migrate(dsn string, logger *slog.Logger) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("migration db open error", "error", err)
		return
	}
	defer db.Close()

	name := "001_create_collections.sql"
	b, err := os.ReadFile(filepath.Join("migrations", name))
	if err != nil {
		logger.Error("migration read error", "file", name, "error", err)
		return
	}
	if _, err := db.Exec(string(b)); err != nil {
		logger.Error("migration exec error", "file", name, "error", err)
		return
	}
	logger.Info("migration applied", "file", name)
}

func seedRoster(ctx context.Context, backend storage.Backend, path string, logger *slog.Logger) {
	roster, err := storage.LoadSeed(path)
	if err != nil {
		logger.Error("seed file unusable", "path", path, "error", err)
		return
	}
	applied, err := storage.SeedRiders(ctx, backend, roster)
	if err != nil {
		logger.Error("seeding riders failed", "error", err)
		return
	}
	if applied {
		logger.Info("rider roster seeded", "path", path, "riders", len(roster))
	}
}

func newLocator(cfg config.ServerConfig, logger *slog.Logger) (geo.Locator, func()) {
	if cfg.RedisAddr == "" {
		return geo.NewIndex(), func() {}
	}
	c := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	logger.Info("using redis geo index", "addr", cfg.RedisAddr, "key", cfg.RedisGeoKey)
	return geo.NewRedisGeo(c, cfg.RedisGeoKey), func() { _ = c.Close() }
}

func newPublisher(cfg config.ServerConfig) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaLocationTopic, cfg.KafkaEventsTopic), nil
	case "amqp":
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return events.Nop{}, nil
	}
}
