// Command consumer drains rider location updates from kafka into the redis
// geo index that the API's nearby lookups read.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/fleet-allocation/internal/config"
	"github.com/example/fleet-allocation/internal/logging"
)

const (
	outcomeApplied = "applied"
	outcomeInvalid = "invalid"
	outcomeFailed  = "failed"
)

var (
	locationUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleet",
		Subsystem: "consumer",
		Name:      "location_updates_total",
		Help:      "Rider location messages handled, by outcome",
	}, []string{"outcome"})
	readFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleet",
		Subsystem: "consumer",
		Name:      "read_failures_total",
		Help:      "Kafka read errors that triggered a backoff",
	})
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

func main() {
	cfg, err := config.LoadConsumerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rc.Close()

	health := healthServer(cfg.MetricsAddr, rc)
	go func() {
		logger.Info("consumer health endpoint up", "addr", cfg.MetricsAddr)
		if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health endpoint stopped", "error", err)
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroup,
		MinBytes: 1,
		MaxBytes: 1 << 20,
		MaxWait:  500 * time.Millisecond,
	})
	defer reader.Close()

	applier := &locationApplier{redis: &redisAdapter{c: rc}, geoKey: cfg.RedisGeoKey, logger: logger}
	logger.Info("draining rider locations",
		"topic", cfg.KafkaTopic,
		"group", cfg.KafkaGroup,
		"geo_key", cfg.RedisGeoKey,
	)
	consume(ctx, reader, applier, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = health.Shutdown(shutdownCtx)
	logger.Info("consumer stopped")
}

// consume reads until ctx is cancelled, backing off exponentially while the
// broker is unreachable.
func consume(ctx context.Context, reader *kafka.Reader, applier *locationApplier, logger *slog.Logger) {
	wait := initialBackoff
	for {
		msg, err := reader.ReadMessage(ctx)
		switch {
		case err == nil:
			wait = initialBackoff
			applier.handle(ctx, msg.Value)
		case ctx.Err() != nil:
			return
		default:
			readFailures.Inc()
			logger.Warn("kafka read failed", "error", err, "retry_in", wait)
			if !sleepCtx(ctx, wait) {
				return
			}
			wait = min(wait*2, maxBackoff)
		}
	}
}

func healthServer(addr string, rc *redis.Client) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := rc.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ready"))
	})
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

type redisAdapter struct{ c *redis.Client }

func (r *redisAdapter) GeoAdd(ctx context.Context, key string, loc *redis.GeoLocation) error {
	return r.c.GeoAdd(ctx, key, loc).Err()
}

func (r *redisAdapter) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	return r.c.HSet(ctx, key, values).Err()
}
