package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Every field has a default so the binary runs locally with no environment.
type ServerConfig struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	DataDir        string `envconfig:"DATA_DIR" default:"data"`
	S3Bucket       string `envconfig:"S3_BUCKET"`
	S3Prefix       string `envconfig:"S3_PREFIX" default:"fleet/"`
	S3Region       string `envconfig:"S3_REGION" default:"ap-south-1"`
	PGDSN          string `envconfig:"PG_DSN"`
	RunMigrations  bool   `envconfig:"MIGRATE" default:"false"`
	SeedFile       string `envconfig:"SEED_FILE"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisGeoKey   string `envconfig:"REDIS_GEO_KEY" default:"riders_geo"`

	EventsBackend      string   `envconfig:"EVENTS_BACKEND" default:"none"`
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	KafkaLocationTopic string   `envconfig:"KAFKA_LOCATION_TOPIC" default:"rider-locations"`
	KafkaEventsTopic   string   `envconfig:"KAFKA_EVENTS_TOPIC" default:"fleet-events"`
	AMQPURL            string   `envconfig:"AMQP_URL"`
	AMQPExchange       string   `envconfig:"AMQP_EXCHANGE" default:"fleet.events"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ConsumerConfig drives cmd/consumer, which folds rider location events into
// the Redis geo index.
type ConsumerConfig struct {
	MetricsAddr   string   `envconfig:"METRICS_ADDR" default:":2112"`
	KafkaBrokers  []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic    string   `envconfig:"KAFKA_LOCATION_TOPIC" default:"rider-locations"`
	KafkaGroup    string   `envconfig:"KAFKA_GROUP" default:"fleet-location-consumer"`
	RedisAddr     string   `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string   `envconfig:"REDIS_PASSWORD"`
	RedisGeoKey   string   `envconfig:"REDIS_GEO_KEY" default:"riders_geo"`
	LogLevel      string   `envconfig:"LOG_LEVEL" default:"info"`
}

func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load env: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.EventsBackend = strings.ToLower(strings.TrimSpace(cfg.EventsBackend))
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.KafkaBrokers = trimAll(cfg.KafkaBrokers)
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)
	return cfg, cfg.validate()
}

func LoadConsumerConfig() (ConsumerConfig, error) {
	var cfg ConsumerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load env: %w", err)
	}
	cfg.KafkaBrokers = trimAll(cfg.KafkaBrokers)
	if len(cfg.KafkaBrokers) == 0 {
		return cfg, errors.New("KAFKA_BROKERS must name at least one broker")
	}
	return cfg, nil
}

func (c ServerConfig) validate() error {
	var errs []error
	for name, d := range map[string]time.Duration{
		"HTTP_READ_TIMEOUT":     c.ReadTimeout,
		"HTTP_WRITE_TIMEOUT":    c.WriteTimeout,
		"HTTP_IDLE_TIMEOUT":     c.IdleTimeout,
		"HTTP_SHUTDOWN_TIMEOUT": c.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0", name))
		}
	}

	switch c.StorageBackend {
	case "memory":
	case "file":
		if c.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required for the file backend"))
		}
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 backend"))
		}
	case "postgres":
		if c.PGDSN == "" {
			errs = append(errs, errors.New("PG_DSN is required for the postgres backend"))
		}
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	if c.RunMigrations && c.PGDSN == "" {
		errs = append(errs, errors.New("MIGRATE needs PG_DSN"))
	}

	switch c.EventsBackend {
	case "none":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka events backend"))
		}
	case "amqp":
		if c.AMQPURL == "" {
			errs = append(errs, errors.New("AMQP_URL is required for the amqp events backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend))
	}
	return errors.Join(errs...)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
