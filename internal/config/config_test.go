package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "file", cfg.StorageBackend)
	assert.Equal(t, "none", cfg.EventsBackend)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "riders_geo", cfg.RedisGeoKey)
}

func TestLoadServerConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("HTTP_WRITE_TIMEOUT", "3s")
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "fleet-data")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadServerConfigCollectsErrors(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("EVENTS_BACKEND", "amqp")
	t.Setenv("HTTP_IDLE_TIMEOUT", "0s")

	_, err := LoadServerConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PG_DSN")
	assert.Contains(t, err.Error(), "AMQP_URL")
	assert.Contains(t, err.Error(), "HTTP_IDLE_TIMEOUT")
}

func TestLoadServerConfigBadDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "soon")
	_, err := LoadServerConfig()
	assert.Error(t, err)
}

func TestLoadServerConfigUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "floppy")
	_, err := LoadServerConfig()
	assert.ErrorContains(t, err, "floppy")
}

func TestLoadConsumerConfig(t *testing.T) {
	t.Setenv("KAFKA_GROUP", "g1")
	cfg, err := LoadConsumerConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "g1", cfg.KafkaGroup)
	assert.Equal(t, "rider-locations", cfg.KafkaTopic)
}
