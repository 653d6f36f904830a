package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/fleet-allocation/internal/geo"
	"github.com/example/fleet-allocation/internal/models"
)

// RedisUpdater is the subset of redis the consumer writes with.
type RedisUpdater interface {
	GeoAdd(ctx context.Context, key string, loc *redis.GeoLocation) error
	HSet(ctx context.Context, key string, values map[string]interface{}) error
}

var errInvalidUpdate = errors.New("location update needs rider_id and finite coordinates")

// locationApplier folds rider location messages into the redis geo index
// the API reads for nearby lookups.
type locationApplier struct {
	redis    RedisUpdater
	geoKey   string
	logger   *slog.Logger
	attempts int
	delay    time.Duration
}

func (a *locationApplier) handle(ctx context.Context, value []byte) {
	u, err := decodeLocation(value)
	if err != nil {
		locationUpdates.WithLabelValues(outcomeInvalid).Inc()
		a.logger.Warn("invalid message", "error", err)
		return
	}
	attempts, delay := a.attempts, a.delay
	if attempts == 0 {
		attempts, delay = 3, 200*time.Millisecond
	}
	if err := updateRedisWithRetry(ctx, a.redis, a.geoKey, u, attempts, delay); err != nil {
		locationUpdates.WithLabelValues(outcomeFailed).Inc()
		a.logger.Error("redis update failed", "rider_id", u.RiderID, "error", err)
		return
	}
	locationUpdates.WithLabelValues(outcomeApplied).Inc()
}

func decodeLocation(value []byte) (models.LocationUpdate, error) {
	var u models.LocationUpdate
	if err := json.Unmarshal(value, &u); err != nil {
		return u, err
	}
	if u.RiderID == "" || !u.Coord.Valid() {
		return u, errInvalidUpdate
	}
	return u, nil
}

// updateRedisWithRetry writes the position and its metadata hash, retrying
// each step with doubling delay.
func updateRedisWithRetry(ctx context.Context, rc RedisUpdater, geoKey string, u models.LocationUpdate, attempts int, delay time.Duration) error {
	at := u.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = rc.GeoAdd(ctx, geoKey, &redis.GeoLocation{Longitude: u.Coord.Lng, Latitude: u.Coord.Lat, Name: u.RiderID}); err == nil {
			err = rc.HSet(ctx, geo.MetaKey(u.RiderID), map[string]interface{}{
				"lat":     u.Coord.Lat,
				"lng":     u.Coord.Lng,
				"updated": at.Format(time.RFC3339),
			})
		}
		if err == nil {
			return nil
		}
		if i == attempts-1 || !sleepCtx(ctx, delay) {
			break
		}
		delay *= 2
	}
	return err
}

// sleepCtx waits for d; it returns false if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
