package storage

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/fleet-allocation/internal/category"
	"github.com/example/fleet-allocation/internal/models"
)

type seedFile struct {
	Riders []seedRider `yaml:"riders"`
}

type seedRider struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Phone         string   `yaml:"phone"`
	LocationLabel string   `yaml:"location_label"`
	Lat           float64  `yaml:"lat"`
	Lng           float64  `yaml:"lng"`
	Categories    []string `yaml:"categories"`
	Status        string   `yaml:"status"`
	Rating        float64  `yaml:"rating"`
	TotalRides    int      `yaml:"total_rides"`
	TotalEarnings float64  `yaml:"total_earnings"`
}

// ParseSeed decodes a YAML rider roster. Categories are normalised and a
// missing status defaults to available.
func ParseSeed(data []byte) ([]models.Rider, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	out := make([]models.Rider, 0, len(f.Riders))
	for i, sr := range f.Riders {
		if sr.ID == "" {
			return nil, fmt.Errorf("seed rider #%d: missing id", i)
		}
		status := models.RiderStatus(sr.Status)
		if status == "" {
			status = models.RiderAvailable
		}
		if !status.IsValid() {
			return nil, fmt.Errorf("seed rider %s: invalid status %q", sr.ID, sr.Status)
		}
		out = append(out, models.Rider{
			ID:            sr.ID,
			Name:          sr.Name,
			Phone:         sr.Phone,
			LocationLabel: sr.LocationLabel,
			Coordinates:   models.Coord{Lat: sr.Lat, Lng: sr.Lng},
			Categories:    category.NormalizeAll(sr.Categories),
			Status:        status,
			Rating:        sr.Rating,
			TotalRides:    sr.TotalRides,
			TotalEarnings: sr.TotalEarnings,
		})
	}
	return out, nil
}

func LoadSeed(path string) ([]models.Rider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return ParseSeed(data)
}

// SeedRiders saves riders into b only when its rider collection is empty.
// It reports whether the seed was applied.
func SeedRiders(ctx context.Context, b Backend, riders []models.Rider) (bool, error) {
	existing, err := b.LoadRiders(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 || len(riders) == 0 {
		return false, nil
	}
	if err := b.SaveRiders(ctx, riders); err != nil {
		return false, err
	}
	return true, nil
}
