// Package eta derives the rider arrival estimate shown to partner platforms.
// It is a linear proxy on straight-line distance, not a routing estimate.
package eta

import (
	"fmt"
	"math"
)

const (
	MinutesPerKm = 3.0
	MinMinutes   = 3
)

// Minutes returns max(3, round(distanceKm*3)).
func Minutes(distanceKm float64) int {
	m := int(math.Round(distanceKm * MinutesPerKm))
	if m < MinMinutes {
		return MinMinutes
	}
	return m
}

// Label renders an estimate the way partner apps display it.
func Label(minutes int) string {
	return fmt.Sprintf("%d minutes", minutes)
}
