// Package category maps the category spellings used by partner platforms
// onto the canonical delivery categories.
package category

import "github.com/example/fleet-allocation/internal/models"

var aliases = map[string]models.Category{
	"food_delivery":    models.CategoryFood,
	"grocery_delivery": models.CategoryGrocery,
	"courier_services": models.CategoryCourier,
	"bike_taxi":        models.CategoryTaxi,
	"food":             models.CategoryFood,
	"grocery":          models.CategoryGrocery,
	"courier":          models.CategoryCourier,
	"taxi":             models.CategoryTaxi,
}

// Normalize returns the canonical category for raw. Unknown values pass
// through unchanged and the empty string stays empty.
func Normalize(raw string) models.Category {
	if raw == "" {
		return ""
	}
	if c, ok := aliases[raw]; ok {
		return c
	}
	return models.Category(raw)
}

func NormalizeAll(raw []string) []models.Category {
	out := make([]models.Category, 0, len(raw))
	for _, r := range raw {
		out = append(out, Normalize(r))
	}
	return out
}

// IsCanonical reports whether c belongs to the closed canonical set.
func IsCanonical(c models.Category) bool {
	switch c {
	case models.CategoryFood, models.CategoryGrocery, models.CategoryCourier, models.CategoryTaxi:
		return true
	default:
		return false
	}
}
