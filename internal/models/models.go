package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Coord is a latitude/longitude pair. On the wire it is the two-element
// array [lat, lng]; the object form {"lat":..,"lng":..} is accepted on input.
type Coord struct {
	Lat float64
	Lng float64
}

func (c Coord) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) && !math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

func (c *Coord) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("coordinate must have 2 elements, got %d", len(pair))
		}
		c.Lat, c.Lng = pair[0], pair[1]
		return nil
	}
	var obj struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
		Lon *float64 `json:"lon"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("invalid coordinate: %w", err)
	}
	if obj.Lng == nil {
		obj.Lng = obj.Lon
	}
	if obj.Lat == nil || obj.Lng == nil {
		return fmt.Errorf("coordinate requires lat and lng")
	}
	c.Lat, c.Lng = *obj.Lat, *obj.Lng
	return nil
}

type Category string

const (
	CategoryFood    Category = "food"
	CategoryGrocery Category = "grocery"
	CategoryCourier Category = "courier"
	CategoryTaxi    Category = "taxi"
)

type RiderStatus string

const (
	RiderAvailable RiderStatus = "available"
	RiderBusy      RiderStatus = "busy"
	RiderOffline   RiderStatus = "offline"
)

func (s RiderStatus) IsValid() bool {
	switch s {
	case RiderAvailable, RiderBusy, RiderOffline:
		return true
	default:
		return false
	}
}

type Rider struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Phone         string      `json:"phone"`
	LocationLabel string      `json:"location_label"`
	Coordinates   Coord       `json:"coordinates"`
	Categories    []Category  `json:"categories"`
	Status        RiderStatus `json:"status"`
	Rating        float64     `json:"rating"`
	TotalRides    int         `json:"total_rides"`
	TotalEarnings float64     `json:"total_earnings"`
}

// HasCategory reports whether c is one of the rider's declared categories.
// An empty c never matches.
func (r Rider) HasCategory(c Category) bool {
	if c == "" {
		return false
	}
	for _, rc := range r.Categories {
		if rc == c {
			return true
		}
	}
	return false
}

type Task struct {
	ID              string     `json:"id"`
	Platform        string     `json:"platform"`
	Category        Category   `json:"category"`
	PickupLocation  Coord      `json:"pickup_location"`
	DropoffLocation Coord      `json:"dropoff_location"`
	Status          TaskStatus `json:"status"`
	RiderID         string     `json:"riderId,omitempty"`
	EstimatedValue  float64    `json:"estimated_value"`
	CreatedAt       time.Time  `json:"created_at"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
}

// UnmarshalJSON also accepts rider_id, which some partner payloads and
// older collection files use in place of riderId.
func (t *Task) UnmarshalJSON(b []byte) error {
	type plain Task
	var aux struct {
		plain
		SnakeRiderID string `json:"rider_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*t = Task(aux.plain)
	if t.RiderID == "" {
		t.RiderID = aux.SnakeRiderID
	}
	return nil
}

// TaskMatch is a pending task annotated with its distance from a rider.
type TaskMatch struct {
	Task
	DistanceKm float64 `json:"distance_km"`
}

// Order is an inbound allocation request from a partner platform.
type Order struct {
	OrderID         string `json:"order_id"`
	Platform        string `json:"platform"`
	Category        string `json:"category"`
	PickupLocation  *Coord `json:"pickup_location"`
	DropoffLocation *Coord `json:"dropoff_location"`
}

// LocationUpdate is published whenever a rider reports a new position.
type LocationUpdate struct {
	RiderID string    `json:"rider_id"`
	Coord   Coord     `json:"coord"`
	At      time.Time `json:"at"`
}
