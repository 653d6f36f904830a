package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordJSONForms(t *testing.T) {
	var c Coord
	require.NoError(t, json.Unmarshal([]byte(`[12.93, 77.61]`), &c))
	assert.Equal(t, Coord{Lat: 12.93, Lng: 77.61}, c)

	require.NoError(t, json.Unmarshal([]byte(`{"lat": 1.5, "lng": 2.5}`), &c))
	assert.Equal(t, Coord{Lat: 1.5, Lng: 2.5}, c)

	require.NoError(t, json.Unmarshal([]byte(`{"lat": 3, "lon": 4}`), &c))
	assert.Equal(t, Coord{Lat: 3, Lng: 4}, c)

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &c))
	assert.Error(t, json.Unmarshal([]byte(`{"lat": 1}`), &c))
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &c))

	b, err := json.Marshal(Coord{Lat: 12.9, Lng: 77.6})
	require.NoError(t, err)
	assert.JSONEq(t, `[12.9, 77.6]`, string(b))
}

func TestTaskStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		ok       bool
	}{
		{TaskPending, TaskAssigned, true},
		{TaskAssigned, TaskPickedUp, true},
		{TaskPickedUp, TaskEnRoute, true},
		{TaskEnRoute, TaskDelivered, true},
		{TaskPending, TaskCancelled, true},
		{TaskEnRoute, TaskCancelled, true},
		{TaskPending, TaskDelivered, false},
		{TaskDelivered, TaskPending, false},
		{TaskAssigned, TaskPending, false},
		{TaskCancelled, TaskPending, false},
		{TaskDelivered, TaskCancelled, false},
		{TaskPending, TaskStatus("lost"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestRiderHasCategory(t *testing.T) {
	r := Rider{Categories: []Category{CategoryFood}}
	assert.True(t, r.HasCategory(CategoryFood))
	assert.False(t, r.HasCategory(CategoryTaxi))
	assert.False(t, r.HasCategory(""))
	assert.False(t, Rider{}.HasCategory(CategoryFood))
}

func TestTaskRiderIDSpellings(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","status":"assigned","riderId":"r1","pickup_location":[1,2]}`), &task))
	assert.Equal(t, "r1", task.RiderID)
	assert.Equal(t, TaskAssigned, task.Status)
	assert.Equal(t, Coord{Lat: 1, Lng: 2}, task.PickupLocation)

	var legacy Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t2","rider_id":"r2"}`), &legacy))
	assert.Equal(t, "r2", legacy.RiderID)

	b, err := json.Marshal(Task{ID: "t3", RiderID: "r3"})
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "r3", out["riderId"])
	assert.NotContains(t, out, "rider_id")
}
