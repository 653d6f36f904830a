package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleet", Name: "allocations_total", Help: "Allocation requests by result"},
		[]string{"result"},
	)
	AllocationLatency    = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "fleet", Name: "allocation_latency_seconds", Help: "Allocation latency seconds"})
	AllocationDistanceKm = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fleet",
		Name:      "allocation_distance_km",
		Help:      "Distance from pickup to the allocated rider",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 50},
	})
	RidersAvailable = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "fleet", Name: "riders_available", Help: "Riders with status available after the last roster write"})

	TasksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleet", Name: "tasks_created_total", Help: "Partner tasks created"},
		[]string{"category"},
	)
	TaskTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleet", Name: "task_transitions_total", Help: "Task status changes by target status"},
		[]string{"status"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleet", Name: "events_published_total", Help: "Domain events handed to the event publisher"},
		[]string{"type", "result"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: "fleet", Name: "http_requests_in_flight", Help: "HTTP requests currently being served"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fleet", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fleet",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
