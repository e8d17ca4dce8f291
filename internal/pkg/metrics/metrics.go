package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every garage metric plus the Go runtime and process
// collectors. It is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// VehicleActionsTotal counts vehicle actions by outcome.
	// result: success/rejected
	VehicleActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garage_vehicle_actions_total",
			Help: "Total number of vehicle actions handled by the garage.",
		},
		[]string{"action", "result"},
	)

	// Vehicles reports how many vehicles the garage currently holds.
	Vehicles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "garage_vehicles",
			Help: "Number of vehicles in the garage.",
		},
	)

	// PersistFailuresTotal counts failed store operations.
	// op: save/load/select/reset
	PersistFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garage_persist_failures_total",
			Help: "Total number of failed persistence operations.",
		},
		[]string{"op"},
	)

	// WeatherRequestSeconds tracks upstream weather API latency.
	WeatherRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "garage_weather_request_seconds",
			Help:    "Latency of requests to the upstream weather API.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "code"},
	)

	// NotificationsTotal counts published events by outcome.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garage_notifications_total",
			Help: "Total number of garage events handed to the notifier.",
		},
		[]string{"type", "result"},
	)
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(VehicleActionsTotal)
	Registry.MustRegister(Vehicles)
	Registry.MustRegister(PersistFailuresTotal)
	Registry.MustRegister(WeatherRequestSeconds)
	Registry.MustRegister(NotificationsTotal)
}

// Outcome maps a success flag to the result label value.
func Outcome(success bool) string {
	if success {
		return "success"
	}
	return "rejected"
}
