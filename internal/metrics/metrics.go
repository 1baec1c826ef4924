package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service's collectors; /metrics serves only this registry.
	Registry = prometheus.NewRegistry()

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuelsync",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fuelsync",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	ReadingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuelsync",
			Subsystem: "readings",
			Name:      "submitted_total",
			Help:      "Nozzle readings submitted, by validation outcome.",
		},
		[]string{"outcome"},
	)

	SalesVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuelsync",
			Subsystem: "sales",
			Name:      "volume_litres_total",
			Help:      "Litres sold through recorded readings.",
		},
		[]string{"fuel_type", "payment_method"},
	)

	AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fuelsync",
			Subsystem: "alerts",
			Name:      "raised_total",
			Help:      "Alerts created, by type.",
		},
		[]string{"type"},
	)

	AlertRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fuelsync",
			Subsystem: "alerts",
			Name:      "run_duration_seconds",
			Help:      "Duration of a full alert rule evaluation.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	RealtimeClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fuelsync",
			Subsystem: "realtime",
			Name:      "clients",
			Help:      "Connected alert stream clients.",
		},
	)
)

func init() {
	Registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ReadingsTotal,
		SalesVolume,
		AlertsRaised,
		AlertRunDuration,
		RealtimeClients,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
