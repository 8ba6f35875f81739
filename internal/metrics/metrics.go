package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request counter
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP request duration histogram
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// Active HTTP connections gauge
	HTTPActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	// Business metrics
	VisitsLoggedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visits_logged_total",
			Help: "Total number of field visits logged",
		},
		[]string{"visit_type", "scheduled"}, // scheduled: "yes" when the type drives a follow-up
	)

	DashboardQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_queries_total",
			Help: "Total number of worker dashboard classifications served",
		},
	)

	GeocodeLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_lookups_total",
			Help: "Total number of reverse geocoding lookups",
		},
		[]string{"result"}, // "success", "error"
	)

	GeocodeLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geocode_lookup_duration_seconds",
			Help:    "Duration of reverse geocoding lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)

	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordVisitLogged records a successfully recorded field visit
func RecordVisitLogged(visitType string, scheduled bool) {
	flag := "no"
	if scheduled {
		flag = "yes"
	}
	VisitsLoggedTotal.WithLabelValues(visitType, flag).Inc()
}

// RecordDashboardQuery records a served dashboard classification
func RecordDashboardQuery() {
	DashboardQueriesTotal.Inc()
}

// RecordGeocodeLookup records the outcome of a reverse geocoding lookup
func RecordGeocodeLookup(result string) {
	GeocodeLookupsTotal.WithLabelValues(result).Inc()
}

// RecordGeocodeDuration records how long a reverse geocoding lookup took
func RecordGeocodeDuration(duration time.Duration) {
	GeocodeLookupDuration.Observe(duration.Seconds())
}

// IncActiveConnections increments active connections
func IncActiveConnections() {
	HTTPActiveConnections.Inc()
}

// DecActiveConnections decrements active connections
func DecActiveConnections() {
	HTTPActiveConnections.Dec()
}
