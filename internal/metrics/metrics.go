package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	IncidentsCreated prometheus.Counter
	ActivityLogged   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "notifiq_http_requests_total",
			Help: "Total HTTP requests served, by method, route pattern and status class",
		}, []string{"method", "route", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notifiq_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		IncidentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifiq_incidents_created_total",
			Help: "Total incidents created through the API",
		}),
		ActivityLogged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifiq_activity_entries_total",
			Help: "Total activity-log entries appended to incidents",
		}),
	}
}
