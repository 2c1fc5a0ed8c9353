package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	checkIns     *prometheus.CounterVec
	tokenRefresh *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests handled.",
			},
			[]string{"route", "code"},
		),
		checkIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkin_submissions_total",
				Help: "Check-in submissions by result.",
			},
			[]string{"result"},
		),
		tokenRefresh: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_refresh_total",
				Help: "Access token refreshes by result.",
			},
			[]string{"result"},
		),
	}
	m.Registry.MustRegister(m.httpRequests, m.checkIns, m.tokenRefresh)
	return m
}

func (m *Metrics) ObserveRequest(route string, status int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// CheckIn counts a submission with result one of accepted, duplicate,
// invalid or error.
func (m *Metrics) CheckIn(result string) {
	m.checkIns.WithLabelValues(result).Inc()
}

// Refresh counts a refresh with result one of ok, rejected or blocked.
func (m *Metrics) Refresh(result string) {
	m.tokenRefresh.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
