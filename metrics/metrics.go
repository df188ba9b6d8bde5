// Package metrics collects and exposes Prometheus metrics for the auth API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels shared by the auth counters.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Collector holds the Prometheus metrics of the service.
type Collector struct {
	logins            *prometheus.CounterVec
	verifications     *prometheus.CounterVec
	refreshes         *prometheus.CounterVec
	logouts           *prometheus.CounterVec
	rateLimited       prometheus.Counter
	revocationsPurged prometheus.Counter
	requestDuration   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "music_auth_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "music_auth_token_verifications_total",
			Help: "Bearer token verifications by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "music_auth_refreshes_total",
			Help: "Access token refreshes by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "music_auth_logouts_total",
			Help: "Logouts by result.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "music_auth_login_rate_limited_total",
			Help: "Login requests rejected by the rate limiter.",
		}),
		revocationsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "music_auth_revocations_purged_total",
			Help: "Expired blacklist entries removed by the purger.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "music_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status_code"}),
	}

	reg.MustRegister(
		c.logins,
		c.verifications,
		c.refreshes,
		c.logouts,
		c.rateLimited,
		c.revocationsPurged,
		c.requestDuration,
	)

	return c
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) RecordVerification(result string) {
	c.verifications.WithLabelValues(result).Inc()
}

func (c *Collector) RecordRefresh(result string) {
	c.refreshes.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogout(result string) {
	c.logouts.WithLabelValues(result).Inc()
}

func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// RecordRevocationsPurged adds the number of entries removed by one purge run.
func (c *Collector) RecordRevocationsPurged(count int64) {
	c.revocationsPurged.Add(float64(count))
}

func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.requestDuration.WithLabelValues(method, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
