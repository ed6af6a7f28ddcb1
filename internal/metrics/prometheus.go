// Package metrics provides Prometheus metrics for certvault.
package metrics

import (
	"strconv"
	"time"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "certvault"

// Metrics holds every collector the service exports.
type Metrics struct {
	CertificatesIssued   prometheus.Counter
	Verifications        *prometheus.CounterVec
	Logins               *prometheus.CounterVec
	CertificatesByStatus *prometheus.GaugeVec
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		CertificatesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "certificates_issued_total",
			Help:      "Number of certificates issued.",
		}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Public verification attempts by result.",
		}, []string{"result"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		CertificatesByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "certificates",
			Help:      "Stored certificates by status.",
		}, []string{"status"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	for _, c := range []prometheus.Collector{
		m.CertificatesIssued,
		m.Verifications,
		m.Logins,
		m.CertificatesByStatus,
		m.HTTPRequests,
		m.HTTPDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordIssued counts an issued certificate.
func (m *Metrics) RecordIssued() {
	m.CertificatesIssued.Inc()
}

// RecordVerification counts a verification attempt as hit or miss.
func (m *Metrics) RecordVerification(found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	m.Verifications.WithLabelValues(result).Inc()
}

// RecordLogin counts a login attempt by result (success, failure, throttled).
func (m *Metrics) RecordLogin(result string) {
	m.Logins.WithLabelValues(result).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// SetCertificateCounts replaces the per-status gauges. Missing statuses are reported as zero.
func (m *Metrics) SetCertificateCounts(counts map[models.CertificateStatus]int64) {
	for _, status := range models.AllCertificateStatuses {
		m.CertificatesByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
