package metrics

import (
	"github.com/emrgen/ingest/internal/content"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ingest", Name: "uploads_total", Help: "Number of uploaded documents by kind and result."},
		[]string{"kind", "result"},
	)
	VersionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ingest", Name: "versions_total", Help: "Number of records saved as a new version, by kind."},
		[]string{"kind"},
	)
	ValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ingest", Name: "validations_total", Help: "Number of shape validations by kind and result."},
		[]string{"kind", "result"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ingest", Name: "rate_limit_rejected_total", Help: "Number of requests rejected by the upload limiter."},
		[]string{"route"},
	)
	LibraryRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "ingest", Name: "library_records", Help: "Number of records in the library by kind."},
		[]string{"kind"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "ingest", Name: "http_request_duration_seconds", Help: "HTTP request latency by route and status.", Buckets: prometheus.DefBuckets},
		[]string{"route", "status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(UploadsTotal)
	reg.MustRegister(VersionsTotal)
	reg.MustRegister(ValidationsTotal)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(LibraryRecords)
	reg.MustRegister(RequestDuration)
}

// ObserveValidation counts one validation outcome.
func ObserveValidation(res content.Result) {
	result := "valid"
	if !res.Valid {
		result = "invalid"
	}
	ValidationsTotal.WithLabelValues(res.Kind.String(), result).Inc()
}
