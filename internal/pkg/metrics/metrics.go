package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisorlens",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "advisorlens",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// Upload validation metrics
	uploadValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisorlens",
			Subsystem: "upload",
			Name:      "validations_total",
			Help:      "Upload validation outcomes by result and rejection reason",
		},
		[]string{"result", "reason"},
	)

	// Pipeline metrics
	rowsParsedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "advisorlens",
			Subsystem: "pipeline",
			Name:      "rows_parsed_total",
			Help:      "Total number of CSV rows parsed into recommendations",
		},
	)

	rowsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "advisorlens",
			Subsystem: "pipeline",
			Name:      "rows_skipped_total",
			Help:      "Total number of CSV rows skipped due to row-level defects",
		},
	)

	commitmentsClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisorlens",
			Subsystem: "pipeline",
			Name:      "commitments_classified_total",
			Help:      "Reservation classifier outcomes by commitment category",
		},
		[]string{"category"},
	)

	pipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "advisorlens",
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "End-to-end duration of one CSV processing invocation",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	reportsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "advisorlens",
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Reports generated by report type",
		},
		[]string{"type"},
	)
)

// RecordUploadValidation records one upload validation decision.
func RecordUploadValidation(accepted bool, reason string) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	uploadValidationsTotal.WithLabelValues(result, reason).Inc()
}

// RecordRows records parsed and skipped row counts for one file.
func RecordRows(parsed, skipped int) {
	rowsParsedTotal.Add(float64(parsed))
	rowsSkippedTotal.Add(float64(skipped))
}

// RecordClassification records one classifier outcome.
func RecordClassification(category string) {
	commitmentsClassifiedTotal.WithLabelValues(category).Inc()
}

// RecordPipelineDuration records the wall time of one pipeline invocation.
func RecordPipelineDuration(d time.Duration) {
	pipelineDuration.Observe(d.Seconds())
}

// RecordReportGenerated records one generated report by type.
func RecordReportGenerated(reportType string) {
	reportsGeneratedTotal.WithLabelValues(reportType).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments HTTP handlers with request count and duration.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
	})
}
