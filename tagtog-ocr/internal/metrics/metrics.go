package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// File outcomes.
const (
	OutcomeUploaded  = "uploaded"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
	OutcomeListed    = "listed"
)

// Recorder holds the run's counters on a private registry.
type Recorder struct {
	registry       *prometheus.Registry
	filesTotal     *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	uploadedBytes  prometheus.Counter
	credentialTest *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagtog_ocr_files_total",
				Help: "Total number of input files by source kind and outcome",
			},
			[]string{"source", "outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tagtog_ocr_stage_duration_seconds",
				Help:    "Duration of per-file processing stages",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"stage"},
		),
		uploadedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tagtog_ocr_uploaded_bytes_total",
				Help: "Total bytes of OCR output uploaded",
			},
		),
		credentialTest: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tagtog_ocr_credential_checks_total",
				Help: "Total number of credential checks by status",
			},
			[]string{"status"},
		),
	}
	r.registry.MustRegister(r.filesTotal, r.stageDuration, r.uploadedBytes, r.credentialTest)
	return r
}

func (r *Recorder) File(source, outcome string) {
	r.filesTotal.WithLabelValues(source, outcome).Inc()
}

// Stage returns a func that observes the elapsed time for stage when called.
func (r *Recorder) Stage(stage string) func() {
	start := time.Now()
	return func() {
		r.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func (r *Recorder) Uploaded(bytes int64) {
	r.uploadedBytes.Add(float64(bytes))
}

func (r *Recorder) CredentialCheck(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	r.credentialTest.WithLabelValues(status).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Push sends the collected metrics to a Prometheus Pushgateway.
func (r *Recorder) Push(url, runID string) error {
	if url == "" {
		return nil
	}
	err := push.New(url, "tagtog_ocr").
		Gatherer(r.registry).
		Grouping("run_id", runID).
		Push()
	if err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
