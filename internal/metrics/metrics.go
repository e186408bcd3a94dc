// Package metrics provides Prometheus metrics for the ETL pipeline.
// Metrics are maintained in-process; an HTTP endpoint is only started when
// explicitly enabled, since the pipeline is a single-shot batch job.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	RecordsExtracted prometheus.Counter
	RecordsProcessed prometheus.Counter
	RowsDropped      prometheus.Counter

	ValidationIssues prometheus.Counter
	QualityScore     prometheus.Gauge

	LoadSuccess *prometheus.CounterVec // by destination
	LoadFailure *prometheus.CounterVec // by destination

	StageDuration *prometheus.HistogramVec // by stage
}

var (
	global *Metrics
	once   sync.Once
)

// Init creates and registers the global metrics. Safe to call more than
// once.
func Init() *Metrics {
	once.Do(func() {
		global = &Metrics{
			RecordsExtracted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sii_etl_records_extracted_total",
				Help: "Records read from the raw source.",
			}),
			RecordsProcessed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sii_etl_records_processed_total",
				Help: "Records remaining after transformation.",
			}),
			RowsDropped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sii_etl_rows_dropped_total",
				Help: "Rows removed by cleaning.",
			}),
			ValidationIssues: promauto.NewCounter(prometheus.CounterOpts{
				Name: "sii_etl_validation_issues_total",
				Help: "Issues reported by the validation chain.",
			}),
			QualityScore: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "sii_etl_quality_score",
				Help: "Quality score of the last validation pass.",
			}),
			LoadSuccess: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "sii_etl_load_success_total",
				Help: "Successful destination writes.",
			}, []string{"destination"}),
			LoadFailure: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "sii_etl_load_failure_total",
				Help: "Failed destination writes.",
			}, []string{"destination"}),
			StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "sii_etl_stage_duration_seconds",
				Help:    "Wall time per pipeline stage.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			}, []string{"stage"}),
		}
	})
	return global
}

// Get returns the global metrics, or nil if Init was never called.
func Get() *Metrics {
	return global
}

// Serve exposes /metrics on addr in a background goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, mux)
}
