package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// file outcomes
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// IngestMetrics counts pipeline work. A nil *IngestMetrics is valid and
// records nothing.
type IngestMetrics struct {
	registry *prometheus.Registry

	filesTotal     *prometheus.CounterVec
	fileDuration   *prometheus.HistogramVec
	filesInFlight  prometheus.Gauge
	documentsTotal *prometheus.CounterVec
}

func NewIngestMetrics() *IngestMetrics {
	registry := prometheus.NewRegistry()

	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "ingest",
			Name:      "files_total",
			Help:      "Total input entries by kind and outcome.",
		},
		[]string{"kind", "status"},
	)
	fileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rag",
			Subsystem: "ingest",
			Name:      "file_duration_seconds",
			Help:      "Per-file processing duration in seconds by kind and outcome.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind", "status"},
	)
	filesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rag",
			Subsystem: "ingest",
			Name:      "files_in_flight",
			Help:      "Number of files currently being processed.",
		},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rag",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Documents inserted into the vector store by type.",
		},
		[]string{"type"},
	)

	registry.MustRegister(filesTotal, fileDuration, filesInFlight, documentsTotal)

	return &IngestMetrics{
		registry:       registry,
		filesTotal:     filesTotal,
		fileDuration:   fileDuration,
		filesInFlight:  filesInFlight,
		documentsTotal: documentsTotal,
	}
}

func (m *IngestMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *IngestMetrics) StartFile() {
	if m == nil {
		return
	}
	m.filesInFlight.Inc()
}

func (m *IngestMetrics) FinishFile(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.filesInFlight.Dec()

	status := StatusProcessed
	if err != nil {
		status = StatusFailed
	}
	m.filesTotal.WithLabelValues(kind, status).Inc()
	m.fileDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
}

func (m *IngestMetrics) SkipFile(kind string) {
	if m == nil {
		return
	}
	m.filesTotal.WithLabelValues(kind, StatusSkipped).Inc()
}

func (m *IngestMetrics) AddDocuments(docType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.documentsTotal.WithLabelValues(docType).Add(float64(n))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *IngestMetrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
