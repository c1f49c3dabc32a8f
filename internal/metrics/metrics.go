// Package metrics provides Prometheus metrics for the docqa service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docqa"

// Metrics holds the service's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Ingestion
	DocumentsIngested prometheus.Counter
	ChunksProcessed   *prometheus.CounterVec
	IngestionDuration prometheus.Histogram

	// Retrieval
	RetrievalDuration    prometheus.Histogram
	RetrievalResultCount prometheus.Histogram
	RetrievalErrors      prometheus.Counter

	// Answering
	AskDuration *prometheus.HistogramVec

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DocumentsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Total number of documents ingested",
		}),
		ChunksProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_processed_total",
			Help:      "Total number of chunks processed during ingestion by status",
		}, []string{"status"}),
		IngestionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_duration_seconds",
			Help:      "Duration of document ingestion in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		}),
		RetrievalDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Duration of retrieval (embed + search) in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		RetrievalResultCount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_results_count",
			Help:      "Number of chunks returned per retrieval",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
		RetrievalErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_errors_total",
			Help:      "Total number of failed retrievals",
		}),
		AskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ask_duration_seconds",
			Help:      "Duration of question answering in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"status"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// RecordIngestion records one ingested document and its chunk outcomes.
func (m *Metrics) RecordIngestion(embedded, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.DocumentsIngested.Inc()
	m.ChunksProcessed.WithLabelValues("embedded").Add(float64(embedded))
	m.ChunksProcessed.WithLabelValues("failed").Add(float64(failed))
	m.IngestionDuration.Observe(duration.Seconds())
}

// RecordRetrieval records a retrieval's duration and result count.
func (m *Metrics) RecordRetrieval(results int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.RetrievalErrors.Inc()
		return
	}
	m.RetrievalDuration.Observe(duration.Seconds())
	m.RetrievalResultCount.Observe(float64(results))
}

// RecordAsk records the end-to-end duration of an answered question.
func (m *Metrics) RecordAsk(duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.AskDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordRequest records a served HTTP request.
func (m *Metrics) RecordRequest(method, route string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
