// Package metrics defines the Prometheus collectors used by the indexing and
// search pipelines. Collectors live on a private registry so that several
// pipelines (or tests) can coexist in one process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for both pipelines.
type Metrics struct {
	Registry *prometheus.Registry

	DocsIndexedTotal    prometheus.Counter
	TokensIndexedTotal  prometheus.Counter
	TermsIndexed        prometheus.Gauge
	PostingsWritten     prometheus.Counter
	IndexBytesWritten   *prometheus.CounterVec
	IndexBuildDuration  *prometheus.HistogramVec
	SearchQueriesTotal  *prometheus.CounterVec
	SearchLatency       prometheus.Histogram
	SearchResultsCount  prometheus.Histogram
	PostingsBytesRead   prometheus.Counter
	PostingsCacheHits   prometheus.Counter
	PostingsCacheMisses prometheus.Counter
}

// New creates all collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jass_docs_indexed_total",
				Help: "Total documents parsed by the index builder.",
			},
		),
		TokensIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jass_tokens_indexed_total",
				Help: "Total content tokens added to the inverted index.",
			},
		),
		TermsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "jass_terms_indexed",
				Help: "Number of distinct terms in the last serialized index.",
			},
		),
		PostingsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jass_postings_written_total",
				Help: "Total (document, frequency) pairs written to the postings file.",
			},
		),
		IndexBytesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jass_index_bytes_written_total",
				Help: "Bytes written per index file.",
			},
			[]string{"file"},
		),
		IndexBuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jass_index_phase_duration_seconds",
				Help:    "Duration of index build phases in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"phase"},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jass_search_queries_total",
				Help: "Total queries by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jass_search_latency_seconds",
				Help:    "Query evaluation latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jass_search_results_count",
				Help:    "Number of results emitted per query.",
				Buckets: []float64{0, 1, 10, 50, 100, 250, 500, 1000},
			},
		),
		PostingsBytesRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jass_postings_bytes_read_total",
				Help: "Bytes read from the postings file.",
			},
		),
		PostingsCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jass_postings_cache_hits_total",
				Help: "Postings lists served from the in-process cache.",
			},
		),
		PostingsCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jass_postings_cache_misses_total",
				Help: "Postings lists that had to be read from disk.",
			},
		),
	}

	m.Registry.MustRegister(
		m.DocsIndexedTotal,
		m.TokensIndexedTotal,
		m.TermsIndexed,
		m.PostingsWritten,
		m.IndexBytesWritten,
		m.IndexBuildDuration,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.PostingsBytesRead,
		m.PostingsCacheHits,
		m.PostingsCacheMisses,
	)

	return m
}
