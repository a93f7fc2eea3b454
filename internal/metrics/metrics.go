// Package metrics declares the observability surface named in spec §7.
// Counters are registered once at startup and injected by reference,
// matching the register-once pattern the teacher uses for its own
// prometheus.Collector wiring.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter the pipeline increments. The zero value is
// not usable; construct with New.
type Metrics struct {
	DroppedObjectsNotMatchingFwdRules prometheus.Counter
	DroppedObjectsDecodingErrors      prometheus.Counter
	LogFilesProcessed                 prometheus.Counter
	LogFilesSkipped                   prometheus.Counter
	NotEnoughExecutionTimeRemaining   prometheus.Counter
	LogProcessingFailures             prometheus.Counter
	FilesWithInvalidLogEntries        prometheus.Counter
	LogMessagesTrimmed                prometheus.Counter
	RuleLoadErrorsForwarding          prometheus.Counter
	RuleLoadErrorsProcessing          prometheus.Counter

	IngestHTTP *prometheus.CounterVec // labeled by "code": 204|200|400|429|503|other

	LogProcessingTime          prometheus.Histogram
	IngestionTime              prometheus.Histogram
	ReceivedUncompressedSize   prometheus.Histogram
	UncompressedIngestPayload  prometheus.Histogram
}

const namespace = "log_forwarder"

// New constructs and registers every metric against reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
		reg.MustRegister(c)
		return c
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets})
		reg.MustRegister(h)
		return h
	}

	m := &Metrics{
		DroppedObjectsNotMatchingFwdRules: counter("dropped_objects_not_matching_fwd_rules_total", "objects dropped: no forwarding rule matched"),
		DroppedObjectsDecodingErrors:      counter("dropped_objects_decoding_errors_total", "objects dropped: non-UTF-8 text content"),
		LogFilesProcessed:                 counter("log_files_processed_total", "objects successfully processed"),
		LogFilesSkipped:                   counter("log_files_skipped_total", "objects skipped: no processing rule matched"),
		NotEnoughExecutionTimeRemaining:   counter("not_enough_execution_time_remaining_total", "invocations that hit the deadline"),
		LogProcessingFailures:             counter("log_processing_failures_total", "notifications that failed and were reported for retry"),
		FilesWithInvalidLogEntries:        counter("files_with_invalid_log_entries_total", "objects whose structured content failed to parse"),
		LogMessagesTrimmed:                counter("log_messages_trimmed_total", "records truncated to the content cap"),
		RuleLoadErrorsForwarding:          counter("rule_load_errors_forwarding_total", "forwarding rule or file entries skipped at load time"),
		RuleLoadErrorsProcessing:          counter("rule_load_errors_processing_total", "processing rule entries skipped at load time"),

		IngestHTTP: func() *prometheus.CounterVec {
			v := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "ingest_http_responses_total", Help: "sink HTTP responses by status class"}, []string{"code"})
			reg.MustRegister(v)
			return v
		}(),

		LogProcessingTime:         histogram("log_processing_seconds", "wall time spent processing one notification", prometheus.DefBuckets),
		IngestionTime:             histogram("ingestion_seconds", "wall time spent POSTing one batch", prometheus.DefBuckets),
		ReceivedUncompressedSize:  histogram("received_uncompressed_log_file_size_bytes", "decompressed object size", prometheus.ExponentialBuckets(1024, 4, 10)),
		UncompressedIngestPayload: histogram("uncompressed_ingest_payload_size_bytes", "batch payload size before gzip", prometheus.ExponentialBuckets(1024, 4, 10)),
	}
	return m
}
