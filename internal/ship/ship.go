// Package ship implements the HTTP Shipper (spec §4.7): gzip-compress a
// batch and POST it to a sink's ingest endpoint, retrying transient
// failures and classifying the response.
package ship

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	rhttp "github.com/hashicorp/go-retryablehttp"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
	"github.com/nimbusforge/s3logforwarder/internal/metrics"
)

const (
	ingestPath        = "/api/v2/logs/ingest"
	connectTimeout    = 3 * time.Second
	readTimeout       = 12 * time.Second
	maxRetryAttempts  = 3 // 1 initial + 2 retries
	backoffFactor     = 0.5
)

// CredentialSource resolves a sink's API key reference to the bearer
// value to send on the wire (spec §6, backed by internal/creds).
type CredentialSource interface {
	Token(ctx context.Context, parameterRef string) (string, error)
}

// Endpoint is one configured sink destination (spec §6).
type Endpoint struct {
	ID                 string
	URL                string
	APIKeyParameterRef string
}

// HTTPShipper implements sink.Shipper.
type HTTPShipper struct {
	endpoints map[string]Endpoint
	creds     CredentialSource
	client    *http.Client
	metrics   *metrics.Metrics
	log       logging.Logger
	userAgent string
}

func New(endpoints []Endpoint, creds CredentialSource, m *metrics.Metrics, log logging.Logger, verifyTLS bool) *HTTPShipper {
	byID := make(map[string]Endpoint, len(endpoints))
	for _, e := range endpoints {
		byID[e.ID] = e
	}

	retryClient := rhttp.NewClient()
	retryClient.RetryMax = maxRetryAttempts - 1
	retryClient.Logger = leveledLogger{log}
	retryClient.CheckRetry = checkRetry
	retryClient.Backoff = backoff
	// Hand the final 429/503 response back once retries are exhausted so
	// classify can map it to ErrThrottled/ErrSpaceLimitReached.
	retryClient.ErrorHandler = rhttp.PassthroughErrorHandler
	retryClient.HTTPClient = &http.Client{
		Timeout: readTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSClientConfig: tlsConfig(verifyTLS),
		},
	}

	return &HTTPShipper{
		endpoints: byID,
		creds:     creds,
		client:    retryClient.StandardClient(),
		metrics:   m,
		log:       log,
		userAgent: "s3logforwarder/1.0 (" + uuid.NewString() + ")",
	}
}

// Ship sends payload (an uncompressed JSON array of records) to the
// sink named sinkID (spec §4.7). batchNum identifies this batch within
// the sink's buffer lifetime (spec §4.6), surfaced here purely for
// diagnostics.
func (s *HTTPShipper) Ship(ctx context.Context, sinkID string, payload []byte, count, batchNum int) error {
	endpoint, ok := s.endpoints[sinkID]
	if !ok {
		return fmt.Errorf("ship: unknown sink %q", sinkID)
	}

	s.metrics.UncompressedIngestPayload.Observe(float64(len(payload)))

	compressed, err := gzipCompress(payload)
	if err != nil {
		return fmt.Errorf("ship: gzip batch: %w", err)
	}

	token, err := s.creds.Token(ctx, endpoint.APIKeyParameterRef)
	if err != nil {
		return fmt.Errorf("ship: resolve credential: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL+ingestPath, bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("ship: build request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Token "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("User-Agent", s.userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	s.metrics.IngestionTime.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("ship: request to sink %s: %w", sinkID, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return s.classify(sinkID, resp.StatusCode, string(body), count, batchNum)
}

func (s *HTTPShipper) classify(sinkID string, status int, body string, count, batchNum int) error {
	switch status {
	case http.StatusNoContent:
		s.metrics.IngestHTTP.WithLabelValues("204").Inc()
		return nil
	case http.StatusOK:
		s.metrics.IngestHTTP.WithLabelValues("200").Inc()
		s.log.Warn("sink reported partial success", logging.String("sink", sinkID), logging.Int("count", count), logging.Int("batch", batchNum), logging.String("body", body))
		return nil
	case http.StatusBadRequest:
		s.metrics.IngestHTTP.WithLabelValues("400").Inc()
		s.log.Error("sink rejected batch as invalid", fmt.Errorf("%s", body), logging.String("sink", sinkID), logging.Int("count", count), logging.Int("batch", batchNum))
		return nil
	case http.StatusTooManyRequests:
		s.metrics.IngestHTTP.WithLabelValues("429").Inc()
		return ErrThrottled
	case http.StatusServiceUnavailable:
		s.metrics.IngestHTTP.WithLabelValues("503").Inc()
		return ErrSpaceLimitReached
	default:
		s.metrics.IngestHTTP.WithLabelValues("other").Inc()
		return &IngestionFailure{Status: status, Body: body}
	}
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, 6)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
