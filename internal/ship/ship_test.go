package ship

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
	"github.com/nimbusforge/s3logforwarder/internal/metrics"
)

type staticCreds struct{ token string }

func (s staticCreds) Token(ctx context.Context, ref string) (string, error) { return s.token, nil }

func testLog() logging.Logger { return logging.New(nil, "error") }
func testMetrics() *metrics.Metrics { return metrics.New(prometheus.NewRegistry()) }

func TestShipSuccessOnNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "gzip", r.Header.Get("Content-Encoding"))
		require.Equal(t, "Api-Token secret", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := New([]Endpoint{{ID: "dt-1", URL: srv.URL, APIKeyParameterRef: "ref"}}, staticCreds{"secret"}, testMetrics(), testLog(), true)
	err := s.Ship(context.Background(), "dt-1", []byte(`[{"content":"hi"}]`), 1, 1)
	require.NoError(t, err)
}

func TestShipRetriesThenThrottled(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := New([]Endpoint{{ID: "dt-1", URL: srv.URL, APIKeyParameterRef: "ref"}}, staticCreds{"secret"}, testMetrics(), testLog(), true)
	err := s.Ship(context.Background(), "dt-1", []byte(`[]`), 0, 1)
	require.ErrorIs(t, err, ErrThrottled)
	require.Equal(t, int32(maxRetryAttempts), atomic.LoadInt32(&attempts))
}

func TestShipBadRequestDoesNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"malformed"}`))
	}))
	defer srv.Close()

	s := New([]Endpoint{{ID: "dt-1", URL: srv.URL, APIKeyParameterRef: "ref"}}, staticCreds{"secret"}, testMetrics(), testLog(), true)
	err := s.Ship(context.Background(), "dt-1", []byte(`[{}]`), 1, 1)
	require.NoError(t, err)
}

func TestShipUnknownSink(t *testing.T) {
	s := New(nil, staticCreds{"secret"}, testMetrics(), testLog(), true)
	err := s.Ship(context.Background(), "missing", []byte(`[]`), 0, 1)
	require.Error(t, err)
}
