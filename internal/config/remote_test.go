package config

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
)

func testLogger() logging.Logger { return logging.New(nil, "error") }

func TestRemoteConfigClientPullSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/applications/myapp/environments/prod/configurations/forwarding_rules", r.URL.Path)
		w.Header().Set("Configuration-Version", "7")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	host := mustHost(t, srv.URL)
	c := NewRemoteConfigClient(host, "myapp", "prod", testLogger())

	body, version, err := c.Pull("forwarding_rules")
	require.NoError(t, err)
	require.Equal(t, 7, version)
	require.JSONEq(t, `{"ok":true}`, string(body))
}

func TestRemoteConfigClientPullNon2xxIsConfigSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	host := mustHost(t, srv.URL)
	c := NewRemoteConfigClient(host, "myapp", "prod", testLogger())

	_, _, err := c.Pull("forwarding_rules")
	require.ErrorIs(t, err, ErrConfigSourceUnavailable)
}

func TestRemoteConfigClientPullMissingVersionHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	host := mustHost(t, srv.URL)
	c := NewRemoteConfigClient(host, "myapp", "prod", testLogger())

	_, _, err := c.Pull("forwarding_rules")
	require.ErrorIs(t, err, ErrConfigSourceUnavailable)
}

func mustHost(t *testing.T, rawurl string) string {
	t.Helper()
	u, err := url.Parse(rawurl)
	require.NoError(t, err)
	return u.Host
}
