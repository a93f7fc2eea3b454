package config

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/nimbusforge/s3logforwarder/internal/logging"
)

// ErrConfigSourceUnavailable mirrors rules.ErrConfigSourceUnavailable; it
// is declared again here (rather than imported) so this package has no
// dependency on internal/rules, keeping the pull contract a standalone
// collaborator interface per spec §6.
var ErrConfigSourceUnavailable = errors.New("remote configuration source unavailable")

const remoteConfigTimeout = 5 * time.Second

// RemoteConfigClient pulls a named configuration from the local AppConfig
// Lambda extension (spec §6: "GET http://<local host>:2772/applications/
// <app>/environments/<env>/configurations/<name>").
type RemoteConfigClient struct {
	host        string // "localhost:2772" by default
	application string
	environment string
	client      *retryablehttp.Client
}

// NewRemoteConfigClient builds a client for the given application/
// environment pair. host defaults to "localhost:2772" when empty.
func NewRemoteConfigClient(host, application, environment string, log logging.Logger) *RemoteConfigClient {
	if host == "" {
		host = "localhost:2772"
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil // retryablehttp's own request-level logging is turned off
	rc.HTTPClient.Timeout = remoteConfigTimeout
	return &RemoteConfigClient{host: host, application: application, environment: environment, client: rc}
}

// Pull fetches the named configuration, returning its raw body and the
// monotonically increasing Configuration-Version header (spec §4.1,
// §6). A network error or non-2xx status is ErrConfigSourceUnavailable.
func (c *RemoteConfigClient) Pull(name string) ([]byte, int, error) {
	url := fmt.Sprintf("http://%s/applications/%s/environments/%s/configurations/%s", c.host, c.application, c.environment, name)
	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrConfigSourceUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrConfigSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("%w: status %d", ErrConfigSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrConfigSourceUnavailable, err)
	}

	version, err := strconv.Atoi(resp.Header.Get("Configuration-Version"))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: missing or invalid Configuration-Version header", ErrConfigSourceUnavailable)
	}

	return body, version, nil
}
