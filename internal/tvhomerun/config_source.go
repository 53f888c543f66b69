package tvhomerun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ConfigPath is where the web server publishes the backend base URL.
const ConfigPath = "/api/config"

const configFetchTimeout = 10 * time.Second

// ConfigSource supplies the backend base URL during Initialize.
type ConfigSource interface {
	FetchConfig(ctx context.Context) (RemoteConfig, error)
}

// ConfigSourceFunc adapts a function to ConfigSource.
type ConfigSourceFunc func(ctx context.Context) (RemoteConfig, error)

// FetchConfig calls f.
func (f ConfigSourceFunc) FetchConfig(ctx context.Context) (RemoteConfig, error) {
	return f(ctx)
}

// StaticConfig returns a ConfigSource that always yields backendURL.
func StaticConfig(backendURL string) ConfigSource {
	return ConfigSourceFunc(func(context.Context) (RemoteConfig, error) {
		return RemoteConfig{BackendURL: backendURL}, nil
	})
}

// HTTPConfigSource reads RemoteConfig from a tvhomerun-web server.
// Configuration fetches are single attempts; retrying is left to the caller
// of Initialize.
type HTTPConfigSource struct {
	URL  string
	HTTP *http.Client
}

// NewHTTPConfigSource points at serverURL's /api/config. serverURL is
// normalized the same way backend URLs are.
func NewHTTPConfigSource(serverURL string) *HTTPConfigSource {
	return &HTTPConfigSource{
		URL:  NormalizeBaseURL(serverURL) + ConfigPath,
		HTTP: &http.Client{Timeout: configFetchTimeout},
	}
}

// FetchConfig performs GET URL and decodes the configuration payload.
func (s *HTTPConfigSource) FetchConfig(ctx context.Context) (RemoteConfig, error) {
	if s == nil {
		return RemoteConfig{}, ErrNoConfigSource
	}
	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return RemoteConfig{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return RemoteConfig{}, &TransportError{Method: http.MethodGet, URL: s.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RemoteConfig{}, &HTTPStatusError{Method: http.MethodGet, URL: s.URL, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return RemoteConfig{}, &TransportError{Method: http.MethodGet, URL: s.URL, Err: err}
	}
	var cfg RemoteConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RemoteConfig{}, &ParseError{URL: s.URL, Err: err}
	}
	return cfg, nil
}
