package tvhomerun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a configured client with millisecond backoff.
func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBackoff(time.Millisecond, 5*time.Millisecond)}, opts...)
	c := New(opts...)
	c.SetBaseURL(baseURL)
	return c
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "http://example.com"},
		{"https://example.com/", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"  192.168.1.100:3000  ", "http://192.168.1.100:3000"},
		{"http://localhost:3000/", "http://localhost:3000"},
		{"https://tv.local/base/", "https://tv.local/base"},
		{"ftp://example.com", "http://ftp://example.com"},
		{"", "http://"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBaseURL(tt.in))
		})
	}
}

func FuzzNormalizeBaseURL_Idempotent(f *testing.F) {
	for _, seed := range []string{"", "example.com", "https://a/", "http://a//", " x / ", "http:/", "https://", "\thttp://h:1/\n"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		once := NormalizeBaseURL(s)
		if twice := NormalizeBaseURL(once); twice != once {
			t.Fatalf("NormalizeBaseURL not idempotent: %q -> %q -> %q", s, once, twice)
		}
	})
}

func TestBackoffDelay_Sequence(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for attempt, expected := range want {
		got := backoffDelay(defaultInitialDelay, defaultMaxDelay, attempt)
		assert.Equalf(t, expected, got, "backoffDelay(attempt=%d)", attempt)
	}
	assert.Equal(t, time.Second, backoffDelay(defaultInitialDelay, defaultMaxDelay, -3))
}

func TestClient_ExhaustedRetriesSurfaceStatus(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	_, err := c.GetShows(context.Background(), ShowQuery{})
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, 500, StatusCode(err))
	assert.Equal(t, int32(maxRetries+1), attempts.Load(), "total attempts")
}

func TestClient_RetryDelaysDoubleUpToCap(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	var buf safeBuffer
	c := newTestClient(t, server.URL,
		WithBackoff(10*time.Millisecond, 25*time.Millisecond),
		WithLogger(zerolog.New(&buf)),
	)
	_, err := c.GetEpisode(context.Background(), 7)
	require.Error(t, err)

	var delays []float64
	var attemptsLogged []int
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry struct {
			Message string  `json:"message"`
			Delay   float64 `json:"delay"`
			Attempt int     `json:"attempt"`
			Status  int     `json:"status"`
		}
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry.Message != "request failed, retrying" {
			continue
		}
		delays = append(delays, entry.Delay)
		attemptsLogged = append(attemptsLogged, entry.Attempt)
		assert.Equal(t, http.StatusServiceUnavailable, entry.Status)
	}
	assert.Equal(t, []float64{10, 20, 25}, delays)
	assert.Equal(t, []int{1, 2, 3}, attemptsLogged)
}

func TestClient_RecoversAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	var requestIDs sync.Map
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		requestIDs.Store(r.Header.Get(requestIDHeader), struct{}{})
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 42, "title": "Nova", "episode_count": 12}`))
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	show, err := c.GetShow(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Nova", show.Title)
	assert.Equal(t, 12, show.EpisodeCount)
	assert.Equal(t, int32(3), attempts.Load())

	ids := 0
	requestIDs.Range(func(key, _ any) bool {
		assert.NotEmpty(t, key)
		ids++
		return true
	})
	assert.Equal(t, 1, ids, "attempts of one call share a request id")
}

func TestClient_ParseErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	_, err := c.CheckHealth(context.Background())

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "decode response")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_TransportErrorsAreRetried(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	deadURL := server.URL
	server.Close()

	var buf safeBuffer
	c := newTestClient(t, deadURL, WithLogger(zerolog.New(&buf)))
	_, err := c.GetRecentEpisodes(context.Background(), 5)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("request failed, retrying")))
}

func TestClient_AttemptTimeoutIsRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.GetShows(context.Background(), ShowQuery{})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, transportErr.Timeout(), "err = %v", err)
	assert.Equal(t, int32(maxRetries+1), attempts.Load(), "total attempts")
}

func TestClient_ContextCancellationStopsRetrying(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL, WithBackoff(time.Minute, time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	t.Cleanup(cancel)

	start := time.Now()
	_, err := c.GetShows(ctx, ShowQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "err = %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_BuildsQueries(t *testing.T) {
	t.Parallel()

	type seen struct {
		path  string
		query string
	}
	var mu sync.Mutex
	var requests []seen
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, seen{path: r.URL.Path, query: r.URL.RawQuery})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/shows":
			_, _ = w.Write([]byte(`{"shows": [{"id": 1, "title": "A"}], "count": 1}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL+"/")
	ctx := context.Background()

	_, err := c.GetEpisodes(ctx, 42, EpisodeQuery{Season: 2, Sort: SortDesc})
	require.NoError(t, err)

	watched := false
	_, err = c.GetEpisodes(ctx, 42, EpisodeQuery{Watched: &watched})
	require.NoError(t, err)

	shows, err := c.GetShows(ctx, ShowQuery{Search: "news", Limit: 10})
	require.NoError(t, err)
	require.Len(t, shows, 1)

	_, err = c.GetShows(ctx, ShowQuery{Search: "   "})
	require.NoError(t, err)

	_, err = c.GetRecentEpisodes(ctx, 0)
	require.NoError(t, err)

	want := []seen{
		{"/api/shows/42/episodes", "season=2&sort=desc"},
		{"/api/shows/42/episodes", "watched=false"},
		{"/api/shows", "limit=10&search=news"},
		{"/api/shows", ""},
		{"/api/episodes/recent", "limit=20"},
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, requests)
}

func TestClient_UpdateProgressSendsFlooredBody(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	require.NoError(t, c.UpdateProgress(context.Background(), 9, 125.7, true))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/episodes/9/progress", gotPath)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"position": 125, "watched": 1}`, string(gotBody))

	require.NoError(t, c.UpdateProgress(context.Background(), 9, -3, false))
	assert.JSONEq(t, `{"position": 0, "watched": 0}`, string(gotBody))
}

func TestClient_TriggerDiscoveryPostsWithoutBody(t *testing.T) {
	t.Parallel()

	var gotMethod string
	var gotLen int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotLen = r.ContentLength
		if r.URL.Path != "/api/discover" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"devices": 1}`))
	}))
	t.Cleanup(server.Close)

	c := newTestClient(t, server.URL)
	require.NoError(t, c.TriggerDiscovery(context.Background()))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Zero(t, gotLen)
}

func TestClient_StreamURLIsConstructed(t *testing.T) {
	c := New()
	c.SetBaseURL("tv.local:3000/")
	assert.Equal(t, "http://tv.local:3000/api/stream/15/playlist.m3u8", c.StreamURL(15))
}

func TestClient_RequestsBeforeConfigurationFail(t *testing.T) {
	c := New()
	assert.False(t, c.IsConfigured())

	_, err := c.GetShows(context.Background(), ShowQuery{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, c.UpdateProgress(context.Background(), 1, 1, true), ErrNotConfigured)
	assert.ErrorIs(t, c.TriggerDiscovery(context.Background()), ErrNotConfigured)
}

func TestInitialize_FetchesConfigOnce(t *testing.T) {
	var fetches atomic.Int32
	source := ConfigSourceFunc(func(context.Context) (RemoteConfig, error) {
		fetches.Add(1)
		return RemoteConfig{BackendURL: "192.168.1.100:3000/"}, nil
	})
	c := New(WithConfigSource(source))

	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Initialize(context.Background()))

	assert.Equal(t, int32(1), fetches.Load())
	assert.True(t, c.Initialized())
	assert.Equal(t, "http://192.168.1.100:3000", c.BaseURL())
}

func TestInitialize_ConcurrentCallersShareOneFetch(t *testing.T) {
	var fetches atomic.Int32
	release := make(chan struct{})
	source := ConfigSourceFunc(func(context.Context) (RemoteConfig, error) {
		fetches.Add(1)
		<-release
		return RemoteConfig{BackendURL: "http://backend:3000"}, nil
	})
	c := New(WithConfigSource(source))

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Initialize(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), fetches.Load())
	assert.Equal(t, "http://backend:3000", c.BaseURL())
}

func TestInitialize_MissingBackendURLIsSoft(t *testing.T) {
	var fetches atomic.Int32
	source := ConfigSourceFunc(func(context.Context) (RemoteConfig, error) {
		fetches.Add(1)
		return RemoteConfig{}, nil
	})
	c := New(WithConfigSource(source))

	require.NoError(t, c.Initialize(context.Background()))
	assert.False(t, c.Initialized())
	assert.False(t, c.IsConfigured())

	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, int32(2), fetches.Load(), "uninitialized client fetches again")
}

func TestInitialize_FailureLeavesClientRetryable(t *testing.T) {
	var calls atomic.Int32
	source := ConfigSourceFunc(func(context.Context) (RemoteConfig, error) {
		if calls.Add(1) == 1 {
			return RemoteConfig{}, errors.New("connection refused")
		}
		return RemoteConfig{BackendURL: "https://tv.example.com"}, nil
	})
	c := New(WithConfigSource(source))

	err := c.Initialize(context.Background())
	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, ErrInitialization)
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, c.Initialized())
	assert.Empty(t, c.BaseURL())

	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, "https://tv.example.com", c.BaseURL())
}

func TestInitialize_WithoutSource(t *testing.T) {
	err := New().Initialize(context.Background())
	assert.ErrorIs(t, err, ErrNoConfigSource)
	assert.ErrorIs(t, err, ErrInitialization)
}

func TestHTTPConfigSource(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ConfigPath:
			_, _ = w.Write([]byte(`{"backendURL": "http://10.0.0.5:3000"}`))
		case "/broken" + ConfigPath:
			_, _ = w.Write([]byte(`{nope`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	cfg, err := NewHTTPConfigSource(server.URL + "/").FetchConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:3000", cfg.BackendURL)

	_, err = NewHTTPConfigSource(server.URL + "/broken").FetchConfig(context.Background())
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)

	_, err = NewHTTPConfigSource(server.URL + "/missing").FetchConfig(context.Background())
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	c := New(WithConfigSource(NewHTTPConfigSource(server.URL)))
	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, "http://10.0.0.5:3000", c.BaseURL())
}

func TestTransportError_Timeout(t *testing.T) {
	err := &TransportError{Method: http.MethodGet, URL: "http://x", Err: context.DeadlineExceeded}
	assert.True(t, err.Timeout())

	err = &TransportError{Method: http.MethodGet, URL: "http://x", Err: errors.New("connection reset")}
	assert.False(t, err.Timeout())
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}
