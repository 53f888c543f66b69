package tvhomerun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CatalogFetcher is the read/write surface the UI and poller depend on.
// It is implemented by *Client and can be faked in tests.
type CatalogFetcher interface {
	CheckHealth(ctx context.Context) (Health, error)
	GetShows(ctx context.Context, query ShowQuery) ([]Show, error)
	GetShow(ctx context.Context, showID int64) (Show, error)
	GetEpisodes(ctx context.Context, showID int64, query EpisodeQuery) ([]Episode, error)
	GetRecentEpisodes(ctx context.Context, limit int) ([]Episode, error)
	GetEpisode(ctx context.Context, episodeID int64) (Episode, error)
	UpdateProgress(ctx context.Context, episodeID int64, position float64, watched bool) error
	TriggerDiscovery(ctx context.Context) error
	StreamURL(episodeID int64) string
}

// Ensure Client implements CatalogFetcher at compile time.
var _ CatalogFetcher = (*Client)(nil)

const (
	defaultUserAgent   = "tvhomerun/0.1"
	defaultRecentLimit = 20
	requestIDHeader    = "X-Request-ID"
)

// Client talks to the TVHomeRun backend API. Build one with New and pass it
// to whatever needs it; the zero value is not usable.
type Client struct {
	mu          sync.RWMutex
	baseURL     string
	initialized bool

	initGroup singleflight.Group
	source    ConfigSource

	http         *retryablehttp.Client
	httpClient   *http.Client
	log          zerolog.Logger
	userAgent    string
	initialDelay time.Duration
	maxDelay     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithConfigSource sets where Initialize reads the backend base URL from.
func WithConfigSource(source ConfigSource) Option {
	return func(c *Client) { c.source = source }
}

// WithLogger routes retry diagnostics to log.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithHTTPClient replaces the per-attempt HTTP client. The caller owns its
// timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBackoff overrides the initial and maximum retry delays.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		if initial > 0 {
			c.initialDelay = initial
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if strings.TrimSpace(agent) != "" {
			c.userAgent = agent
		}
	}
}

// New builds an unconfigured Client.
func New(opts ...Option) *Client {
	c := &Client{
		log:          zerolog.Nop(),
		userAgent:    defaultUserAgent,
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
		httpClient:   &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = newRetryClient(c.httpClient, c.log, c.initialDelay, c.maxDelay)
	return c
}

// Initialize loads the backend base URL from the ConfigSource once. Calls
// after a success return immediately, and concurrent callers share a single
// in-flight fetch. A configuration without a backend URL leaves the client
// unconfigured and is not an error.
func (c *Client) Initialize(ctx context.Context) error {
	if c == nil {
		return &InitializationError{Err: fmt.Errorf("client is nil")}
	}
	if c.Initialized() {
		return nil
	}
	_, err, _ := c.initGroup.Do("config", func() (any, error) {
		if c.Initialized() {
			return nil, nil
		}
		if c.source == nil {
			return nil, &InitializationError{Err: ErrNoConfigSource}
		}
		cfg, err := c.source.FetchConfig(ctx)
		if err != nil {
			c.log.Error().Err(err).Msg("failed to load backend url from server config")
			return nil, &InitializationError{Err: err}
		}
		if strings.TrimSpace(cfg.BackendURL) == "" {
			c.log.Warn().Msg("server config has no backend url")
			return nil, nil
		}
		base := NormalizeBaseURL(cfg.BackendURL)
		c.mu.Lock()
		c.baseURL = base
		c.initialized = true
		c.mu.Unlock()
		c.log.Info().Str("backend_url", base).Msg("api client initialized")
		return nil, nil
	})
	return err
}

// Initialized reports whether Initialize has completed successfully.
func (c *Client) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// SetBaseURL normalizes raw and stores it as the backend base URL.
func (c *Client) SetBaseURL(raw string) {
	base := NormalizeBaseURL(raw)
	c.mu.Lock()
	c.baseURL = base
	c.mu.Unlock()
}

// BaseURL returns the normalized backend base URL, or "".
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// IsConfigured reports whether a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.BaseURL() != ""
}

// NormalizeBaseURL trims whitespace, defaults the scheme to http:// when
// neither http:// nor https:// is present, and drops trailing slashes.
func NormalizeBaseURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	var scheme string
	switch {
	case strings.HasPrefix(trimmed, "https://"):
		scheme = "https://"
	case strings.HasPrefix(trimmed, "http://"):
		scheme = "http://"
	default:
		scheme = "http://"
		trimmed = scheme + trimmed
	}
	rest := strings.TrimRightFunc(trimmed[len(scheme):], func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
	return scheme + rest
}

// ShowQuery filters /api/shows. Zero values are omitted from the request.
type ShowQuery struct {
	Search   string
	Category string
	Limit    int
}

// EpisodeQuery filters /api/shows/{id}/episodes. Zero values are omitted.
type EpisodeQuery struct {
	Watched *bool
	Season  int
	Sort    string
}

// CheckHealth calls the backend health endpoint.
func (c *Client) CheckHealth(ctx context.Context) (Health, error) {
	var health Health
	if err := c.get(ctx, "/health", nil, &health); err != nil {
		return Health{}, err
	}
	return health, nil
}

// GetShows lists shows.
func (c *Client) GetShows(ctx context.Context, query ShowQuery) ([]Show, error) {
	values := url.Values{}
	if search := strings.TrimSpace(query.Search); search != "" {
		values.Set("search", search)
	}
	if category := strings.TrimSpace(query.Category); category != "" {
		values.Set("category", category)
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	var payload ShowList
	if err := c.get(ctx, "/api/shows", values, &payload); err != nil {
		return nil, err
	}
	return payload.Shows, nil
}

// GetShow fetches a single show.
func (c *Client) GetShow(ctx context.Context, showID int64) (Show, error) {
	var show Show
	if err := c.get(ctx, "/api/shows/"+formatID(showID), nil, &show); err != nil {
		return Show{}, err
	}
	return show, nil
}

// GetEpisodes lists the episodes of a show.
func (c *Client) GetEpisodes(ctx context.Context, showID int64, query EpisodeQuery) ([]Episode, error) {
	values := url.Values{}
	if query.Watched != nil {
		values.Set("watched", strconv.FormatBool(*query.Watched))
	}
	if query.Season > 0 {
		values.Set("season", strconv.Itoa(query.Season))
	}
	if sort := strings.TrimSpace(query.Sort); sort != "" {
		values.Set("sort", sort)
	}
	var payload EpisodeList
	if err := c.get(ctx, "/api/shows/"+formatID(showID)+"/episodes", values, &payload); err != nil {
		return nil, err
	}
	return payload.Episodes, nil
}

// GetRecentEpisodes lists recently recorded episodes. A non-positive limit
// uses the backend default of 20.
func (c *Client) GetRecentEpisodes(ctx context.Context, limit int) ([]Episode, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	var payload EpisodeList
	if err := c.get(ctx, "/api/episodes/recent", values, &payload); err != nil {
		return nil, err
	}
	return payload.Episodes, nil
}

// GetEpisode fetches a single episode.
func (c *Client) GetEpisode(ctx context.Context, episodeID int64) (Episode, error) {
	var episode Episode
	if err := c.get(ctx, "/api/episodes/"+formatID(episodeID), nil, &episode); err != nil {
		return Episode{}, err
	}
	return episode, nil
}

// UpdateProgress stores the playback position (floored to whole seconds) and
// the watched flag for an episode.
func (c *Client) UpdateProgress(ctx context.Context, episodeID int64, position float64, watched bool) error {
	body := progressBody{Position: floorSeconds(position)}
	if watched {
		body.Watched = 1
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	base, err := c.base()
	if err != nil {
		return err
	}
	var ack json.RawMessage
	return c.fetch(ctx, http.MethodPut, base+"/api/episodes/"+formatID(episodeID)+"/progress", payload, &ack)
}

// StreamURL builds the HLS playlist URL for an episode. Nothing is fetched.
func (c *Client) StreamURL(episodeID int64) string {
	return c.BaseURL() + "/api/stream/" + formatID(episodeID) + "/playlist.m3u8"
}

// TriggerDiscovery asks the backend to rescan for HDHomeRun devices.
func (c *Client) TriggerDiscovery(ctx context.Context) error {
	base, err := c.base()
	if err != nil {
		return err
	}
	var ack json.RawMessage
	return c.fetch(ctx, http.MethodPost, base+"/api/discover", nil, &ack)
}

func (c *Client) base() (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	base := c.BaseURL()
	if base == "" {
		return "", ErrNotConfigured
	}
	return base, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values, dest any) error {
	base, err := c.base()
	if err != nil {
		return err
	}
	target := base + path
	if len(values) > 0 {
		target += "?" + values.Encode()
	}
	return c.fetch(ctx, http.MethodGet, target, nil, dest)
}

// fetch issues one logical request, retrying transport failures and non-2xx
// statuses, and decodes the JSON body into dest.
func (c *Client) fetch(ctx context.Context, method, target string, body []byte, dest any) error {
	var raw any
	if body != nil {
		raw = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, raw)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return &TransportError{Method: method, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().
			Str("method", method).
			Str("url", target).
			Int("status", resp.StatusCode).
			Msg("request failed after retries")
		return &HTTPStatusError{Method: method, URL: target, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &ParseError{URL: target, Err: err}
	}
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func floorSeconds(position float64) int64 {
	if math.IsNaN(position) || math.IsInf(position, 0) || position <= 0 {
		return 0
	}
	return int64(math.Floor(position))
}
