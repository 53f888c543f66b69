// Package tvhomerun provides a retrying HTTP client for the TVHomeRun backend API.
//
// # Overview
//
// The backend records shows from HDHomeRun tuners and exposes them as JSON
// resources. This package wraps those resources in typed methods and hides
// transient-failure handling behind them. The terminal browser talks to the
// backend only through a *Client.
//
// # Lifecycle
//
// A Client starts unconfigured:
//
//	client := tvhomerun.New(
//		tvhomerun.WithConfigSource(tvhomerun.NewHTTPConfigSource("http://localhost:8080")),
//		tvhomerun.WithLogger(log),
//	)
//	if err := client.Initialize(ctx); err != nil {
//		// *InitializationError; safe to call Initialize again later
//	}
//
// Initialize fetches {"backendURL": "..."} from the ConfigSource once. After a
// success further calls are no-ops, and concurrent callers wait on the same
// in-flight fetch. A payload without backendURL leaves the client unconfigured
// without returning an error. SetBaseURL skips the ConfigSource entirely.
//
// # Base URL Normalization
//
//   - "example.com" → http://example.com
//   - "https://example.com/" → https://example.com
//   - "  192.168.1.10:3000  " → http://192.168.1.10:3000
//
// Scheme-less values default to plain http. NormalizeBaseURL is idempotent.
//
// # Retry Policy
//
// Every request gets up to 4 attempts (3 retries). Each attempt has a 30 second
// timeout. Network errors, timeouts and any non-2xx status are retried the same
// way after min(1s * 2^n, 5s): 1s, 2s, then 4s. There is no jitter, so many
// clients hitting the same failing backend will retry in lockstep; that is
// acceptable for a single-household deployment.
//
// When retries run out the last error is returned unchanged, so an endpoint
// that keeps failing with 500 surfaces an *HTTPStatusError carrying 500. A 2xx
// response whose body is not JSON fails immediately with *ParseError; it is
// not retried.
//
// # Errors
//
//   - *InitializationError: configuration fetch failed or was malformed
//   - *HTTPStatusError: non-2xx status on the last attempt
//   - *TransportError: network failure or per-attempt timeout
//   - *ParseError: response body was not valid JSON
//   - ErrNotConfigured: a request was made before a base URL was known
//
// # Endpoints
//
//   - GET /health
//   - GET /api/shows?search=&category=&limit=
//   - GET /api/shows/{id}
//   - GET /api/shows/{id}/episodes?watched=&season=&sort=
//   - GET /api/episodes/recent?limit=
//   - GET /api/episodes/{id}
//   - PUT /api/episodes/{id}/progress {"position": 125, "watched": 1}
//   - POST /api/discover
//
// Query parameters are only sent when the corresponding filter is set. The
// HLS playlist URL is built by StreamURL and never fetched here.
package tvhomerun
