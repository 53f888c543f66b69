// Package app is the composition root of the terminal browser.
//
// # Overview
//
// Run wires together every other package and then hands the terminal to the
// UI. It owns no domain logic of its own beyond the background poller.
//
// # Startup Sequence
//
//	config.Load ─> logging.OpenFile ─> prefs.Load ─> newClient
//	                                                    │
//	                              ┌─────────────────────┴─────────┐
//	                              ↓                               ↓
//	                    poller.run (goroutine)              ui.Run (blocks)
//
//  1. config.Load reads the TOML file (a missing file means defaults).
//  2. logging.OpenFile creates the log directory and opens the log for
//     appending. Everything after this point logs JSON through zerolog.
//  3. prefs.Load reads theme and episode sort. An unreadable file is logged
//     and replaced by defaults; it never stops startup.
//  4. newClient builds the tvhomerun.Client (see below).
//  5. The poller starts in its own goroutine against a fresh state.Store.
//  6. ui.Run blocks until the user quits or ctx is cancelled.
//
// A deferred cancel stops the poller as soon as the UI returns, so no
// goroutine outlives Run.
//
// # Backend Discovery
//
// The browser can find the backend two ways:
//
//	# config.toml
//	server_url  = "http://localhost:8080"   # the web server
//	backend_url = ""                        # optional override
//
// When backend_url is set the client is pinned to it with SetBaseURL and no
// init function is returned. Otherwise the client gets an HTTPConfigSource
// pointed at server_url, and the poller calls Client.Initialize before each
// refresh. Initialize fetches /api/config once and is a no-op after that.
// Concurrent callers share the one request. A failed fetch leaves the client
// unconfigured so the next poll tries again, which lets a browser started
// before the web server recover on its own.
//
// # Polling
//
// Each refresh does, in order:
//
//   - Initialize (only when discovering through server_url)
//   - CheckHealth (a failure is logged at debug and is not fatal)
//   - GetShows with an empty query
//   - GetRecentEpisodes with a limit of 20
//
// A failed listing records the error in the store and counts as a failed
// poll. Every call goes through the client's own retry loop first, so one
// failed poll already means four failed HTTP attempts.
//
// # Backoff
//
// Between polls the poller waits the configured interval (10s unless
// overridden with --poll). After k consecutive failures it waits
//
//	min(interval * 2^k, 30s)
//
// and drops back to the plain interval after the first success:
//
//	failures  wait (10s interval)
//	0         10s
//	1         20s
//	2         30s (capped)
//
// # Shutdown
//
// Run returns when ui.Run returns. A context cancelled by SIGINT or SIGTERM
// in cmd/tvhomerun makes Bubble Tea exit with ErrProgramKilled, which ui.Run
// reports as a clean exit. The log file is closed last.
//
// # Testing
//
// poller_test.go drives refresh and calculateBackoff against a fake
// CatalogFetcher and asserts on the resulting Snapshot. app_test.go checks
// both newClient paths, including that the remote config is fetched only
// once across several Initialize calls.
package app
