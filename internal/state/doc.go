// Package state holds the catalog snapshot shared by the poller and the UI.
//
// # Overview
//
// The terminal browser refreshes the catalog in a background goroutine and
// renders it from the Bubble Tea event loop. Store is the single point where
// the two meet: the poller writes into it after every refresh and the UI
// copies out of it on every tick.
//
// # Architecture
//
//	Producer (poller):               Consumer (UI):
//	┌──────────────────────┐        ┌──────────────────────┐
//	│ Client.Initialize    │        │                      │
//	│ Client.CheckHealth   │        │                      │
//	│ Client.GetShows      │        │                      │
//	│ Client.GetRecent...  │        │                      │
//	│         ↓            │        │                      │
//	│ store.Update(...)    │──────→ │ store.Snapshot()     │
//	│         ↓            │ mutex  │         ↓            │
//	│ wait (with backoff)  │        │ render header, lists │
//	└──────────────────────┘        └──────────────────────┘
//
// There is exactly one writer. Readers may call Snapshot from any goroutine.
//
// # Core Types
//
// Store:
//   - Zero value is ready to use
//   - Guarded by a sync.RWMutex
//   - Update takes the write lock, Snapshot takes the read lock
//
// Snapshot:
//   - Health and HasHealth from the last successful /api/health call
//   - Shows from /api/shows and Recent from /api/episodes/recent
//   - LastUpdated, LastError and ConsecutiveFailures for the header
//
// # Update Semantics
//
// Update replaces the whole catalog on success and keeps the previous one on
// failure:
//
//	// Success: replace everything, reset the failure count
//	store.Update(&health, shows, recent, nil)
//	→ snapshot.Shows = shows
//	→ snapshot.Recent = recent
//	→ snapshot.Health = health, HasHealth = true
//	→ snapshot.LastError = nil
//	→ snapshot.ConsecutiveFailures = 0
//
//	// Success without health: the listing worked but /api/health did not
//	store.Update(nil, shows, recent, nil)
//	→ snapshot.HasHealth = false
//
//	// Failure: keep the last good catalog, record the error
//	store.Update(nil, nil, nil, err)
//	→ snapshot.Shows, Recent, Health unchanged
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
// LastUpdated is stamped on every call, so the header can show when the
// browser last heard anything from the backend, good or bad.
//
// # Offline Detection
//
// A single failed poll is usually a blip (a backend restart, a slow tuner
// scan). Snapshot.IsOffline only reports true after two consecutive failures,
// which is when the header switches from the status line to the error badge
// produced by the UI's connection classifier (TIMEOUT, OFFLINE, HTTP 503 and
// so on).
//
// # Copying
//
// Update clones the incoming slices and Snapshot clones them again on the way
// out. The UI edits its copy freely, for example flipping Watched on a recent
// episode right after a progress update, without racing the poller or
// corrupting the next snapshot. LastError is rewrapped with %w so callers can
// still use errors.As to reach the client's typed errors:
//
//	snap := store.Snapshot()
//	var statusErr *tvhomerun.HTTPStatusError
//	if errors.As(snap.LastError, &statusErr) {
//		// render "HTTP 503"
//	}
//
// # Usage
//
//	// poller goroutine
//	store := &state.Store{}
//	shows, err := client.GetShows(ctx, tvhomerun.ShowQuery{})
//	if err != nil {
//		store.Update(nil, nil, nil, err)
//	}
//
//	// UI tick
//	snap := store.Snapshot()
//	if snap.IsOffline() {
//		// show the error header
//	}
//
// # Testing
//
// No setup is required. A fresh Store returns a zero Snapshot, so tests can
// construct one inline, call Update, and assert on Snapshot directly.
package state
