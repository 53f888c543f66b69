// Package ui provides the terminal catalog browser built on Bubble Tea.
//
// # Views
//
//   - Shows: the show list beside the selected show's episodes. Search,
//     watched filter and sort order apply to this view.
//   - Recent: the most recently aired episodes across all shows.
//   - Logs: a tail of the client's own JSON log file.
//
// The Model reads catalog snapshots from state.Store on every tick; the
// poller in package app keeps the store fresh. Episode lists, searches,
// progress updates and discovery go straight to the backend through a
// tvhomerun.CatalogFetcher and come back as messages.
//
// # Key Bindings
//
//   - s/r/l: Shows/Recent/Logs
//   - tab: switch between shows and episodes
//   - enter: load episodes for the selected show
//   - /: search shows
//   - f: cycle the watched filter
//   - o: toggle episode sort order (persisted)
//   - w: toggle watched on the selected episode
//   - D: start device discovery on the backend
//   - T: cycle theme (persisted)
//   - esc: back
//   - e or ctrl+c: exit
package ui
