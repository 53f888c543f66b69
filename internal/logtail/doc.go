// Package logtail reads the tail of the terminal browser's own log file.
//
// # Overview
//
// The Logs view shows what the browser itself has been doing: polls, retries,
// initialization failures and preference writes. Those lines live in the
// file opened by logging.OpenFile. This package reads the last few hundred
// of them and turns each into something the UI can color.
//
// # Core Functionality
//
//  1. Read: the last N raw lines of a file
//  2. Parse: one zerolog JSON line into an Entry
//  3. ReadEntries: Read followed by Parse, skipping blank lines
//  4. Entry.String: a compact console rendering of an Entry
//
// # Reading
//
// Read makes one sequential pass over the file with a ring buffer of size
// maxLines:
//
//	1. Allocate a ring of maxLines slots
//	2. For each line, store it at idx and advance idx modulo maxLines
//	3. If fewer than maxLines lines were seen, return ring[:count]
//	4. Otherwise return the ring starting at idx (the oldest line)
//
// Memory is O(maxLines) whatever the file size. The scanner accepts lines up
// to 1 MiB, which covers stack traces logged as a single field.
//
// Special cases:
//
//   - A missing file returns no lines and no error. The log may not exist
//     yet on first start.
//   - maxLines <= 0 returns every line.
//   - Open and scan failures are wrapped ("open log: ...", "read log: ...").
//
// Example:
//
//	entries, err := logtail.ReadEntries(cfg.LogFile, 500)
//	if err != nil {
//		return logLinesMsg{err: err}
//	}
//
// # Parsing
//
// The browser logs with zerolog's JSON encoder, so a typical line is
//
//	{"level":"warn","attempt":1,"delay":1000,"time":"2026-03-04T21:01:05Z","message":"request failed, retrying"}
//
// Parse lifts the well-known keys into Entry fields:
//
//	time     → Entry.Time (RFC 3339)
//	level    → Entry.Level
//	message  → Entry.Message
//	error    → Entry.Error
//	others   → Entry.Fields, stringified
//
// Non-string values are re-encoded as JSON, so a numeric field reads "1000"
// and a nested object keeps its braces. Raw always holds the original text.
//
// Lines that are not JSON objects (a panic trace, output from a previous
// version) come back with only Raw set, and Entry.Structured reports false.
//
// # Rendering
//
// Entry.String mirrors zerolog's ConsoleWriter layout:
//
//	21:01:05 WRN request failed, retrying attempt=1 delay=1000
//
// The time is shown in the local zone, extra fields are sorted by key so the
// output is stable between refreshes, and the error (if any) comes last.
// LevelTag gives the three-letter level abbreviation on its own so the UI can
// style it separately. Unstructured entries render as their raw text.
//
// # Integration
//
// The UI issues a ReadEntries command when the Logs view opens and again on
// every poll tick while it stays open, then feeds the entries into a
// bubbles viewport. Coloring lives in the ui package; this package has no
// lipgloss dependency.
package logtail
