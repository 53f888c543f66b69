package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/tvhomerun/internal/tvhomerun"
)

// Snapshot is the latest catalog data available to the UI.
type Snapshot struct {
	Health              tvhomerun.Health
	HasHealth           bool
	Shows               []tvhomerun.Show
	Recent              []tvhomerun.Episode
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored catalog. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(health *tvhomerun.Health, shows []tvhomerun.Show, recent []tvhomerun.Episode, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Shows = cloneSlice(shows)
	s.snapshot.Recent = cloneSlice(recent)
	if health != nil {
		s.snapshot.Health = *health
		s.snapshot.HasHealth = true
	} else {
		s.snapshot.HasHealth = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Shows = cloneSlice(s.snapshot.Shows)
	snap.Recent = cloneSlice(s.snapshot.Recent)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
