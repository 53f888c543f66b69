package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/tvhomerun/internal/state"
	"github.com/five82/tvhomerun/internal/tvhomerun"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeCatalog struct {
	tvhomerun.CatalogFetcher // unimplemented methods panic

	healthErr error
	showsErr  error
	recentErr error
	shows     []tvhomerun.Show
	recent    []tvhomerun.Episode
}

func (f *fakeCatalog) CheckHealth(context.Context) (tvhomerun.Health, error) {
	if f.healthErr != nil {
		return tvhomerun.Health{}, f.healthErr
	}
	return tvhomerun.Health{Status: "ok"}, nil
}

func (f *fakeCatalog) GetShows(context.Context, tvhomerun.ShowQuery) ([]tvhomerun.Show, error) {
	return f.shows, f.showsErr
}

func (f *fakeCatalog) GetRecentEpisodes(_ context.Context, limit int) ([]tvhomerun.Episode, error) {
	if limit != recentLimit {
		return nil, errors.New("unexpected limit")
	}
	return f.recent, f.recentErr
}

func newTestPoller(client tvhomerun.CatalogFetcher) (*poller, *state.Store) {
	store := &state.Store{}
	return &poller{store: store, client: client, interval: time.Second, log: zerolog.Nop()}, store
}

func TestRefresh_PopulatesStore(t *testing.T) {
	fake := &fakeCatalog{
		shows:  []tvhomerun.Show{{ID: 1, Title: "News"}},
		recent: []tvhomerun.Episode{{ID: 7}},
	}
	p, store := newTestPoller(fake)

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}
	snap := store.Snapshot()
	if !snap.HasHealth || len(snap.Shows) != 1 || len(snap.Recent) != 1 {
		t.Fatalf("snapshot = %#v, want health, 1 show, 1 episode", snap)
	}
}

func TestRefresh_HealthFailureIsNotFatal(t *testing.T) {
	fake := &fakeCatalog{healthErr: errors.New("404"), shows: []tvhomerun.Show{{ID: 1}}}
	p, store := newTestPoller(fake)

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}
	snap := store.Snapshot()
	if snap.HasHealth {
		t.Fatalf("HasHealth = true, want false")
	}
	if len(snap.Shows) != 1 {
		t.Fatalf("len(Shows) = %d, want 1", len(snap.Shows))
	}
}

func TestRefresh_ListingFailureKeepsData(t *testing.T) {
	fake := &fakeCatalog{shows: []tvhomerun.Show{{ID: 1}}}
	p, store := newTestPoller(fake)
	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() error = %v", err)
	}

	fake.recentErr = &tvhomerun.HTTPStatusError{StatusCode: 500}
	err := p.refresh(context.Background())
	if err == nil {
		t.Fatalf("refresh() error = nil, want failure")
	}
	if tvhomerun.StatusCode(err) != 500 {
		t.Fatalf("StatusCode(err) = %d, want 500", tvhomerun.StatusCode(err))
	}
	snap := store.Snapshot()
	if len(snap.Shows) != 1 || snap.ConsecutiveFailures != 1 {
		t.Fatalf("snapshot = %#v, want previous shows and 1 failure", snap)
	}
}

func TestRefresh_InitFailureRecorded(t *testing.T) {
	initErr := &tvhomerun.InitializationError{Err: errors.New("connection refused")}
	p, store := newTestPoller(&fakeCatalog{})
	p.init = func(context.Context) error { return initErr }

	if err := p.refresh(context.Background()); !errors.Is(err, tvhomerun.ErrInitialization) {
		t.Fatalf("refresh() error = %v, want initialization error", err)
	}
	if !errors.Is(store.Snapshot().LastError, tvhomerun.ErrInitialization) {
		t.Fatalf("LastError = %v, want initialization error", store.Snapshot().LastError)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	p, store := newTestPoller(&fakeCatalog{})
	p.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.Snapshot().LastUpdated.IsZero() {
		select {
		case <-deadline:
			t.Fatal("poller never refreshed")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
