package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/tvhomerun/internal/state"
	"github.com/five82/tvhomerun/internal/tvhomerun"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
	recentLimit         = 20
)

// poller refreshes the catalog snapshot in the background.
type poller struct {
	store    *state.Store
	client   tvhomerun.CatalogFetcher
	init     func(context.Context) error // nil when the base URL is pinned
	interval time.Duration
	log      zerolog.Logger
}

// run refreshes until ctx is cancelled, backing off while the backend fails.
func (p *poller) run(ctx context.Context) {
	interval := p.interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	failures := 0
	for {
		if err := p.refresh(ctx); err != nil {
			failures++
		} else {
			failures = 0
		}

		timer := time.NewTimer(calculateBackoff(failures, interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// refresh pulls health, shows and recent episodes into the store. A failed
// health check is not fatal; a failed listing is.
func (p *poller) refresh(ctx context.Context) error {
	if p.init != nil {
		if err := p.init(ctx); err != nil {
			p.store.Update(nil, nil, nil, err)
			p.log.Warn().Err(err).Msg("client initialization failed")
			return err
		}
	}

	var health *tvhomerun.Health
	if h, err := p.client.CheckHealth(ctx); err != nil {
		p.log.Debug().Err(err).Msg("health check failed")
	} else {
		health = &h
	}

	shows, err := p.client.GetShows(ctx, tvhomerun.ShowQuery{})
	if err != nil {
		err = fmt.Errorf("fetch shows: %w", err)
		p.store.Update(nil, nil, nil, err)
		p.log.Warn().Err(err).Msg("catalog poll failed")
		return err
	}
	recent, err := p.client.GetRecentEpisodes(ctx, recentLimit)
	if err != nil {
		err = fmt.Errorf("fetch recent episodes: %w", err)
		p.store.Update(nil, nil, nil, err)
		p.log.Warn().Err(err).Msg("catalog poll failed")
		return err
	}

	p.store.Update(health, shows, recent, nil)
	p.log.Debug().Int("shows", len(shows)).Int("recent", len(recent)).Msg("catalog refreshed")
	return nil
}

// calculateBackoff returns the wait before the next poll: the base interval
// doubled per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
