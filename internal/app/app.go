package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/tvhomerun/internal/config"
	"github.com/five82/tvhomerun/internal/logging"
	"github.com/five82/tvhomerun/internal/prefs"
	"github.com/five82/tvhomerun/internal/state"
	"github.com/five82/tvhomerun/internal/tvhomerun"
	"github.com/five82/tvhomerun/internal/ui"
)

// Options configure the terminal browser.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses ~/.config/tvhomerun/prefs.toml
	PollEvery  time.Duration // zero uses the default
}

// Run boots the browser and blocks until the UI exits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := logging.New(logging.Options{Level: cfg.LogLevel, Output: logFile})

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Warn().Err(err).Msg("preferences unreadable, using defaults")
	}

	client, initFn := newClient(cfg, log)

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	p := &poller{store: store, client: client, init: initFn, interval: interval, log: log}
	go p.run(ctx)

	log.Info().
		Str("server_url", cfg.ServerURL).
		Str("backend_url", cfg.BackendURL).
		Dur("poll_interval", interval).
		Msg("tvhomerun browser started")

	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    client,
		Store:     store,
		LogPath:   cfg.LogFile,
		ServerURL: cfg.ServerURL,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Logger:    log,
	})
}

// newClient builds the API client. A backend_url in the config file pins the
// base URL; otherwise the returned init function asks the web server for it.
func newClient(cfg config.Config, log zerolog.Logger) (*tvhomerun.Client, func(context.Context) error) {
	if cfg.HasBackendOverride() {
		client := tvhomerun.New(tvhomerun.WithLogger(log))
		client.SetBaseURL(cfg.BackendURL)
		return client, nil
	}
	client := tvhomerun.New(
		tvhomerun.WithLogger(log),
		tvhomerun.WithConfigSource(tvhomerun.NewHTTPConfigSource(cfg.ServerURL)),
	)
	return client, client.Initialize
}
