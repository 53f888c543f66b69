package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/tvhomerun/internal/app"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		prefsPath  string
		poll       time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           "tvhomerun",
		Short:         "Browse a TVHomeRun recording catalog from the terminal",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return app.Run(ctx, app.Options{
				ConfigPath: configPath,
				PrefsPath:  prefsPath,
				PollEvery:  poll,
			})
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file path (default ~/.config/tvhomerun/config.toml)")
	rootCmd.Flags().StringVar(&prefsPath, "prefs", "", "preferences file path (default ~/.config/tvhomerun/prefs.toml)")
	rootCmd.Flags().DurationVar(&poll, "poll", 0, "catalog refresh interval (default 10s)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "tvhomerun: %v\n", err)
		return 1
	}
	return 0
}
