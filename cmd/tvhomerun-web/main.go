package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/five82/tvhomerun/internal/config"
	"github.com/five82/tvhomerun/internal/logging"
	"github.com/five82/tvhomerun/internal/server"
	"github.com/five82/tvhomerun/web"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:   "tvhomerun-web [backend-url]",
		Short: "Serve the TVHomeRun browser catalog",
		Long: `Serves the browser catalog and GET /api/config, which reports the backend URL.

The backend URL comes from the first argument, then BACKEND_URL, then
http://localhost:3000. HOST, PORT, WEB_ROOT, LOG_LEVEL, LOG_PRETTY and
SHUTDOWN_TIMEOUT are read from the environment or a .env file.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var backendArg string
			if len(args) > 0 {
				backendArg = args[0]
			}
			return serve(cmd.Context(), backendArg)
		},
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, backendArg string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadServer(backendArg)
	if err != nil {
		return err
	}

	log := logging.New(logging.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: os.Stderr})

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.New(cfg, log, web.Public()).Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return err
	}
	return nil
}
