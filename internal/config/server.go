package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

// DefaultBackendURL is used when neither an argument nor BACKEND_URL is given.
const DefaultBackendURL = "http://localhost:3000"

// Server holds the web server's settings.
type Server struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	BackendURL      string        `koanf:"backend_url" validate:"required"`
	WebRoot         string        `koanf:"web_root"`
	LogLevel        string        `koanf:"log_level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	LogPretty       bool          `koanf:"log_pretty"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns host:port for net.Listen.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// serverEnv maps recognised environment variables to koanf keys.
var serverEnv = map[string]string{
	"HOST":             "host",
	"PORT":             "port",
	"BACKEND_URL":      "backend_url",
	"WEB_ROOT":         "web_root",
	"LOG_LEVEL":        "log_level",
	"LOG_PRETTY":       "log_pretty",
	"SHUTDOWN_TIMEOUT": "shutdown_timeout",
}

// LoadServer resolves the web server settings. Precedence, highest first:
// backendArg, environment variables, defaults. Empty values never override.
func LoadServer(backendArg string) (Server, error) {
	return loadServer(backendArg, os.Environ)
}

func loadServer(backendArg string, environ func() []string) (Server, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"host":             "localhost",
		"port":             8080,
		"backend_url":      DefaultBackendURL,
		"web_root":         "",
		"log_level":        "info",
		"log_pretty":       false,
		"shutdown_timeout": "10s",
	}, "."), nil); err != nil {
		return Server{}, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			mapped, ok := serverEnv[key]
			if !ok || strings.TrimSpace(value) == "" {
				return "", nil
			}
			return mapped, strings.TrimSpace(value)
		},
	}), nil); err != nil {
		return Server{}, fmt.Errorf("load environment: %w", err)
	}

	if arg := strings.TrimSpace(backendArg); arg != "" {
		if err := k.Load(confmap.Provider(map[string]any{"backend_url": arg}, "."), nil); err != nil {
			return Server{}, fmt.Errorf("load arguments: %w", err)
		}
	}

	var cfg Server
	if err := k.Unmarshal("", &cfg); err != nil {
		return Server{}, fmt.Errorf("unmarshal server config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.WebRoot != "" {
		cfg.WebRoot = mustExpand(cfg.WebRoot)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Server{}, fmt.Errorf("invalid server config: %w", err)
	}
	return cfg, nil
}
