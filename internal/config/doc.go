// Package config loads settings for both tvhomerun binaries.
//
// # Terminal Browser
//
// Load reads ~/.config/tvhomerun/config.toml (or an explicit path). A missing
// file is not an error; defaults are used:
//
//	server_url  = "http://localhost:8080"                  # web server hosting /api/config
//	backend_url = ""                                       # pin the backend and skip /api/config
//	log_file    = "~/.local/state/tvhomerun/tvhomerun.log"
//	log_level   = "info"
//
// Values are trimmed, empty values keep their defaults and paths beginning
// with ~ are expanded to the home directory.
//
// # Web Server
//
// LoadServer layers three sources, highest priority first:
//
//  1. the positional backend URL argument
//  2. environment variables: HOST, PORT, BACKEND_URL, WEB_ROOT, LOG_LEVEL,
//     LOG_PRETTY, SHUTDOWN_TIMEOUT
//  3. defaults: localhost, 8080, http://localhost:3000, info, 10s
//
// Empty values never override a lower layer. The merged result is validated
// and a port outside 1-65535 is rejected.
package config
