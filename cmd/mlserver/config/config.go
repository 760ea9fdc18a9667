// Package config provides configuration parsing for the prediction server.
//
// It handles both command-line flags and environment variables, with flags
// taking precedence over environment variables. The Config struct contains
// all runtime configuration for the server:
//   - HTTP listen address
//   - Models directory (artifacts loaded at startup and on reload)
//   - Logging configuration (level, format)
//   - TLS configuration (cert, key, CA files)
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/innovatec/aforo/pkg/tls"
)

// Config holds all server configuration.
type Config struct {
	Listen    string
	ModelsDir string
	LogLevel  string
	LogFormat string
	TLS       tls.Config
}

// ParseFlags parses command-line flags and environment variables into a
// Config. Environment variables are used as fallbacks when flags are not
// provided. The models directory is created if it does not exist.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8000"), "HTTP listen address")
	flag.StringVar(&cfg.ModelsDir, "models-dir", getEnv("MODELS_DIR", "models"), "Directory holding model artifacts")

	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")

	flag.BoolVar(&cfg.TLS.Enabled, "tls-enabled", getEnvBool("TLS_ENABLED", false), "Enable TLS for HTTP server")
	flag.StringVar(&cfg.TLS.CertFile, "tls-cert-file", getEnv("TLS_CERT_FILE", ""), "TLS certificate file")
	flag.StringVar(&cfg.TLS.KeyFile, "tls-key-file", getEnv("TLS_KEY_FILE", ""), "TLS private key file")
	flag.StringVar(&cfg.TLS.CAFile, "tls-ca-file", getEnv("TLS_CA_FILE", ""), "TLS CA certificate file for client verification")

	flag.Parse()

	if err := os.MkdirAll(cfg.ModelsDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create models directory %q: %v\n", cfg.ModelsDir, err)
		os.Exit(1)
	}

	if err := cfg.TLS.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
