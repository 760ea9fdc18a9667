// Package config provides configuration parsing for the batch trainer.
//
// It handles both command-line flags and environment variables, with flags
// taking precedence over environment variables. MONGO_URI is required: the
// trainer cannot do anything without the analytics database.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Config holds all trainer configuration.
type Config struct {
	MongoURI  string
	MongoDB   string
	ModelsDir string
	DataDir   string

	// BuildingsFile optionally points to the campus GeoJSON catalog used
	// to restrict extraction to known buildings.
	BuildingsFile string

	LookbackDays int
	Tasks        []string

	LogLevel  string
	LogFormat string
}

// ParseFlags parses command-line flags and environment variables into a
// Config. A missing MONGO_URI is a configuration error: it is reported and
// the process exits non-zero.
func ParseFlags() *Config {
	cfg := &Config{}
	var tasks string

	flag.StringVar(&cfg.MongoURI, "mongo-uri", getEnv("MONGO_URI", ""), "MongoDB connection URI (required)")
	flag.StringVar(&cfg.MongoDB, "mongo-db", getEnv("MONGO_DB", "innovatec"), "MongoDB database name")
	flag.StringVar(&cfg.ModelsDir, "models-dir", getEnv("MODELS_DIR", "models"), "Directory model artifacts are written to")
	flag.StringVar(&cfg.DataDir, "data-dir", getEnv("DATA_DIR", "data"), "Directory CSV extraction snapshots are written to")
	flag.StringVar(&cfg.BuildingsFile, "buildings-file", getEnv("BUILDINGS_FILE", ""), "Campus GeoJSON file restricting extraction to known buildings")
	flag.IntVar(&cfg.LookbackDays, "lookback-days", getEnvInt("LOOKBACK_DAYS", 180), "Extraction lookback window in days")
	flag.StringVar(&tasks, "tasks", getEnv("TASKS", "attendance,mobility,saturation"), "Comma-separated tasks to train")

	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")

	flag.Parse()

	if cfg.MongoURI == "" {
		fmt.Fprintln(os.Stderr, "Error: --mongo-uri is required (ConfigurationError)")
		os.Exit(1)
	}

	for _, name := range strings.Split(tasks, ",") {
		if name = strings.TrimSpace(name); name != "" {
			cfg.Tasks = append(cfg.Tasks, name)
		}
	}

	for _, dir := range []string{cfg.ModelsDir, cfg.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot create directory %q: %v\n", dir, err)
			os.Exit(1)
		}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
