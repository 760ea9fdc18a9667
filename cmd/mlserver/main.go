// Command mlserver serves the campus prediction API.
//
// At startup it loads whatever model artifacts exist in the models directory
// and serves predictions for the tasks that have one. Tasks without an
// artifact answer 503 until a training run produces one and /model/reload is
// called.
//
// Endpoints:
//   - GET  /health - Service health and per-task model availability
//   - POST /predict/{task} - attendance, mobility or saturation prediction
//   - GET  /model/info - Metadata of the loaded models
//   - POST /model/reload - Reload artifacts from disk
//   - GET  /metrics - Prometheus metrics
//
// Environment variables:
//
//	LISTEN        - HTTP listen address (default: :8000)
//	MODELS_DIR    - Model artifacts directory (default: models)
//	LOG_LEVEL     - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT    - Logging format: text, json (default: text)
//	TLS_ENABLED   - Enable TLS (default: false)
//	TLS_CERT_FILE - TLS certificate file
//	TLS_KEY_FILE  - TLS private key file
//	TLS_CA_FILE   - CA file enabling client certificate verification
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/innovatec/aforo/cmd/mlserver/config"
	"github.com/innovatec/aforo/cmd/mlserver/metrics"
	"github.com/innovatec/aforo/cmd/mlserver/router"
	"github.com/innovatec/aforo/pkg/artifact"
	"github.com/innovatec/aforo/pkg/httpx"
	"github.com/innovatec/aforo/pkg/logx"
	"github.com/innovatec/aforo/pkg/predictor"
	"github.com/innovatec/aforo/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := logx.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting prediction server",
		"version", version,
		"listen", cfg.Listen,
		"models_dir", cfg.ModelsDir,
	)

	m := metrics.New()

	registry := artifact.NewRegistry(cfg.ModelsDir, logger)
	for name, status := range registry.Reload() {
		m.SetModelLoaded(name, status.Loaded)
	}
	logger.Info("initial model load complete", "loaded", registry.Loaded())

	pred := predictor.New(registry, logger)

	mux := router.SetupRoutes(registry, pred, m, logger)
	handler := httpx.LoggingMiddleware(logger)(httpx.RecoveryMiddleware(logger)(mux))
	server := httpx.NewServer(cfg.Listen, handler, logger)

	serverErr := make(chan error, 1)
	go func() {
		if cfg.TLS.Enabled {
			tlsCfg, err := tls.NewServerConfig(cfg.TLS)
			if err != nil {
				serverErr <- err
				return
			}
			server.SetTLSConfig(tlsCfg)
			serverErr <- server.StartTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			return
		}
		serverErr <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}

	if err := server.Stop(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
