// Command mltrain runs the offline training pipeline.
//
// For each selected task it:
//  1. Extracts the training table from the analytics collections in MongoDB
//  2. Writes a timestamped CSV snapshot of the extraction
//  3. Trains a model (falling back to synthetic data when history is thin)
//  4. Evaluates it on a held-out partition
//  5. Atomically overwrites the model artifact and its metadata sidecar
//
// The serving process picks the new artifacts up on its next /model/reload.
// Any task failure makes the run exit non-zero so schedulers notice.
//
// Environment variables:
//
//	MONGO_URI      - MongoDB connection URI (required)
//	MONGO_DB       - Database name (default: innovatec)
//	MODELS_DIR     - Artifact output directory (default: models)
//	DATA_DIR       - CSV snapshot directory (default: data)
//	BUILDINGS_FILE - Optional campus GeoJSON building catalog
//	LOOKBACK_DAYS  - Extraction window in days (default: 180)
//	TASKS          - Tasks to train (default: attendance,mobility,saturation)
//	LOG_LEVEL      - Logging level (default: info)
//	LOG_FORMAT     - Logging format: text, json (default: text)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/innovatec/aforo/cmd/mltrain/config"
	"github.com/innovatec/aforo/pkg/dataset"
	"github.com/innovatec/aforo/pkg/extract"
	"github.com/innovatec/aforo/pkg/logx"
	"github.com/innovatec/aforo/pkg/task"
	"github.com/innovatec/aforo/pkg/trainer"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := logx.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting training run",
		"version", version,
		"tasks", cfg.Tasks,
		"lookback_days", cfg.LookbackDays,
		"models_dir", cfg.ModelsDir,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("training run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("training run complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var buildings map[string]bool
	if cfg.BuildingsFile != "" {
		var err error
		buildings, err = extract.LoadBuildingIDs(cfg.BuildingsFile)
		if err != nil {
			return err
		}
		logger.Info("building catalog loaded", "buildings", len(buildings))
	}

	client, err := extract.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongo disconnect failed", "error", err)
		}
	}()

	extractor := extract.NewExtractor(client.Database(cfg.MongoDB), logger, cfg.LookbackDays, buildings)
	tr := trainer.New(cfg.ModelsDir, logger)

	failed := 0
	for _, name := range cfg.Tasks {
		t, ok := task.ByName(name)
		if !ok {
			logger.Error("unknown task", "task", name)
			failed++
			continue
		}

		if err := trainTask(ctx, cfg, logger, extractor, tr, t); err != nil {
			logger.Error("task training failed", "task", t.Name, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(cfg.Tasks))
	}
	return nil
}

func trainTask(ctx context.Context, cfg *config.Config, logger *slog.Logger, extractor *extract.Extractor, tr *trainer.Trainer, t task.Task) error {
	var table dataset.Table
	var err error

	switch t.Name {
	case task.Attendance.Name:
		table, err = extractor.Attendance(ctx)
	case task.Mobility.Name:
		table, err = extractor.Mobility(ctx)
	case task.Saturation.Name:
		table, err = extractor.Saturation(ctx)
	}
	if err != nil {
		return err
	}

	// Snapshots are diagnostics: a failed write never blocks training.
	if len(table.Rows) > 0 {
		if path, err := dataset.WriteSnapshot(cfg.DataDir, t.Name, table); err != nil {
			logger.Warn("snapshot write failed", "task", t.Name, "error", err)
		} else {
			logger.Info("snapshot written", "task", t.Name, "path", path)
		}
	}

	if t.Name == task.Mobility.Name {
		logDemandDistribution(logger, table)
	}

	res, err := tr.Train(t, table)
	if err != nil {
		return err
	}

	logger.Info("task trained",
		"task", res.Task,
		"model_type", res.ModelType,
		"samples", res.Samples,
		"synthetic", res.Synthetic,
	)
	return nil
}

// logDemandDistribution reports how the extracted mobility rows band into
// demand levels, a quick sanity signal on the extraction window.
func logDemandDistribution(logger *slog.Logger, table dataset.Table) {
	counts := map[string]int{}
	for _, row := range table.Rows {
		score := task.DemandScore(row["viewCount"], row["uniqueVisitors"], row["eventsCount"])
		counts[task.DemandLabel(score)]++
	}
	logger.Info("mobility demand distribution",
		"baja", counts["Baja"],
		"media", counts["Media"],
		"alta", counts["Alta"],
	)
}
