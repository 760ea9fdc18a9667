// Package artifact persists fitted models and their metadata sidecars on
// disk. A task's artifact is a pair of files in the models directory:
// <task>_predictor.gob with the gob-encoded model, and
// <task>_predictor_metadata.json describing how it was trained. Writes go
// through a temp file and rename so a concurrent reload never observes a
// partial artifact.
package artifact

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/innovatec/aforo/pkg/models"
)

// ErrNotFound reports that a task has no persisted artifact.
var ErrNotFound = errors.New("model artifact not found")

// Metadata is the JSON sidecar stored next to each model file.
type Metadata struct {
	ModelType string             `json:"model_type"`
	TrainedAt time.Time          `json:"trained_at"`
	Features  []string           `json:"features"`
	Samples   int                `json:"samples_trained"`
	Metrics   map[string]float64 `json:"metrics"`

	// Classes lists the class labels of a classifier, in encoder order.
	// Empty for regression models.
	Classes []string `json:"classes,omitempty"`
}

// ModelPath returns the model file path for a task.
func ModelPath(dir, task string) string {
	return filepath.Join(dir, task+"_predictor.gob")
}

// MetadataPath returns the metadata sidecar path for a task.
func MetadataPath(dir, task string) string {
	return filepath.Join(dir, task+"_predictor_metadata.json")
}

// Save writes the model and its metadata for a task. Both files are written
// atomically, model first, so the sidecar never describes a missing model.
func Save(dir, task string, m models.Model, meta Metadata) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}

	if err := writeAtomic(ModelPath(dir, task), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(&m)
	}); err != nil {
		return fmt.Errorf("save artifact %s: %w", task, err)
	}

	if err := writeAtomic(MetadataPath(dir, task), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return fmt.Errorf("save artifact %s: %w", task, err)
	}

	return nil
}

// Load reads the model and metadata for a task. A missing model file yields
// ErrNotFound; any other failure, including a missing or corrupt sidecar, is
// surfaced as-is.
func Load(dir, task string) (models.Model, Metadata, error) {
	var meta Metadata

	mf, err := os.Open(ModelPath(dir, task))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, meta, fmt.Errorf("load artifact %s: %w", task, ErrNotFound)
		}
		return nil, meta, fmt.Errorf("load artifact %s: %w", task, err)
	}
	defer mf.Close()

	var m models.Model
	if err := gob.NewDecoder(mf).Decode(&m); err != nil {
		return nil, meta, fmt.Errorf("load artifact %s: decode model: %w", task, err)
	}

	raw, err := os.ReadFile(MetadataPath(dir, task))
	if err != nil {
		return nil, meta, fmt.Errorf("load artifact %s: %w", task, err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, meta, fmt.Errorf("load artifact %s: decode metadata: %w", task, err)
	}

	return m, meta, nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
