package artifact

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/innovatec/aforo/pkg/models"
	"github.com/innovatec/aforo/pkg/task"
)

// entry is one loaded artifact. Entries are immutable once published.
type entry struct {
	model models.Model
	meta  Metadata
}

// Registry holds the in-memory models served by the prediction API, one slot
// per task. Each slot is swapped atomically on reload, so serving goroutines
// always see a consistent model/metadata pair.
type Registry struct {
	dir    string
	logger *slog.Logger
	slots  map[string]*atomic.Pointer[entry]
}

// Status describes the outcome of loading one task's artifact.
type Status struct {
	Loaded    bool   `json:"loaded"`
	ModelType string `json:"model_type,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewRegistry creates a registry over the models directory with an empty
// slot for every known task. Call Reload to populate it.
func NewRegistry(dir string, logger *slog.Logger) *Registry {
	slots := make(map[string]*atomic.Pointer[entry], len(task.All()))
	for _, t := range task.All() {
		slots[t.Name] = &atomic.Pointer[entry]{}
	}
	return &Registry{dir: dir, logger: logger, slots: slots}
}

// Reload re-reads every task's artifact from disk and swaps it in. A task
// whose artifact is missing has its slot cleared; a task whose artifact
// fails to decode keeps serving the previously loaded model. Returns the
// per-task load status.
func (r *Registry) Reload() map[string]Status {
	statuses := make(map[string]Status, len(r.slots))

	for _, t := range task.All() {
		slot := r.slots[t.Name]

		m, meta, err := Load(r.dir, t.Name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				slot.Store(nil)
				statuses[t.Name] = Status{Loaded: false}
				r.logger.Warn("no model artifact", "task", t.Name)
				continue
			}

			status := Status{Loaded: false, Error: err.Error()}
			if prev := slot.Load(); prev != nil {
				status.Loaded = true
				status.ModelType = prev.meta.ModelType
			}
			statuses[t.Name] = status
			r.logger.Error("model reload failed, keeping previous", "task", t.Name, "error", err)
			continue
		}

		slot.Store(&entry{model: m, meta: meta})
		statuses[t.Name] = Status{Loaded: true, ModelType: meta.ModelType}
		r.logger.Info("model loaded",
			"task", t.Name,
			"model_type", meta.ModelType,
			"samples", meta.Samples,
			"trained_at", meta.TrainedAt)
	}

	return statuses
}

// Get returns the loaded model and metadata for a task, or false when the
// task has no model loaded.
func (r *Registry) Get(taskName string) (models.Model, Metadata, bool) {
	slot, ok := r.slots[taskName]
	if !ok {
		return nil, Metadata{}, false
	}
	e := slot.Load()
	if e == nil {
		return nil, Metadata{}, false
	}
	return e.model, e.meta, true
}

// Loaded returns how many tasks currently have a model loaded.
func (r *Registry) Loaded() int {
	n := 0
	for _, slot := range r.slots {
		if slot.Load() != nil {
			n++
		}
	}
	return n
}

// Info returns the metadata for every task, nil-valued for tasks without a
// loaded model.
func (r *Registry) Info() map[string]*Metadata {
	info := make(map[string]*Metadata, len(r.slots))
	for name, slot := range r.slots {
		if e := slot.Load(); e != nil {
			meta := e.meta
			info[name] = &meta
		} else {
			info[name] = nil
		}
	}
	return info
}
