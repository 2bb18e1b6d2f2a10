package files

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"paycheck/internal/core"
	"paycheck/internal/log"
	"paycheck/internal/statement"
)

// Registry is a statement.Registry persisted as a JSON array of uploads.
type Registry struct {
	path   string
	logger *log.Logger

	mu      sync.Mutex
	loaded  bool
	batches []core.StatementBatch
}

var _ statement.Registry = (*Registry)(nil)

func NewRegistry(path string, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Discard()
	}
	return &Registry{path: path, logger: logger.WithComponent(log.ComponentStorage).With(log.FieldFile, path)}
}

func (r *Registry) load(ctx context.Context) {
	if r.loaded {
		return
	}
	r.loaded = true
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err == nil {
		err = json.Unmarshal(data, &r.batches)
	}
	if err != nil {
		r.batches = nil
		r.logger.WarnContext(ctx, "Upload registry unreadable, starting empty", log.FieldError, err)
	}
}

// Reload forgets the cached list so the next call rereads the file. Other
// processes sharing the data directory call it before reading.
func (r *Registry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.batches = nil
}

func (r *Registry) persist() error {
	data, err := json.Marshal(r.batches)
	if err != nil {
		return &core.PersistenceError{Store: r.path, Op: "encode", Err: err}
	}
	if err := writeFileAtomic(r.path, data); err != nil {
		return &core.PersistenceError{Store: r.path, Op: "save", Err: err}
	}
	return nil
}

func (r *Registry) Add(ctx context.Context, b core.StatementBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ctx)
	for _, existing := range r.batches {
		if existing.FileName == b.FileName {
			return statement.ErrAlreadyUploaded
		}
	}
	r.batches = append(r.batches, b)
	return r.persist()
}

func (r *Registry) List(ctx context.Context) ([]core.StatementBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ctx)
	return append([]core.StatementBatch(nil), r.batches...), nil
}

func (r *Registry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ctx)
	for i, b := range r.batches {
		if b.FileName == name {
			r.batches = append(r.batches[:i:i], r.batches[i+1:]...)
			return r.persist()
		}
	}
	return statement.ErrNotUploaded
}

func (r *Registry) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(ctx)
	r.batches = nil
	return r.persist()
}
