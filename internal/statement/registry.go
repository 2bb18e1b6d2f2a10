package statement

import (
	"context"
	"errors"
	"sync"

	"paycheck/internal/core"
)

// ErrAlreadyUploaded is returned when a file with the same name is present.
var ErrAlreadyUploaded = errors.New("file already uploaded")

// ErrNotUploaded is returned when removing an unknown file.
var ErrNotUploaded = errors.New("file not uploaded")

// Registry holds the uploaded statements. File names are unique.
type Registry interface {
	Add(ctx context.Context, b core.StatementBatch) error
	List(ctx context.Context) ([]core.StatementBatch, error)
	Remove(ctx context.Context, name string) error
	Clear(ctx context.Context) error
}

// MemoryRegistry is a Registry kept in process memory.
type MemoryRegistry struct {
	mu      sync.Mutex
	batches []core.StatementBatch
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{}
}

func (r *MemoryRegistry) Add(_ context.Context, b core.StatementBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.batches {
		if existing.FileName == b.FileName {
			return ErrAlreadyUploaded
		}
	}
	r.batches = append(r.batches, b)
	return nil
}

// List returns the batches in upload order.
func (r *MemoryRegistry) List(_ context.Context) ([]core.StatementBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.StatementBatch(nil), r.batches...), nil
}

func (r *MemoryRegistry) Remove(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range r.batches {
		if b.FileName == name {
			r.batches = append(r.batches[:i], r.batches[i+1:]...)
			return nil
		}
	}
	return ErrNotUploaded
}

func (r *MemoryRegistry) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
	return nil
}
