package backend

import (
	"context"

	"paycheck/internal/ledger"
	"paycheck/internal/statement"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Persistence bundles the stores a backend provides.
type Persistence struct {
	Ledgers *ledger.Set
	Uploads statement.Registry
	// Ready reports whether the underlying storage is reachable.
	Ready func(ctx context.Context) error
}

// BackendResult contains the persistence layer and optional cleanup function
type BackendResult struct {
	Persistence Persistence
	Cleanup     CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// files
	DataDirectory string

	// sqlite
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	FilesBackend  BackendType = "files"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FilesBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
