package backend

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"

	"paycheck/internal/config"
	"paycheck/internal/core"
	"paycheck/internal/ledger"
	"paycheck/internal/ledger/files"
	"paycheck/internal/ledger/memory"
	"paycheck/internal/log"
	"paycheck/internal/statement"
	"paycheck/internal/storage"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:          backendType,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
	}, nil
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	switch config.Type {
	case FilesBackend:
		return f.createFilesBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx)
	default:
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFilesBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dir := config.DataDirectory
	if dir == "" {
		dir = "data"
	}
	f.logger.InfoContext(ctx, "Initialized files backend", "data_directory", dir)
	return &BackendResult{
		Persistence: Persistence{
			Ledgers: files.OpenLedgers(dir, f.logger),
			Uploads: files.NewRegistry(filepath.Join(dir, files.UploadRegistry), f.logger),
			Ready:   func(context.Context) error { return nil },
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if config.SQLiteDBPath == "" {
		return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Persistence: Persistence{
			Ledgers: storage.OpenLedgers(repo, f.logger),
			Uploads: storage.NewRegistry(repo),
			Ready:   repo.Ping,
		},
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context) (*BackendResult, error) {
	f.logger.InfoContext(ctx, "Initialized memory backend")
	return &BackendResult{
		Persistence: Persistence{
			Ledgers: NewMemoryLedgers(f.logger),
			Uploads: statement.NewMemoryRegistry(),
			Ready:   func(context.Context) error { return nil },
		},
	}, nil
}

// NewMemoryLedgers builds the three ledgers on in-memory stores.
func NewMemoryLedgers(logger *log.Logger) *ledger.Set {
	return &ledger.Set{
		Paycheck1: ledger.New[core.PaycheckExpense](ledger.Paycheck1,
			memory.New[core.PaycheckExpense](), memory.NewBudget(decimal.Zero), logger),
		Paycheck2: ledger.New[core.PaycheckExpense](ledger.Paycheck2,
			memory.New[core.PaycheckExpense](), memory.NewBudget(decimal.Zero), logger),
		Groceries: ledger.New[core.GroceryExpense](ledger.Groceries,
			memory.New[core.GroceryExpense](), memory.NewBudget(decimal.Zero), logger),
	}
}
