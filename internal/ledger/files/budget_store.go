package files

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/shopspring/decimal"

	"paycheck/internal/core"
	"paycheck/internal/log"
)

// BudgetStore keeps one budget amount in a JSON object under a fixed key,
// for example {"grocery_budget_key": 400}.
type BudgetStore struct {
	path   string
	key    string
	logger *log.Logger
}

func NewBudgetStore(path, key string, logger *log.Logger) *BudgetStore {
	if logger == nil {
		logger = log.Discard()
	}
	return &BudgetStore{path: path, key: key, logger: logger.WithComponent(log.ComponentStorage).With(log.FieldFile, path)}
}

// Load returns the stored amount, or zero when the file or key is missing or
// unreadable.
func (s *BudgetStore) Load(ctx context.Context) decimal.Decimal {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return decimal.Zero
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Budget file unreadable, using zero", log.FieldError, err)
		return decimal.Zero
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.WarnContext(ctx, "Budget file corrupt, using zero", log.FieldError, err)
		return decimal.Zero
	}
	raw, ok := doc[s.key]
	if !ok {
		return decimal.Zero
	}
	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(raw); err != nil {
		s.logger.WarnContext(ctx, "Budget value unreadable, using zero", log.FieldError, err)
		return decimal.Zero
	}
	return amount
}

func (s *BudgetStore) Save(ctx context.Context, amount decimal.Decimal) error {
	data, err := json.Marshal(map[string]json.Number{s.key: json.Number(amount.String())})
	if err != nil {
		return &core.PersistenceError{Store: s.path, Op: "encode", Err: err}
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return &core.PersistenceError{Store: s.path, Op: "save", Err: err}
	}
	s.logger.DebugContext(ctx, "Budget file written", log.FieldAmount, amount.String())
	return nil
}
