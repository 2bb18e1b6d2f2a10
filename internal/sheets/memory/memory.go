// Package memory records exports in process memory.
package memory

import (
	"context"
	"sync"

	ports "paycheck/internal/sheets"
)

// Exporter keeps the tables of every export. A non-nil Err makes Export
// fail without recording.
type Exporter struct {
	mu      sync.Mutex
	exports [][]ports.Table
	Err     error
}

var _ ports.DashboardExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(ctx context.Context, x ports.Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.exports = append(e.exports, ports.BuildTables(x))
	return nil
}

// Count returns how many exports succeeded.
func (e *Exporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.exports)
}

// Last returns the tables of the latest export, or nil.
func (e *Exporter) Last() []ports.Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.exports) == 0 {
		return nil
	}
	return e.exports[len(e.exports)-1]
}

// Tab returns the named tab of the latest export.
func (e *Exporter) Tab(name string) (ports.Table, bool) {
	for _, t := range e.Last() {
		if t.Name == name {
			return t, true
		}
	}
	return ports.Table{}, false
}
