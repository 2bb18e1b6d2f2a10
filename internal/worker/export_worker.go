// Package worker recomputes the dashboard and pushes it to the exporter.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"paycheck/internal/amqp"
	"paycheck/internal/core"
	"paycheck/internal/ledger"
	"paycheck/internal/log"
	"paycheck/internal/pipeline"
	"paycheck/internal/sheets"
)

// DashboardSource computes the current dashboard.
type DashboardSource interface {
	Dashboard(ctx context.Context) (*pipeline.Dashboard, error)
}

// ExportWorker exports the dashboard and the ledgers on demand, on refresh
// messages and periodically. Exports never overlap.
type ExportWorker struct {
	source   DashboardSource
	ledgers  *ledger.Set
	exporter sheets.DashboardExporter
	logger   *log.Logger
	now      func() time.Time

	mu         sync.Mutex
	lastExport time.Time
}

func NewExportWorker(source DashboardSource, ledgers *ledger.Set, exporter sheets.DashboardExporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		source:   source,
		ledgers:  ledgers,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
	}
}

// HandleRefresh rereads shared storage and exports. It is the AMQP consumer
// callback; a returned error requeues the message.
func (w *ExportWorker) HandleRefresh(ctx context.Context, msg *amqp.RefreshMessage) error {
	w.logger.InfoContext(ctx, "Processing refresh message",
		log.FieldReason, msg.Reason,
		"source", msg.Source,
		"sent_at", msg.Timestamp)

	w.reload()
	if err := w.Export(ctx); err != nil {
		return fmt.Errorf("export after %s: %w", msg.Reason, err)
	}
	return nil
}

// StartupExport brings the spreadsheet up to date when the worker starts, in
// case refresh messages were missed while it was down.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Running startup export")
	return w.Export(ctx)
}

// RunPeriodic exports every interval until ctx ends. Failures are logged and
// retried on the next tick.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.reload()
			if err := w.Export(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed", log.FieldError, err)
			}
		}
	}
}

// Export computes the dashboard and the ledger snapshots concurrently and
// writes them. An empty upload set exports the ledgers alone.
func (w *ExportWorker) Export(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := w.now()
	export := sheets.Export{GeneratedAt: start.UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := w.source.Dashboard(gctx)
		if core.IsEmptySet(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("compute dashboard: %w", err)
		}
		export.Dashboard = d
		return nil
	})
	g.Go(func() error {
		if w.ledgers != nil {
			export.Ledgers = w.ledgers.Snapshots(gctx)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := w.exporter.Export(ctx, export); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	w.lastExport = w.now()

	w.logger.InfoContext(ctx, "Export completed",
		log.FieldOperation, log.OpExport,
		"has_dashboard", export.Dashboard != nil,
		"ledgers", len(export.Ledgers),
		log.FieldDuration, w.lastExport.Sub(start).Milliseconds())
	return nil
}

// LastExport returns the time of the last successful export.
func (w *ExportWorker) LastExport() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastExport
}

func (w *ExportWorker) reload() {
	if w.ledgers != nil {
		w.ledgers.Reload()
	}
	if r, ok := w.source.(interface{ Reload() }); ok {
		r.Reload()
	}
}
