// Package services coordinates uploads, dashboard computation and refresh
// notifications.
package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"paycheck/internal/amqp"
	"paycheck/internal/cache"
	"paycheck/internal/core"
	"paycheck/internal/log"
	"paycheck/internal/pipeline"
	"paycheck/internal/statement"
)

// Publisher announces that the dashboard must be recomputed elsewhere.
type Publisher interface {
	PublishRefresh(ctx context.Context, msg *amqp.RefreshMessage) error
}

// UploadResult lists the files stored by Upload and those skipped because a
// file with the same name was already present.
type UploadResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

// UploadInfo describes one stored statement.
type UploadInfo struct {
	FileName string `json:"file_name"`
	Rows     int    `json:"rows"`
}

// DashboardService computes dashboards from the registered uploads. Results
// are cached by upload-set fingerprint and concurrent computations of the
// same set share one pipeline run.
type DashboardService struct {
	uploads   statement.Registry
	pipeline  *pipeline.Pipeline
	cache     cache.Cache[*pipeline.Dashboard]
	publisher Publisher
	logger    *log.Logger
	group     singleflight.Group
}

// NewDashboardService wires the service. cache and publisher may be nil.
func NewDashboardService(uploads statement.Registry, p *pipeline.Pipeline, c cache.Cache[*pipeline.Dashboard], publisher Publisher, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	return &DashboardService{
		uploads:   uploads,
		pipeline:  p,
		cache:     c,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentApp),
	}
}

// Dashboard returns the dashboard for the current uploads. With no uploads
// it returns an EmptyTransactionSetError.
func (s *DashboardService) Dashboard(ctx context.Context) (*pipeline.Dashboard, error) {
	batches, err := s.uploads.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	if len(batches) == 0 {
		return nil, &core.EmptyTransactionSetError{View: "transactions"}
	}

	key := statement.Fingerprint(batches)
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d, nil
		}
	}

	// one caller's cancellation must not fail the others sharing the run
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(key, func() (any, error) {
		d, err := s.pipeline.Run(runCtx, batches)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(key, d)
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "Dashboard computation shared", log.FieldCacheKey, key[:12])
	}
	return v.(*pipeline.Dashboard), nil
}

// Upload validates every batch and stores the new ones. A malformed batch
// rejects the whole upload before anything is stored.
func (s *DashboardService) Upload(ctx context.Context, batches []core.StatementBatch) (UploadResult, error) {
	result := UploadResult{Added: []string{}, Skipped: []string{}}
	for _, b := range batches {
		if _, err := pipeline.Normalize([]core.StatementBatch{b}); err != nil {
			return result, err
		}
	}

	var persistErr error
	for _, b := range batches {
		err := s.uploads.Add(ctx, b)
		var pe *core.PersistenceError
		switch {
		case err == nil:
			result.Added = append(result.Added, b.FileName)
		case errors.Is(err, statement.ErrAlreadyUploaded):
			result.Skipped = append(result.Skipped, b.FileName)
		case errors.As(err, &pe):
			// stored in memory, not on disk
			result.Added = append(result.Added, b.FileName)
			persistErr = err
		default:
			return result, fmt.Errorf("store %s: %w", b.FileName, err)
		}
		s.logger.InfoContext(ctx, "Statement upload",
			log.FieldOperation, log.OpUpload,
			log.FieldFile, b.FileName,
			log.FieldRows, len(b.Rows),
			"skipped", errors.Is(err, statement.ErrAlreadyUploaded))
	}

	if len(result.Added) > 0 {
		s.changed(ctx, amqp.ReasonUpload, result.Added[0])
	}
	return result, persistErr
}

// Uploads lists the stored statements in upload order.
func (s *DashboardService) Uploads(ctx context.Context) ([]UploadInfo, error) {
	batches, err := s.uploads.List(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]UploadInfo, 0, len(batches))
	for _, b := range batches {
		infos = append(infos, UploadInfo{FileName: b.FileName, Rows: len(b.Rows)})
	}
	return infos, nil
}

// RemoveUpload deletes one stored statement by file name.
func (s *DashboardService) RemoveUpload(ctx context.Context, name string) error {
	err := s.uploads.Remove(ctx, name)
	var pe *core.PersistenceError
	if err != nil && !errors.As(err, &pe) {
		return err
	}
	s.changed(ctx, amqp.ReasonUploadRemove, name)
	return err
}

// ClearUploads deletes every stored statement.
func (s *DashboardService) ClearUploads(ctx context.Context) error {
	err := s.uploads.Clear(ctx)
	var pe *core.PersistenceError
	if err != nil && !errors.As(err, &pe) {
		return err
	}
	s.changed(ctx, amqp.ReasonUploadRemove, "")
	return err
}

// NotifyLedgerChange is a ledger.Observer. Ledgers are not part of the
// dashboard, so only the export is refreshed.
func (s *DashboardService) NotifyLedgerChange(ctx context.Context, ledger string) {
	s.publish(ctx, amqp.NewRefreshMessage(amqp.ReasonLedgerChange, ledger))
}

// Invalidate drops every cached dashboard.
func (s *DashboardService) Invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// Reload makes the next Dashboard call reread the uploads from storage, for
// processes that share storage with another writer.
func (s *DashboardService) Reload() {
	if r, ok := s.uploads.(interface{ Reload() }); ok {
		r.Reload()
	}
	s.Invalidate()
}

func (s *DashboardService) changed(ctx context.Context, reason, source string) {
	s.Invalidate()
	s.publish(ctx, amqp.NewRefreshMessage(reason, source))
}

// publish never fails the caller; the change is already stored.
func (s *DashboardService) publish(ctx context.Context, msg *amqp.RefreshMessage) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping refresh message", log.FieldReason, msg.Reason)
		return
	}
	if err := s.publisher.PublishRefresh(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish refresh message",
			log.FieldReason, msg.Reason,
			log.FieldError, err)
	}
}
