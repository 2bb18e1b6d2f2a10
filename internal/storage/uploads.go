package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"paycheck/internal/core"
	"paycheck/internal/statement"
)

// Registry is a statement.Registry backed by the statement_uploads table.
type Registry struct {
	repo *SQLiteRepository
}

var _ statement.Registry = (*Registry)(nil)

func NewRegistry(repo *SQLiteRepository) *Registry {
	return &Registry{repo: repo}
}

func (r *Registry) Add(ctx context.Context, b core.StatementBatch) error {
	rows, err := json.Marshal(b.Rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", b.FileName, err)
	}
	tx, err := r.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM statement_uploads WHERE file_name = ?`, b.FileName).Scan(&exists); err != nil {
		return fmt.Errorf("check upload: %w", err)
	}
	if exists > 0 {
		return statement.ErrAlreadyUploaded
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO statement_uploads (file_name, position, rows)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM statement_uploads), ?)`,
		b.FileName, string(rows)); err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return tx.Commit()
}

func (r *Registry) List(ctx context.Context) ([]core.StatementBatch, error) {
	rows, err := r.repo.db.QueryContext(ctx, `SELECT file_name, rows FROM statement_uploads ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var out []core.StatementBatch
	for rows.Next() {
		var b core.StatementBatch
		var raw string
		if err := rows.Scan(&b.FileName, &raw); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &b.Rows); err != nil {
			return nil, fmt.Errorf("decode %s: %w", b.FileName, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Registry) Remove(ctx context.Context, name string) error {
	res, err := r.repo.db.ExecContext(ctx, `DELETE FROM statement_uploads WHERE file_name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return statement.ErrNotUploaded
	}
	return nil
}

func (r *Registry) Clear(ctx context.Context) error {
	if _, err := r.repo.db.ExecContext(ctx, `DELETE FROM statement_uploads`); err != nil {
		return fmt.Errorf("clear uploads: %w", err)
	}
	return nil
}
