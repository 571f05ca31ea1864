package ingestion

import (
	"context"
	"database/sql"
	"encoding/json"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, ing *Ingestion) error {
	query := `INSERT INTO ingestions (file_name, path, status) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, ing.FileName, ing.Path, ing.Status).
		Scan(&ing.ID, &ing.CreatedAt, &ing.UpdatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Ingestion, error) {
	ing := &Ingestion{}
	var tocRaw []byte
	var tocStrategy, errMsg sql.NullString
	query := `SELECT id, file_name, path, status, pages, text_chunks, table_chunks, toc_strategy, toc, error, created_at, updated_at
		FROM ingestions WHERE id = $1 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ing.ID, &ing.FileName, &ing.Path, &ing.Status,
		&ing.Pages, &ing.TextChunks, &ing.TableChunks,
		&tocStrategy, &tocRaw, &errMsg,
		&ing.CreatedAt, &ing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ing.TOCStrategy = tocStrategy.String
	ing.Error = errMsg.String
	if len(tocRaw) > 0 {
		if err := json.Unmarshal(tocRaw, &ing.TOC); err != nil {
			return nil, err
		}
	}
	return ing, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Ingestion, error) {
	query := `SELECT id, file_name, status, pages, text_chunks, table_chunks, created_at, updated_at
		FROM ingestions WHERE deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ingestion
	for rows.Next() {
		var ing Ingestion
		if err := rows.Scan(&ing.ID, &ing.FileName, &ing.Status,
			&ing.Pages, &ing.TextChunks, &ing.TableChunks,
			&ing.CreatedAt, &ing.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE ingestions SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *PostgresRepo) MarkFailed(ctx context.Context, id, reason string) error {
	query := `UPDATE ingestions SET status = $1, error = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, StatusFailed, reason, id)
	return err
}

func (r *PostgresRepo) SaveResult(ctx context.Context, id string, pages, textChunks, tableChunks int, strategy string, toc []TOCEntry) error {
	tocJSON, err := json.Marshal(toc)
	if err != nil {
		return err
	}
	query := `UPDATE ingestions
		SET status = $1, pages = $2, text_chunks = $3, table_chunks = $4, toc_strategy = $5, toc = $6, error = '', updated_at = NOW()
		WHERE id = $7`
	_, err = r.db.ExecContext(ctx, query, StatusCompleted, pages, textChunks, tableChunks, strategy, tocJSON, id)
	return err
}

func (r *PostgresRepo) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE ingestions SET deleted_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// Count and chunk totals feed the stats endpoint.

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM ingestions WHERE deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func (r *PostgresRepo) ChunkTotals(ctx context.Context) (int, int, error) {
	var textChunks, tableChunks int
	query := `SELECT COALESCE(SUM(text_chunks), 0), COALESCE(SUM(table_chunks), 0) FROM ingestions WHERE deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query).Scan(&textChunks, &tableChunks)
	return textChunks, tableChunks, err
}
