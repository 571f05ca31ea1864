package ingestion_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edugen/features/ingestion"
)

func newMockRepo(t *testing.T) (*ingestion.PostgresRepo, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return ingestion.NewPostgresRepo(db), mock, db
}

func TestPostgresRepo_Save(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO ingestions (file_name, path, status) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`)).
		WithArgs("ml.pdf", "/uploads/abc_ml.pdf", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("ing-1", now, now))

	ing := &ingestion.Ingestion{FileName: "ml.pdf", Path: "/uploads/abc_ml.pdf", Status: "pending"}
	err := repo.Save(context.Background(), ing)

	require.NoError(t, err)
	assert.Equal(t, "ing-1", ing.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Get(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	tocJSON := []byte(`[{"section":"Chapter 1: Introduction","page_start":1,"page_end":4}]`)
	mock.ExpectQuery(`SELECT id, file_name, path, status`).
		WithArgs("ing-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "file_name", "path", "status", "pages", "text_chunks", "table_chunks",
			"toc_strategy", "toc", "error", "created_at", "updated_at",
		}).AddRow("ing-1", "ml.pdf", "/uploads/abc_ml.pdf", "completed", 10, 8, 1,
			"toc_page", tocJSON, nil, time.Now(), time.Now()))

	ing, err := repo.Get(context.Background(), "ing-1")

	require.NoError(t, err)
	assert.Equal(t, "completed", ing.Status)
	assert.Equal(t, 10, ing.Pages)
	assert.Equal(t, "toc_page", ing.TOCStrategy)
	require.Len(t, ing.TOC, 1)
	assert.Equal(t, "Chapter 1: Introduction", ing.TOC[0].Section)
	assert.Equal(t, 4, ing.TOC[0].PageEnd)
}

func TestPostgresRepo_Get_NotFound(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, file_name, path, status`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPostgresRepo_List(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, file_name, status`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "file_name", "status", "pages", "text_chunks", "table_chunks", "created_at", "updated_at",
		}).
			AddRow("ing-2", "b.pdf", "pending", 0, 0, 0, time.Now(), time.Now()).
			AddRow("ing-1", "a.pdf", "completed", 12, 20, 2, time.Now(), time.Now()))

	out, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ing-2", out[0].ID)
	assert.Equal(t, 20, out[1].TextChunks)
}

func TestPostgresRepo_SaveResult(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE ingestions`).
		WithArgs("completed", 10, 8, 1, "toc_page", sqlmock.AnyArg(), "ing-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveResult(context.Background(), "ing-1", 10, 8, 1, "toc_page",
		[]ingestion.TOCEntry{{Section: "Chapter 1: Introduction", PageStart: 1, PageEnd: 10}})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_MarkFailed(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE ingestions SET status`).
		WithArgs("failed", "extract pdf: corrupt xref", "ing-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkFailed(context.Background(), "ing-1", "extract pdf: corrupt xref")
	assert.NoError(t, err)
}

func TestPostgresRepo_SoftDelete(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE ingestions SET deleted_at`).
		WithArgs("ing-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SoftDelete(context.Background(), "ing-1"))
}

func TestPostgresRepo_ChunkTotals(t *testing.T) {
	repo, mock, db := newMockRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE`).
		WillReturnRows(sqlmock.NewRows([]string{"text", "table"}).AddRow(120, 14))

	textChunks, tableChunks, err := repo.ChunkTotals(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 120, textChunks)
	assert.Equal(t, 14, tableChunks)
}
