// Package ingestion owns the lifecycle of uploaded documents: accepting the
// upload, queueing the processing run, and serving ingestion state back to
// clients. The heavy lifting happens in the ingest worker; this package
// tracks it.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"edugen/internal/config"
	"edugen/internal/ingest"
	"edugen/internal/middleware"
	"edugen/internal/worker"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// TOCEntry is one detected section with its resolved page range.
type TOCEntry struct {
	Section   string `json:"section"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
}

type Ingestion struct {
	ID          string     `json:"id"`
	FileName    string     `json:"file_name"`
	Path        string     `json:"-"`
	Status      string     `json:"status"`
	Pages       int        `json:"pages"`
	TextChunks  int        `json:"text_chunks"`
	TableChunks int        `json:"table_chunks"`
	TOCStrategy string     `json:"toc_strategy,omitempty"`
	TOC         []TOCEntry `json:"toc,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, ing *Ingestion) error
	Get(ctx context.Context, id string) (*Ingestion, error)
	List(ctx context.Context) ([]Ingestion, error)
	UpdateStatus(ctx context.Context, id, status string) error
	MarkFailed(ctx context.Context, id, reason string) error
	SaveResult(ctx context.Context, id string, pages, textChunks, tableChunks int, strategy string, toc []TOCEntry) error
	SoftDelete(ctx context.Context, id string) error
}

type ChunkStore interface {
	DropCollection(ctx context.Context, ingestionID string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo       Repository
	pub        EventPublisher
	chunkStore ChunkStore
}

func NewService(repo Repository, pub EventPublisher, chunkStore ChunkStore) *Service {
	return &Service{repo: repo, pub: pub, chunkStore: chunkStore}
}

// Create records a pending ingestion and queues the processing run. The
// uploaded file is already on disk at path.
func (s *Service) Create(ctx context.Context, fileName, path string) (*Ingestion, error) {
	ing := &Ingestion{
		FileName: fileName,
		Path:     path,
		Status:   StatusPending,
	}
	if err := s.repo.Save(ctx, ing); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(worker.IngestRequestPayload{
		IngestionID:   ing.ID,
		Path:          path,
		FileName:      fileName,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicIngestRequest, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingest.request event", "error", err, "ingestion_id", ing.ID)
		if markErr := s.repo.MarkFailed(ctx, ing.ID, "failed to queue ingestion"); markErr != nil {
			slog.ErrorContext(ctx, "failed to mark ingestion failed", "error", markErr, "ingestion_id", ing.ID)
		}
		return nil, fmt.Errorf("queue ingestion: %w", err)
	}

	slog.InfoContext(ctx, "published ingest.request event", "ingestion_id", ing.ID, "file_name", fileName)
	return ing, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Ingestion, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Ingestion, error) {
	return s.repo.List(ctx)
}

// Delete removes the ingestion's vector collection, then soft-deletes the
// database row. The row must still exist so a half-failed delete can be
// retried.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.chunkStore.DropCollection(ctx, id); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return s.repo.SoftDelete(ctx, id)
}

// MarkProcessing, MarkFailed, and SaveResult let the ingest worker report
// progress; together they satisfy the worker's tracker interface.

func (s *Service) MarkProcessing(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, StatusProcessing)
}

func (s *Service) MarkFailed(ctx context.Context, id, reason string) error {
	return s.repo.MarkFailed(ctx, id, reason)
}

func (s *Service) SaveResult(ctx context.Context, id string, res *ingest.Result) error {
	toc := make([]TOCEntry, len(res.Ranges))
	for i, r := range res.Ranges {
		toc[i] = TOCEntry{Section: r.Title, PageStart: r.PageStart, PageEnd: r.PageEnd}
	}
	return s.repo.SaveResult(ctx, id, res.Pages, res.TextChunks, res.TableChunks, res.TOC.Strategy.String(), toc)
}
