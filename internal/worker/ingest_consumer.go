package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"edugen/internal/middleware"
)

// pipelineTimeout bounds one full ingestion run, embedding included. Large
// documents take minutes; anything past this is assumed stuck.
const pipelineTimeout = 10 * time.Minute

// IngestConsumer handles ingest.request messages. Each message carries one
// uploaded document and is processed end to end by a single handler call.
type IngestConsumer struct {
	pipeline PipelineRunner
	tracker  IngestionTracker
}

func NewIngestConsumer(pipeline PipelineRunner, tracker IngestionTracker) *IngestConsumer {
	return &IngestConsumer{pipeline: pipeline, tracker: tracker}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload IngestRequestPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}
	if payload.IngestionID == "" || payload.Path == "" {
		slog.Error("poison pill: incomplete payload", "ingestion_id", payload.IngestionID)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	if err := h.tracker.MarkProcessing(ctx, payload.IngestionID); err != nil {
		slog.ErrorContext(ctx, "mark processing failed", "error", err, "ingestion_id", payload.IngestionID)
		return err // Retry
	}

	runCtx, cancel := context.WithTimeout(ctx, pipelineTimeout)
	defer cancel()

	res, err := h.pipeline.Run(runCtx, payload.IngestionID, payload.Path, payload.FileName)
	if err != nil {
		slog.ErrorContext(ctx, "ingestion pipeline failed", "error", err, "ingestion_id", payload.IngestionID)
		if markErr := h.tracker.MarkFailed(ctx, payload.IngestionID, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "mark failed status failed", "error", markErr, "ingestion_id", payload.IngestionID)
		}
		return err // Retry
	}

	if err := h.tracker.SaveResult(ctx, payload.IngestionID, res); err != nil {
		slog.ErrorContext(ctx, "save result failed", "error", err, "ingestion_id", payload.IngestionID)
		return err // Retry
	}

	slog.InfoContext(ctx, "ingestion completed",
		"ingestion_id", payload.IngestionID,
		"pages", res.Pages,
		"text_chunks", res.TextChunks,
		"table_chunks", res.TableChunks)
	return nil
}
