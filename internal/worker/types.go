package worker

import (
	"context"

	"edugen/internal/ingest"
)

type PipelineRunner interface {
	Run(ctx context.Context, ingestionID, path, fileName string) (*ingest.Result, error)
}

type IngestionTracker interface {
	MarkProcessing(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
	SaveResult(ctx context.Context, id string, res *ingest.Result) error
}
