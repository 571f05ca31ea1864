// Package ingest runs the document processing pipeline: extract pages and
// tables from a PDF, detect its section structure, chunk the text, embed
// the chunks, and persist them into the ingestion's vector collection.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"edugen/internal/pdf"
	"edugen/internal/text"
	"edugen/internal/toc"
)

type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type ChunkStore interface {
	StoreChunks(ctx context.Context, ingestionID string, chunks []text.Chunk, vectors [][]float32) error
}

type Pipeline struct {
	extractor     pdf.Extractor
	embedder      DocumentEmbedder
	store         ChunkStore
	maxTokens     int
	overlapTokens int
}

func NewPipeline(extractor pdf.Extractor, embedder DocumentEmbedder, store ChunkStore, maxTokens, overlapTokens int) *Pipeline {
	return &Pipeline{
		extractor:     extractor,
		embedder:      embedder,
		store:         store,
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
	}
}

// Result summarizes one completed ingestion.
type Result struct {
	Pages       int
	TOC         toc.Result
	Ranges      []toc.SectionRange
	TextChunks  int
	TableChunks int
}

// Run processes one document end to end. A document that yields no chunks
// completes successfully with zero counts; nothing is embedded or stored,
// so the ingestion ends up with no vector collection.
func (p *Pipeline) Run(ctx context.Context, ingestionID, path, fileName string) (*Result, error) {
	doc, err := p.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract pdf: %w", err)
	}
	slog.InfoContext(ctx, "pdf extracted",
		"ingestion_id", ingestionID, "pages", len(doc.Pages), "tables", len(doc.Tables))

	detected := toc.Detect(doc.Pages)
	ranges := toc.MapToPages(detected.Entries, len(doc.Pages))
	slog.InfoContext(ctx, "sections detected",
		"ingestion_id", ingestionID, "strategy", detected.Strategy.String(), "sections", len(ranges))

	chunks := text.BuildChunks(doc, ranges, fileName, p.maxTokens, p.overlapTokens)

	res := &Result{
		Pages:  len(doc.Pages),
		TOC:    detected,
		Ranges: ranges,
	}
	for _, c := range chunks {
		if c.Type == text.ChunkTypeTable {
			res.TableChunks++
		} else {
			res.TextChunks++
		}
	}

	if len(chunks) == 0 {
		slog.WarnContext(ctx, "document produced no chunks", "ingestion_id", ingestionID)
		return res, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	if err := p.store.StoreChunks(ctx, ingestionID, chunks, vectors); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	slog.InfoContext(ctx, "ingestion pipeline complete",
		"ingestion_id", ingestionID,
		"text_chunks", res.TextChunks, "table_chunks", res.TableChunks)
	return res, nil
}
