// Package retrieval implements the three-stage retrieval funnel: dense
// candidate retrieval, a topical coarse filter with a fail-safe, and a
// cross-encoder rerank applied only when it can change the outcome.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned by a VectorQuerier when nothing has been stored
// under the requested ingestion id. The funnel converts it into an empty
// result; "nothing ingested yet" is an expected state, not a failure.
var ErrNotFound = errors.New("no stored content for ingestion id")

// ChunkMeta is the provenance metadata stored alongside each chunk.
type ChunkMeta struct {
	FileName     string `json:"file_name"`
	ChunkType    string `json:"chunk_type"`
	SectionTitle string `json:"section_title"`
	PageStart    int    `json:"page_start"`
	PageEnd      int    `json:"page_end"`
}

// Candidate is one dense-retrieval hit.
type Candidate struct {
	Text string
	Meta ChunkMeta
}

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type VectorQuerier interface {
	Query(ctx context.Context, ingestionID string, vector []float32, limit int) ([]Candidate, error)
}

// Scorer is a cross-encoder: one relevance score per (query, doc) pair,
// aligned with docs, higher is more relevant.
type Scorer interface {
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}

// Options carries the funnel's empirical thresholds. They are configuration,
// not derived values.
type Options struct {
	// CandidateMultiplier widens stage 1: topK * CandidateMultiplier
	// candidates are fetched from the vector store.
	CandidateMultiplier int
	// TopicFilterMin is the fail-safe: the topical filter is applied only
	// when it retains at least this many candidates.
	TopicFilterMin int
}

func DefaultOptions() Options {
	return Options{CandidateMultiplier: 5, TopicFilterMin: 3}
}

type Service struct {
	embedder QueryEmbedder
	store    VectorQuerier
	scorer   Scorer
	opts     Options
	logger   *QueryLogger
}

// NewService wires the funnel. scorer may be nil, in which case stage 3 is
// always skipped; logger may be nil to disable query logging.
func NewService(e QueryEmbedder, s VectorQuerier, sc Scorer, opts Options, l *QueryLogger) *Service {
	if opts.CandidateMultiplier <= 0 {
		opts.CandidateMultiplier = DefaultOptions().CandidateMultiplier
	}
	if opts.TopicFilterMin <= 0 {
		opts.TopicFilterMin = DefaultOptions().TopicFilterMin
	}
	return &Service{embedder: e, store: s, scorer: sc, opts: opts, logger: l}
}

// Retrieve runs the funnel for one request. topic narrows the search when
// non-empty. Both returned slices have the same length, at most topK,
// ordered by descending final relevance. An unknown ingestion id yields two
// empty slices, not an error.
func (s *Service) Retrieve(ctx context.Context, ingestionID, query, topic string, topK int) ([]string, []ChunkMeta, error) {
	start := time.Now()
	entry := QueryLogEntry{IngestionID: ingestionID, Query: query, Topic: topic}
	defer func() {
		if s.logger != nil {
			entry.Duration = time.Since(start)
			s.logger.Log(entry)
		}
	}()

	searchQuery := query
	if topic != "" {
		searchQuery = topic
	}

	vec, err := s.embedder.EmbedQuery(ctx, searchQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("embed query: %w", err)
	}

	// Stage 1: dense retrieval, wide.
	candidates, err := s.store.Query(ctx, ingestionID, vec, topK*s.opts.CandidateMultiplier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.InfoContext(ctx, "no collection for ingestion id", "ingestion_id", ingestionID)
			return []string{}, []ChunkMeta{}, nil
		}
		return nil, nil, fmt.Errorf("dense retrieval: %w", err)
	}
	entry.Stage1 = len(candidates)
	if len(candidates) == 0 {
		return []string{}, []ChunkMeta{}, nil
	}

	// Stage 2: coarse topical filter, applied only when it keeps enough.
	if topic != "" {
		filtered := make([]Candidate, 0, len(candidates))
		needle := strings.ToLower(topic)
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c.Meta.SectionTitle), needle) {
				filtered = append(filtered, c)
			}
		}
		if len(filtered) >= s.opts.TopicFilterMin {
			candidates = filtered
		} else {
			slog.InfoContext(ctx, "topic filter too restrictive, keeping all candidates",
				"topic", topic, "matches", len(filtered))
		}
	}
	entry.Stage2 = len(candidates)

	// Reranking cannot change the outcome when everything already fits.
	if len(candidates) <= topK {
		texts, metas := split(candidates)
		entry.NumResults = len(texts)
		return texts, metas, nil
	}

	// Stage 3: cross-encoder rerank; fail open to dense order.
	if s.scorer != nil {
		texts, _ := split(candidates)
		scores, err := s.scorer.Score(ctx, searchQuery, texts)
		if err != nil || len(scores) != len(candidates) {
			slog.WarnContext(ctx, "reranking failed, returning unranked candidates",
				"error", err, "candidates", len(candidates))
		} else {
			idx := make([]int, len(candidates))
			for i := range idx {
				idx[i] = i
			}
			sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

			reranked := make([]Candidate, len(candidates))
			for i, j := range idx {
				reranked[i] = candidates[j]
			}
			candidates = reranked
			entry.Reranked = true
		}
	}

	texts, metas := split(candidates[:topK])
	entry.NumResults = len(texts)
	return texts, metas, nil
}

func split(candidates []Candidate) ([]string, []ChunkMeta) {
	texts := make([]string, len(candidates))
	metas := make([]ChunkMeta, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
		metas[i] = c.Meta
	}
	return texts, metas
}
