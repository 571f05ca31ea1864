// Package stats serves aggregate ingestion counters.
package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"edugen/internal/middleware"
)

type IngestionRepo interface {
	Count(ctx context.Context) (int, error)
	ChunkTotals(ctx context.Context) (int, int, error)
}

type Handler struct {
	repo IngestionRepo
}

func NewHandler(repo IngestionRepo) *Handler {
	return &Handler{repo: repo}
}

type StatsResponse struct {
	Ingestions  int `json:"ingestions"`
	TextChunks  int `json:"text_chunks"`
	TableChunks int `json:"table_chunks"`
	TotalChunks int `json:"total_chunks"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.repo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count ingestions", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count ingestions", http.StatusInternalServerError)
		return
	}

	textChunks, tableChunks, err := h.repo.ChunkTotals(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to total chunks", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to total chunks", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Ingestions:  count,
		TextChunks:  textChunks,
		TableChunks: tableChunks,
		TotalChunks: textChunks + tableChunks,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
