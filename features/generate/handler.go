package generate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"edugen/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IngestionID string `json:"ingestion_id"`
		UserPrompt  string `json:"user_prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.IngestionID == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "ingestion_id is required", http.StatusBadRequest)
		return
	}
	if req.UserPrompt == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "user_prompt is required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Generate(r.Context(), req.IngestionID, req.UserPrompt)
	if err != nil {
		h.handleGenerateError(r.Context(), w, req.IngestionID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) handleGenerateError(ctx context.Context, w http.ResponseWriter, ingestionID string, err error) {
	if errors.Is(err, ErrNoContent) {
		h.writeError(ctx, w, "NOT_FOUND", "No content found for ingestion: "+ingestionID, http.StatusNotFound)
		return
	}
	if errors.Is(err, ErrUnknownMode) {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	slog.ErrorContext(ctx, "generation failed", "error", err, "ingestion_id", ingestionID)

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			h.writeError(ctx, w, "RATE_LIMITED", "LLM rate limit exceeded", http.StatusTooManyRequests)
			return
		case http.StatusNotFound:
			h.writeError(ctx, w, "UPSTREAM_ERROR", "LLM model not found", http.StatusBadGateway)
			return
		}
	}
	// gRPC transports surface quota errors as text, not *googleapi.Error.
	if strings.Contains(err.Error(), "429") {
		h.writeError(ctx, w, "RATE_LIMITED", "LLM rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
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
