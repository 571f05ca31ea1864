// Package middleware holds HTTP middleware shared by every route.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HeaderCorrelationID carries the request id between services; callers that
// supply one keep it, everyone else gets a fresh UUID.
const HeaderCorrelationID = "X-Correlation-ID"

type key int

const CorrelationKey key = 0

// CorrelationID tags every request with a correlation id, echoes it in the
// response header, and logs request start and completion with the id and
// duration.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderCorrelationID)
		if id == "" {
			id = uuid.New().String()
		}

		ctx := WithCorrelationID(r.Context(), id)
		w.Header().Set(HeaderCorrelationID, id)

		slog.InfoContext(ctx, "request received", "method", r.Method, "path", r.URL.Path) // #nosec G706 -- r.URL.Path is parsed by Go's net/http
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		slog.InfoContext(ctx, "request completed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start)) // #nosec G706
	})
}

// GetCorrelationID returns the id stored on ctx, or "unknown" outside a
// request scope.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationKey).(string); ok {
		return id
	}
	return "unknown"
}

// WithCorrelationID attaches an id to ctx directly; the ingest worker uses
// this to continue the correlation chain from a queued message.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationKey, id)
}
