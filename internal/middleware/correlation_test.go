package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCorrelationID_MintsID(t *testing.T) {
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := r.Context().Value(CorrelationKey).(string)
		if !ok || id == "" {
			t.Error("correlation id missing from context")
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get(HeaderCorrelationID) == "" {
		t.Error("header missing")
	}
}

func TestCorrelationID_KeepsSuppliedID(t *testing.T) {
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetCorrelationID(r.Context()); got != "caller-id" {
			t.Errorf("expected caller-id, got %q", got)
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderCorrelationID, "caller-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderCorrelationID); got != "caller-id" {
		t.Errorf("expected caller-id echoed, got %q", got)
	}
}

func TestGetCorrelationID_OutsideRequest(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "unknown" {
		t.Errorf("expected unknown, got %q", got)
	}

	ctx := WithCorrelationID(context.Background(), "worker-id")
	if got := GetCorrelationID(ctx); got != "worker-id" {
		t.Errorf("expected worker-id, got %q", got)
	}
}
