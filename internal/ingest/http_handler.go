package ingest

import (
	"context"
	"net/http"
	"time"

	"releaseingest/internal/httpx"
)

// Counter is the storage probe used by the readiness check.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type HTTPHandler struct {
	status *StatusTracker
	store  Counter
}

func NewHTTPHandler(status *StatusTracker, store Counter) *HTTPHandler {
	return &HTTPHandler{status: status, store: store}
}

// Healthz handles GET /healthz
func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz handles GET /readyz
func (h *HTTPHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if _, err := h.store.Count(ctx); err != nil {
		http.Error(w, "storage not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Status handles GET /status
func (h *HTTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, h.status.Snapshot(), nil)
}
