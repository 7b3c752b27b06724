package catalog

import (
	"errors"
	"net/http"

	"releaseingest/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// GetBySpotifyID handles GET /releases/{spotify_id}
func (h *HTTPHandler) GetBySpotifyID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("spotify_id")
	if id == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request", []httpx.ErrorDetail{
			{Field: "spotify_id", Message: "spotify_id is required"},
		})
		return
	}

	rel, err := h.svc.GetBySpotifyID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Release not found in catalog", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, rel, nil)
}

// Count handles GET /releases/count
func (h *HTTPHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Count(r.Context())
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, map[string]int{"total": n}, nil)
}
