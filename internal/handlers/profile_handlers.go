package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"teamops/internal/models"
	"teamops/internal/repository"
)

// ProfileStore is the repository surface the profile handlers need; profiles
// are simple enough that no service layer sits in between.
type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, id int) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	Delete(ctx context.Context, id int) error
}

type ProfileHandler struct {
	store ProfileStore
}

func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// POST /api/profiles
// 201: profile row
// 400: invalid input
// 500: internal error
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Profile
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.store.Create(r.Context(), &req); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// GET /api/profiles
// 200: { "profiles": [...] }
// 500: internal error
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// GET /api/profiles/{id}
// 200: profile row
// 404: not found
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.store.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "profile not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DELETE /api/profiles/{id}
// 200: { "ok": true }
// 404: not found
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "profile not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
