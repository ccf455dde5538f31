package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"teamops/internal/cache"
	"teamops/internal/metrics"
	"teamops/internal/publisher"
)

// PublisherCatalog is the registry surface the catalog handlers need.
type PublisherCatalog interface {
	List() []publisher.Info
	Resolve(platform string) (publisher.Publisher, bool)
}

type PublisherHandler struct {
	catalog PublisherCatalog
	cache   cache.Cache
	ttl     time.Duration
}

func NewPublisherHandler(catalog PublisherCatalog, cache cache.Cache, ttl time.Duration) *PublisherHandler {
	return &PublisherHandler{catalog: catalog, cache: cache, ttl: ttl}
}

// GET /api/publishers
// 200: { "publishers": [ { slug, display_name, description, required_env, configured }, ... ] }
func (h *PublisherHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if b, ok, err := h.cache.Get(r.Context(), cache.PublishersListKey); err == nil && ok {
			metrics.IncRedisHit()
			w.Header().Set("X-Cache", "HIT")
			writeRawJSON(w, http.StatusOK, b)
			return
		}
	}

	infos := h.catalog.List()
	entries := make([]map[string]any, 0, len(infos))
	for _, info := range infos {
		p, _ := h.catalog.Resolve(info.Slug)
		entries = append(entries, map[string]any{
			"slug":         info.Slug,
			"display_name": info.DisplayName,
			"description":  info.Description,
			"required_env": info.RequiredEnv,
			"notes":        info.Notes,
			"configured":   p != nil && p.HealthCheck() == nil,
		})
	}

	b, _ := json.Marshal(map[string]any{"publishers": entries})

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cache.PublishersListKey, b, h.ttl)
		metrics.IncRedisMiss()
		w.Header().Set("X-Cache", "MISS")
	}

	writeRawJSON(w, http.StatusOK, b)
}

// GET /api/publishers/{slug}/health
// 200: { "slug": "...", "ok": true }
// 200 with ok=false and a detail when credentials are missing
// 404: unknown platform
func (h *PublisherHandler) Health(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p, ok := h.catalog.Resolve(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown publisher: "+slug)
		return
	}

	resp := map[string]any{
		"slug": p.Info().Slug,
		"ok":   true,
	}
	if err := p.HealthCheck(); err != nil {
		resp["ok"] = false
		resp["detail"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
