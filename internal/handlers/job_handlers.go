package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"teamops/internal/cache"
	"teamops/internal/metrics"
	"teamops/internal/models"
	"teamops/internal/repository"
	"teamops/internal/service"
)

// ContentService describes the service-layer methods the job handlers need.
type ContentService interface {
	Generate(ctx context.Context, req service.GenerateRequest) (*service.GenerateResponse, error)
	GetJob(ctx context.Context, id int) (*models.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*models.Job, error)
}

type JobHandler struct {
	service ContentService
	cache   cache.Cache
	ttl     time.Duration
}

func NewJobHandler(service ContentService, cache cache.Cache, ttl time.Duration) *JobHandler {
	return &JobHandler{service: service, cache: cache, ttl: ttl}
}

// POST /api/jobs
// 201: { "job": {...}, "note": "AI generated" | fallback note }
// 400: invalid input
// 500: internal error
func (h *JobHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req service.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	res, err := h.service.Generate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	// the list cache is stale now
	if h.cache != nil {
		_ = h.cache.Del(r.Context(), cache.JobsListKey)
	}

	writeJSON(w, http.StatusCreated, res)
}

// GET /api/jobs/{id}
// 200: job row (X-Cache: HIT|MISS when Redis is configured)
// 404: not found
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 1) cache lookup
	if h.cache != nil {
		if b, ok, err := h.cache.Get(r.Context(), cache.JobDataKey(id)); err == nil && ok {
			metrics.IncRedisHit()
			w.Header().Set("X-Cache", "HIT")
			writeRawJSON(w, http.StatusOK, b)
			return
		}
	}

	// 2) DB via service
	job, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "job not found")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	b, _ := json.Marshal(job)

	// 3) cache store
	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cache.JobDataKey(id), b, h.ttl)
		metrics.IncRedisMiss()
		w.Header().Set("X-Cache", "MISS")
	}

	writeRawJSON(w, http.StatusOK, b)
}

// GET /api/jobs?limit=
// 200: { "jobs": [...] }
// 400: invalid limit
// 500: internal error
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	// only the default page is cached; explicit limits go to the DB
	cacheable := h.cache != nil && limit == 50

	if cacheable {
		if b, ok, err := h.cache.Get(r.Context(), cache.JobsListKey); err == nil && ok {
			metrics.IncRedisHit()
			w.Header().Set("X-Cache", "HIT")
			writeRawJSON(w, http.StatusOK, b)
			return
		}
	}

	jobs, err := h.service.ListJobs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	b, _ := json.Marshal(map[string]any{"jobs": jobs})

	if cacheable {
		_ = h.cache.Set(r.Context(), cache.JobsListKey, b, h.ttl)
		metrics.IncRedisMiss()
		w.Header().Set("X-Cache", "MISS")
	}

	writeRawJSON(w, http.StatusOK, b)
}
