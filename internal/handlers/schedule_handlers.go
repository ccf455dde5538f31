package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"teamops/internal/models"
	"teamops/internal/repository"
	"teamops/internal/service"
)

// ScheduleService describes the service-layer methods the schedule handlers
// need.
type ScheduleService interface {
	CreateSchedule(ctx context.Context, req service.CreateScheduleRequest) (*models.Schedule, error)
	GetSchedule(ctx context.Context, id int) (*models.Schedule, error)
	ListSchedules(ctx context.Context, status string, jobID int) ([]*models.Schedule, error)
	CancelSchedule(ctx context.Context, id int, actor string) (*models.Schedule, error)
	RetrySchedule(ctx context.Context, id int) (*models.Schedule, error)
	RescheduleSchedule(ctx context.Context, id int, publishAt string) (*models.Schedule, error)
}

type ScheduleHandler struct {
	service ScheduleService
}

func NewScheduleHandler(service ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// POST /api/schedules
// 201: schedule row
// 400: invalid input (unknown platform, bad publish_at, missing job)
// 500: internal error
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	sched, err := h.service.CreateSchedule(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, sched)
}

// GET /api/schedules?status=&job_id=
// 200: { "schedules": [...] }
// 400: unknown status
// 500: internal error
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))

	jobID := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("job_id")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "job_id must be a positive integer")
			return
		}
		jobID = n
	}

	schedules, err := h.service.ListSchedules(r.Context(), status, jobID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"schedules": schedules})
}

// GET /api/schedules/{id}
// 200: schedule row
// 404: not found
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sched, err := h.service.GetSchedule(r.Context(), id)
	if err != nil {
		h.writeScheduleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

// PUT /api/schedules/{id}
// 200: schedule row with the new publish_at
// 400: bad publish_at
// 404: not found
// 409: schedule is no longer pending
func (h *ScheduleHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		PublishAt string `json:"publish_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	sched, err := h.service.RescheduleSchedule(r.Context(), id, req.PublishAt)
	if err != nil {
		h.writeScheduleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

// POST /api/schedules/{id}/cancel
// 200: canceled schedule (idempotent for already-canceled rows)
// 404: not found
// 409: already publishing or in a terminal non-canceled state
func (h *ScheduleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Actor string `json:"actor"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
	}

	sched, err := h.service.CancelSchedule(r.Context(), id, req.Actor)
	if err != nil {
		h.writeScheduleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

// POST /api/schedules/{id}/retry
// 200: schedule reset to pending
// 404: not found
// 409: schedule is not in the error state
func (h *ScheduleHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sched, err := h.service.RetrySchedule(r.Context(), id)
	if err != nil {
		h.writeScheduleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

func (h *ScheduleHandler) writeScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "schedule not found")
	case errors.Is(err, repository.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
