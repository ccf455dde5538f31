package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamops/internal/models"
	"teamops/internal/repository"
	"teamops/internal/service"
)

type stubScheduleService struct {
	created   *models.Schedule
	createErr error
	getErr    error
	cancelErr error
}

func (s *stubScheduleService) CreateSchedule(_ context.Context, req service.CreateScheduleRequest) (*models.Schedule, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.created, nil
}

func (s *stubScheduleService) GetSchedule(_ context.Context, id int) (*models.Schedule, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.Schedule{ID: id, Status: models.ScheduleStatusPending}, nil
}

func (s *stubScheduleService) ListSchedules(_ context.Context, status string, jobID int) ([]*models.Schedule, error) {
	return []*models.Schedule{}, nil
}

func (s *stubScheduleService) CancelSchedule(_ context.Context, id int, actor string) (*models.Schedule, error) {
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &models.Schedule{ID: id, Status: models.ScheduleStatusCanceled}, nil
}

func (s *stubScheduleService) RetrySchedule(_ context.Context, id int) (*models.Schedule, error) {
	return &models.Schedule{ID: id, Status: models.ScheduleStatusPending}, nil
}

func (s *stubScheduleService) RescheduleSchedule(_ context.Context, id int, publishAt string) (*models.Schedule, error) {
	return &models.Schedule{ID: id, Status: models.ScheduleStatusPending}, nil
}

func newScheduleRouter(svc ScheduleService) http.Handler {
	r := chi.NewRouter()
	h := NewScheduleHandler(svc)
	r.Route("/api/schedules", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Reschedule)
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/{id}/retry", h.Retry)
	})
	return r
}

func TestCreateScheduleEndpoint(t *testing.T) {
	svc := &stubScheduleService{created: &models.Schedule{
		ID:        1,
		JobID:     7,
		Platform:  "reddit",
		Status:    models.ScheduleStatusPending,
		PublishAt: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}}
	router := newScheduleRouter(svc)

	body := `{"job_id":7,"platform":"reddit","publish_at":"2026-09-01T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/schedules", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
}

func TestCreateScheduleEndpointRejections(t *testing.T) {
	tests := []struct {
		name string
		svc  *stubScheduleService
		body string
		want int
	}{
		{
			"malformed json", &stubScheduleService{},
			`{"job_id":`, http.StatusBadRequest,
		},
		{
			"unknown field", &stubScheduleService{},
			`{"job_id":1,"platform":"reddit","when":"now"}`, http.StatusBadRequest,
		},
		{
			"invalid input from service",
			&stubScheduleService{createErr: fmt.Errorf("%w: unknown platform", service.ErrInvalidInput)},
			`{"job_id":1,"platform":"myspace","publish_at":"2026-09-01T10:00:00Z"}`, http.StatusBadRequest,
		},
		{
			"internal error",
			&stubScheduleService{createErr: fmt.Errorf("db down")},
			`{"job_id":1,"platform":"reddit","publish_at":"2026-09-01T10:00:00Z"}`, http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/schedules", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newScheduleRouter(tt.svc).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetScheduleEndpointNotFound(t *testing.T) {
	router := newScheduleRouter(&stubScheduleService{getErr: repository.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/schedules/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelScheduleEndpointConflict(t *testing.T) {
	svc := &stubScheduleService{
		cancelErr: fmt.Errorf("schedule 3 is publishing: %w", repository.ErrInvalidTransition),
	}
	router := newScheduleRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/schedules/3/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "publishing")
}

func TestCancelScheduleEndpointWithActor(t *testing.T) {
	router := newScheduleRouter(&stubScheduleService{})

	req := httptest.NewRequest(http.MethodPost, "/api/schedules/3/cancel", strings.NewReader(`{"actor":"alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"canceled"`)
}
