package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamops/internal/models"
	"teamops/internal/repository"
)

// apiStore records the arguments of the last call so tests can assert on
// what the service passed down.
type apiStore struct {
	created    *models.Schedule
	createErr  error
	lastJobID  int
	lastSlug   string
	lastTime   time.Time
	lastStatus string
	lastActor  string
	canceled   *models.Schedule
	cancelErr  error
}

func (s *apiStore) Create(_ context.Context, jobID int, platform string, publishAt time.Time) (*models.Schedule, error) {
	s.lastJobID, s.lastSlug, s.lastTime = jobID, platform, publishAt
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.created, nil
}

func (s *apiStore) Get(_ context.Context, id int) (*models.Schedule, error) {
	return nil, repository.ErrNotFound
}

func (s *apiStore) List(_ context.Context, _ repository.ScheduleFilter) ([]*models.Schedule, error) {
	return nil, nil
}

func (s *apiStore) Retry(_ context.Context, id int) (*models.Schedule, error) {
	s.lastStatus = models.ScheduleStatusPending
	return &models.Schedule{ID: id, Status: models.ScheduleStatusPending}, nil
}

func (s *apiStore) Cancel(_ context.Context, id int, actor string) (*models.Schedule, error) {
	s.lastActor = actor
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return s.canceled, nil
}

func (s *apiStore) Reschedule(_ context.Context, id int, publishAt time.Time) (*models.Schedule, error) {
	s.lastTime = publishAt
	return &models.Schedule{ID: id, Status: models.ScheduleStatusPending, PublishAt: publishAt}, nil
}

type staticNormalizer struct{ known map[string]string }

func (n staticNormalizer) Normalize(platform string) (string, error) {
	if slug, ok := n.known[platform]; ok {
		return slug, nil
	}
	return "", fmt.Errorf("unsupported publishing platform: %s", platform)
}

func newTestScheduleService(store *apiStore) *ScheduleService {
	return NewScheduleService(store, staticNormalizer{known: map[string]string{
		"reddit": "reddit", "x": "twitter_x",
	}}, nil)
}

func TestCreateScheduleNormalizesPlatform(t *testing.T) {
	store := &apiStore{created: &models.Schedule{ID: 1, Status: models.ScheduleStatusPending}}
	svc := newTestScheduleService(store)

	got, err := svc.CreateSchedule(context.Background(), CreateScheduleRequest{
		JobID:     7,
		Platform:  "x",
		PublishAt: "2026-09-01T10:30",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, "twitter_x", store.lastSlug)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC), store.lastTime)
}

func TestCreateScheduleValidation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateScheduleRequest
	}{
		{"missing job id", CreateScheduleRequest{Platform: "reddit", PublishAt: "2026-09-01T10:30"}},
		{"unknown platform", CreateScheduleRequest{JobID: 1, Platform: "myspace", PublishAt: "2026-09-01T10:30"}},
		{"empty publish_at", CreateScheduleRequest{JobID: 1, Platform: "reddit"}},
		{"garbage publish_at", CreateScheduleRequest{JobID: 1, Platform: "reddit", PublishAt: "tomorrow at noon"}},
	}
	svc := newTestScheduleService(&apiStore{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSchedule(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateScheduleAcceptsPastPublishAt(t *testing.T) {
	store := &apiStore{created: &models.Schedule{ID: 2, Status: models.ScheduleStatusPending}}
	svc := newTestScheduleService(store)

	_, err := svc.CreateSchedule(context.Background(), CreateScheduleRequest{
		JobID:     1,
		Platform:  "reddit",
		PublishAt: "2020-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.True(t, store.lastTime.Before(time.Now()))
}

func TestCreateScheduleMapsMissingJobToInvalidInput(t *testing.T) {
	store := &apiStore{createErr: fmt.Errorf("job 42: %w", repository.ErrNotFound)}
	svc := newTestScheduleService(store)

	_, err := svc.CreateSchedule(context.Background(), CreateScheduleRequest{
		JobID:     42,
		Platform:  "reddit",
		PublishAt: "2026-09-01T10:30",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCancelScheduleDefaultsActor(t *testing.T) {
	store := &apiStore{canceled: &models.Schedule{ID: 3, Status: models.ScheduleStatusCanceled}}
	svc := newTestScheduleService(store)

	got, err := svc.CancelSchedule(context.Background(), 3, "  ")
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusCanceled, got.Status)
	assert.Equal(t, "operator", store.lastActor)
}

func TestListSchedulesRejectsUnknownStatus(t *testing.T) {
	svc := newTestScheduleService(&apiStore{})
	_, err := svc.ListSchedules(context.Background(), "in_flight", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRetryScheduleResetsToPending(t *testing.T) {
	store := &apiStore{}
	svc := newTestScheduleService(store)

	got, err := svc.RetrySchedule(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusPending, got.Status)
	assert.Equal(t, models.ScheduleStatusPending, store.lastStatus)
}
