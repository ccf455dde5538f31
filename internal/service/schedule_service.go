package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"teamops/internal/models"
	"teamops/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// ScheduleStore is the slice of the schedule repository the API-facing
// service needs.
type ScheduleStore interface {
	Create(ctx context.Context, jobID int, platform string, publishAt time.Time) (*models.Schedule, error)
	Get(ctx context.Context, id int) (*models.Schedule, error)
	List(ctx context.Context, filter repository.ScheduleFilter) ([]*models.Schedule, error)
	Cancel(ctx context.Context, id int, actor string) (*models.Schedule, error)
	Retry(ctx context.Context, id int) (*models.Schedule, error)
	Reschedule(ctx context.Context, id int, publishAt time.Time) (*models.Schedule, error)
}

// PlatformNormalizer folds user-supplied platform names to registered slugs.
type PlatformNormalizer interface {
	Normalize(platform string) (string, error)
}

type CreateScheduleRequest struct {
	JobID     int    `json:"job_id"`
	Platform  string `json:"platform"`
	PublishAt string `json:"publish_at"`
}

type ScheduleService struct {
	store     ScheduleStore
	platforms PlatformNormalizer
	logger    *log.Logger
}

func NewScheduleService(store ScheduleStore, platforms PlatformNormalizer, logger *log.Logger) *ScheduleService {
	if logger == nil {
		logger = log.Default()
	}
	return &ScheduleService{
		store:     store,
		platforms: platforms,
		logger:    logger,
	}
}

// CreateSchedule validates and inserts a new pending schedule. The platform
// must resolve to a registered publisher; publish_at in the past is accepted
// and becomes immediately due.
func (s *ScheduleService) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*models.Schedule, error) {
	if req.JobID <= 0 {
		return nil, fmt.Errorf("%w: job_id is required", ErrInvalidInput)
	}

	slug, err := s.platforms.Normalize(req.Platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	publishAt, err := parseScheduleTime(req.PublishAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sched, err := s.store.Create(ctx, req.JobID, slug, publishAt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %d does not exist", ErrInvalidInput, req.JobID)
		}
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	return sched, nil
}

func (s *ScheduleService) GetSchedule(ctx context.Context, id int) (*models.Schedule, error) {
	return s.store.Get(ctx, id)
}

func (s *ScheduleService) ListSchedules(ctx context.Context, status string, jobID int) ([]*models.Schedule, error) {
	if status != "" && !models.IsScheduleStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.store.List(ctx, repository.ScheduleFilter{Status: status, JobID: jobID})
}

// CancelSchedule marks a pending or queued schedule canceled, recording who
// asked. Canceling an already-canceled row succeeds without changes.
func (s *ScheduleService) CancelSchedule(ctx context.Context, id int, actor string) (*models.Schedule, error) {
	if strings.TrimSpace(actor) == "" {
		actor = "operator"
	}
	return s.store.Cancel(ctx, id, actor)
}

// RetrySchedule resets an errored schedule back to pending for re-claim.
// This is the operator action, the dispatcher never retries on its own.
func (s *ScheduleService) RetrySchedule(ctx context.Context, id int) (*models.Schedule, error) {
	return s.store.Retry(ctx, id)
}

// RescheduleSchedule moves publish_at while the row is still pending.
func (s *ScheduleService) RescheduleSchedule(ctx context.Context, id int, publishAtRaw string) (*models.Schedule, error) {
	publishAt, err := parseScheduleTime(publishAtRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.store.Reschedule(ctx, id, publishAt)
}

// parseScheduleTime accepts RFC3339 or the datetime-local formats the UI
// sends ("YYYY-MM-DDTHH:MM", optionally with seconds). Values without an
// offset are taken as UTC.
func parseScheduleTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("publish_at is required")
	}

	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid publish_at %q, use RFC3339 or YYYY-MM-DDTHH:MM", raw)
}
