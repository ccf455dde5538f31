package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"teamops/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const scheduleColumns = "id, job_id, platform, status, publish_at, metadata, created_at, updated_at"

// ScheduleFilter narrows List results. Zero values mean "no filter".
type ScheduleFilter struct {
	Status string
	JobID  int
}

type ScheduleRepository struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewScheduleRepository(db *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create inserts a new pending schedule. publish_at is normalized to UTC;
// past timestamps are accepted and become immediately due (catch-up
// semantics). The referenced job must exist.
func (r *ScheduleRepository) Create(ctx context.Context, jobID int, platform string, publishAt time.Time) (*models.Schedule, error) {
	if jobID <= 0 {
		return nil, fmt.Errorf("invalid job_id")
	}
	if platform == "" {
		return nil, fmt.Errorf("platform is empty")
	}
	if publishAt.IsZero() {
		return nil, fmt.Errorf("publish_at is zero")
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ai_content_jobs WHERE id = $1)`, jobID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check job exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}

	q := r.sb.
		Insert("ai_content_schedules").
		Columns("job_id", "platform", "status", "publish_at", "metadata").
		Values(jobID, platform, models.ScheduleStatusPending, publishAt.UTC(), []byte(`{}`)).
		Suffix("RETURNING " + scheduleColumns)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule insert: %w", err)
	}

	s, err := scanSchedule(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}
	return s, nil
}

func (r *ScheduleRepository) Get(ctx context.Context, id int) (*models.Schedule, error) {
	q := r.sb.
		Select(scheduleColumns).
		From("ai_content_schedules").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule select: %w", err)
	}

	s, err := scanSchedule(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

func (r *ScheduleRepository) List(ctx context.Context, filter ScheduleFilter) ([]*models.Schedule, error) {
	q := r.sb.
		Select(scheduleColumns).
		From("ai_content_schedules").
		OrderBy("publish_at ASC", "id ASC")

	if filter.Status != "" {
		if !models.IsScheduleStatus(filter.Status) {
			return nil, fmt.Errorf("invalid status: %s", filter.Status)
		}
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	if filter.JobID > 0 {
		q = q.Where(sq.Eq{"job_id": filter.JobID})
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build schedule list: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	res := make([]*models.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule rows: %w", err)
	}
	return res, nil
}

// ClaimDue atomically selects due pending rows (publish_at <= now, oldest
// first, capped at limit) and flips them to queued in the same statement.
// FOR UPDATE SKIP LOCKED makes the claim exclusive per row without blocking:
// a concurrent claimant simply does not see rows locked by another in-flight
// claim, so the union of concurrent claims is always a partition.
func (r *ScheduleRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.Schedule, error) {
	if limit <= 0 {
		limit = 20
	}

	patch, err := json.Marshal(models.Metadata{
		"last_enqueued_at": now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal claim metadata: %w", err)
	}

	rows, err := r.db.Query(ctx, `
WITH due AS (
    SELECT id
    FROM ai_content_schedules
    WHERE status = 'pending' AND publish_at <= $1
    ORDER BY publish_at ASC
    FOR UPDATE SKIP LOCKED
    LIMIT $2
)
UPDATE ai_content_schedules s
SET status = 'queued',
    metadata = COALESCE(s.metadata, '{}'::jsonb) || $3::jsonb,
    updated_at = NOW()
FROM due
WHERE s.id = due.id
RETURNING s.id, s.job_id, s.platform, s.status, s.publish_at, s.metadata, s.created_at, s.updated_at
`, now.UTC(), limit, patch)
	if err != nil {
		return nil, fmt.Errorf("claim due schedules: %w", err)
	}
	defer rows.Close()

	res := make([]*models.Schedule, 0, limit)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claimed row: %w", err)
		}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claimed rows: %w", err)
	}

	// UPDATE ... RETURNING carries no ordering guarantee, restore oldest-first.
	sort.Slice(res, func(i, j int) bool {
		if res[i].PublishAt.Equal(res[j].PublishAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].PublishAt.Before(res[j].PublishAt)
	})
	return res, nil
}

// UpdateStatus transitions a single row along a legal state-machine edge and
// merges patch into its metadata. The allowed source statuses are derived
// from the transition table, so an illegal request never touches the row.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, id int, newStatus string, patch models.Metadata) (*models.Schedule, error) {
	if !models.IsScheduleStatus(newStatus) {
		return nil, fmt.Errorf("unknown status %q: %w", newStatus, ErrInvalidTransition)
	}
	from := models.TransitionSources(newStatus)
	if len(from) == 0 {
		return nil, fmt.Errorf("no transition leads to %q: %w", newStatus, ErrInvalidTransition)
	}

	return r.guardedUpdate(ctx, id, newStatus, from, patch)
}

// Cancel is permitted only from pending or queued and records the actor.
// Canceling an already-canceled row is a no-op success.
func (r *ScheduleRepository) Cancel(ctx context.Context, id int, actor string) (*models.Schedule, error) {
	if actor == "" {
		actor = "unknown"
	}
	patch := models.Metadata{
		"canceled_by": actor,
		"canceled_at": time.Now().UTC().Format(time.RFC3339),
	}

	s, err := r.guardedUpdate(ctx, id, models.ScheduleStatusCanceled,
		[]string{models.ScheduleStatusPending, models.ScheduleStatusQueued}, patch)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, ErrInvalidTransition) {
		cur, getErr := r.Get(ctx, id)
		if getErr == nil && cur.Status == models.ScheduleStatusCanceled {
			return cur, nil
		}
	}
	return nil, err
}

// Retry resets an errored schedule to pending for re-claim. The recorded
// failure is removed so the next attempt starts clean; retry_count stays for
// operator visibility.
func (r *ScheduleRepository) Retry(ctx context.Context, id int) (*models.Schedule, error) {
	patch, err := json.Marshal(models.Metadata{
		"retried_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal retry metadata: %w", err)
	}

	q := r.sb.
		Update("ai_content_schedules").
		Set("status", models.ScheduleStatusPending).
		Set("metadata", sq.Expr("(COALESCE(metadata, '{}'::jsonb) - 'last_error') || ?::jsonb", patch)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": models.ScheduleStatusError}).
		Suffix("RETURNING " + scheduleColumns)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build retry: %w", err)
	}

	s, err := scanSchedule(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.explainMiss(ctx, id)
		}
		return nil, fmt.Errorf("retry schedule: %w", err)
	}
	return s, nil
}

// Reschedule moves publish_at while the row is still pending.
func (r *ScheduleRepository) Reschedule(ctx context.Context, id int, publishAt time.Time) (*models.Schedule, error) {
	if publishAt.IsZero() {
		return nil, fmt.Errorf("publish_at is zero")
	}

	q := r.sb.
		Update("ai_content_schedules").
		Set("publish_at", publishAt.UTC()).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": models.ScheduleStatusPending}).
		Suffix("RETURNING " + scheduleColumns)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reschedule: %w", err)
	}

	s, err := scanSchedule(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.explainMiss(ctx, id)
		}
		return nil, fmt.Errorf("reschedule: %w", err)
	}
	return s, nil
}

// ReleaseStuck resets queued/publishing rows whose last update is older than
// the staleness threshold back to pending so a later tick can re-claim them.
// This is the recovery path for a dispatcher that died mid-delivery.
func (r *ScheduleRepository) ReleaseStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, nil
	}

	patch, err := json.Marshal(models.Metadata{
		"released_at":   time.Now().UTC().Format(time.RFC3339),
		"release_note":  "stuck past staleness threshold, reset for re-claim",
		"stale_seconds": int(olderThan.Seconds()),
	})
	if err != nil {
		return 0, fmt.Errorf("marshal release metadata: %w", err)
	}

	q := r.sb.
		Update("ai_content_schedules").
		Set("status", models.ScheduleStatusPending).
		Set("metadata", sq.Expr("COALESCE(metadata, '{}'::jsonb) || ?::jsonb", patch)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"status": []string{models.ScheduleStatusQueued, models.ScheduleStatusPublishing}}).
		Where(sq.Expr("updated_at < NOW() - (? * INTERVAL '1 second')", int(olderThan.Seconds())))

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build release stuck: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("release stuck schedules: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ScheduleRepository) guardedUpdate(ctx context.Context, id int, newStatus string, from []string, patch models.Metadata) (*models.Schedule, error) {
	if patch == nil {
		patch = models.Metadata{}
	}
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata patch: %w", err)
	}

	q := r.sb.
		Update("ai_content_schedules").
		Set("status", newStatus).
		Set("metadata", sq.Expr("COALESCE(metadata, '{}'::jsonb) || ?::jsonb", patchJSON)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "status": from}).
		Suffix("RETURNING " + scheduleColumns)

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status update: %w", err)
	}

	s, err := scanSchedule(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.explainMiss(ctx, id)
		}
		return nil, fmt.Errorf("update schedule status: %w", err)
	}
	return s, nil
}

// explainMiss distinguishes "row does not exist" from "row exists in a state
// the guard excluded" after a guarded update matched nothing.
func (r *ScheduleRepository) explainMiss(ctx context.Context, id int) error {
	cur, err := r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return fmt.Errorf("schedule %d is %s: %w", id, cur.Status, ErrInvalidTransition)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*models.Schedule, error) {
	var (
		s        models.Schedule
		id       int64
		jobID    int64
		metaJSON []byte
	)
	if err := row.Scan(
		&id,
		&jobID,
		&s.Platform,
		&s.Status,
		&s.PublishAt,
		&metaJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	s.ID = int(id)
	s.JobID = int(jobID)
	s.PublishAt = s.PublishAt.UTC()

	s.Metadata = models.Metadata{}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &s.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &s, nil
}
