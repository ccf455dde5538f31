package repository

import (
	"context"
	"errors"
	"fmt"

	"teamops/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	if job.Title == "" {
		return fmt.Errorf("title is empty")
	}
	if job.Status == "" {
		job.Status = models.JobStatusDraft
	}

	q := r.sb.
		Insert("ai_content_jobs").
		Columns("profile_id", "title", "keywords", "content_type", "brief", "extra", "generated_content", "status", "updated_at").
		Values(job.ProfileID, job.Title, job.Keywords, job.ContentType, job.Brief, job.Extra, job.GeneratedContent, job.Status, sq.Expr("NOW()")).
		Suffix("RETURNING id, created_at")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build job insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&id, &job.CreatedAt); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	job.ID = int(id)
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id int) (*models.Job, error) {
	q := r.sb.
		Select("id", "profile_id", "title", "keywords", "content_type", "brief", "extra", "generated_content", "status", "created_at", "updated_at").
		From("ai_content_jobs").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build job select: %w", err)
	}

	j, err := scanJob(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// List returns the most recent jobs joined with their profile name.
func (r *JobRepository) List(ctx context.Context, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	q := r.sb.
		Select(
			"j.id", "j.profile_id", "j.title", "j.keywords", "j.content_type",
			"j.brief", "j.extra", "j.generated_content", "j.status",
			"j.created_at", "j.updated_at", "COALESCE(p.name, '')",
		).
		From("ai_content_jobs j").
		LeftJoin("ai_content_profiles p ON p.id = j.profile_id").
		OrderBy("COALESCE(j.updated_at, j.created_at) DESC", "j.id DESC").
		Limit(uint64(limit))

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build job list: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	res := make([]*models.Job, 0, limit)
	for rows.Next() {
		var (
			j         models.Job
			id        int64
			profileID pgtype.Int8
			updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&id,
			&profileID,
			&j.Title,
			&j.Keywords,
			&j.ContentType,
			&j.Brief,
			&j.Extra,
			&j.GeneratedContent,
			&j.Status,
			&j.CreatedAt,
			&updatedAt,
			&j.ProfileName,
		); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}

		j.ID = int(id)
		if profileID.Valid {
			pid := int(profileID.Int64)
			j.ProfileID = &pid
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			j.UpdatedAt = &t
		}
		res = append(res, &j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job rows: %w", err)
	}
	return res, nil
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		j         models.Job
		id        int64
		profileID pgtype.Int8
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&id,
		&profileID,
		&j.Title,
		&j.Keywords,
		&j.ContentType,
		&j.Brief,
		&j.Extra,
		&j.GeneratedContent,
		&j.Status,
		&j.CreatedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	j.ID = int(id)
	if profileID.Valid {
		pid := int(profileID.Int64)
		j.ProfileID = &pid
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		j.UpdatedAt = &t
	}
	return &j, nil
}
