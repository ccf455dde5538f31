package repository

import (
	"context"
	"fmt"

	"teamops/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepository struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if p.Name == "" {
		return fmt.Errorf("name is empty")
	}

	q := r.sb.
		Insert("ai_content_profiles").
		Columns("name", "tone", "voice", "target_platform", "guidelines", "updated_at").
		Values(p.Name, p.Tone, p.Voice, p.TargetPlatform, p.Guidelines, sq.Expr("NOW()")).
		Suffix("RETURNING id, created_at")

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build profile insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&id, &p.CreatedAt); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	p.ID = int(id)
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, id int) (*models.Profile, error) {
	rows, err := r.query(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	return r.query(ctx, nil)
}

func (r *ProfileRepository) Delete(ctx context.Context, id int) error {
	q := r.sb.
		Delete("ai_content_profiles").
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build profile delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) query(ctx context.Context, where any) ([]*models.Profile, error) {
	q := r.sb.
		Select("id", "name", "COALESCE(tone, '')", "COALESCE(voice, '')",
			"COALESCE(target_platform, '')", "COALESCE(guidelines, '')",
			"created_at", "updated_at").
		From("ai_content_profiles").
		OrderBy("name ASC", "id ASC")
	if where != nil {
		q = q.Where(where)
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build profile select: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	res := make([]*models.Profile, 0)
	for rows.Next() {
		var (
			p         models.Profile
			id        int64
			updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&id,
			&p.Name,
			&p.Tone,
			&p.Voice,
			&p.TargetPlatform,
			&p.Guidelines,
			&p.CreatedAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}

		p.ID = int(id)
		if updatedAt.Valid {
			t := updatedAt.Time
			p.UpdatedAt = &t
		}
		res = append(res, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile rows: %w", err)
	}
	return res, nil
}
