package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/tweet-scheduler/internal/models"
)

type CommunityTagRepository interface {
	GetByID(ctx context.Context, id int64) (*models.CommunityTag, error)
	List(ctx context.Context) ([]*models.CommunityTag, error)
	Create(ctx context.Context, tag *models.CommunityTag) (int64, error)
	Update(ctx context.Context, tag *models.CommunityTag) error
	Remove(ctx context.Context, id int64) error
}

type communityTagRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCommunityTagRepository(db *sql.DB) CommunityTagRepository {
	return &communityTagRepository{db: db, now: time.Now}
}

func scanCommunityTag(row rowScanner) (*models.CommunityTag, error) {
	var (
		tag  models.CommunityTag
		name sql.NullString
	)
	if err := row.Scan(&tag.ID, &tag.TagName, &tag.CommunityID, &name, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
		return nil, err
	}
	tag.CommunityName = name.String
	return &tag, nil
}

func (r *communityTagRepository) GetByID(ctx context.Context, id int64) (*models.CommunityTag, error) {
	query := `SELECT id, tag_name, community_id, community_name, created_at, updated_at FROM community_tags WHERE id = $1`

	tag, err := scanCommunityTag(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return tag, nil
}

func (r *communityTagRepository) List(ctx context.Context) ([]*models.CommunityTag, error) {
	query := `SELECT id, tag_name, community_id, community_name, created_at, updated_at FROM community_tags ORDER BY tag_name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	tags := []*models.CommunityTag{}
	for rows.Next() {
		tag, err := scanCommunityTag(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *communityTagRepository) Create(ctx context.Context, tag *models.CommunityTag) (int64, error) {
	query := `
		INSERT INTO community_tags (tag_name, community_id, community_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	now := dbTime(r.now())
	var id int64
	err := r.db.QueryRowContext(ctx, query, tag.TagName, tag.CommunityID, nullString(tag.CommunityName), now, now).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *communityTagRepository) Update(ctx context.Context, tag *models.CommunityTag) error {
	query := `UPDATE community_tags SET tag_name = $1, community_id = $2, community_name = $3, updated_at = $4 WHERE id = $5`

	res, err := r.db.ExecContext(ctx, query, tag.TagName, tag.CommunityID, nullString(tag.CommunityName), dbTime(r.now()), tag.ID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *communityTagRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM community_tags WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
