package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/tweet-scheduler/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	List(ctx context.Context) ([]*models.ScheduledPost, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error)
	CreateBatch(ctx context.Context, tx *sql.Tx, posts []*models.ScheduledPost) ([]int64, error)
	QueryDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	Claim(ctx context.Context, id int64, now time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status, externalPostID, errorMessage string) error
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)
	UpdateContent(ctx context.Context, post *models.ScheduledPost) error
	Cancel(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
	RemoveAll(ctx context.Context) (int64, error)
}

type postRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db, now: time.Now}
}

const postColumns = `id, text, media_refs, community_id, scheduled_time, status, external_post_id, error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.ScheduledPost, error) {
	var (
		post                                  models.ScheduledPost
		mediaRefs                             string
		communityID, externalID, errorMessage sql.NullString
	)
	err := row.Scan(&post.ID, &post.Text, &mediaRefs, &communityID, &post.ScheduledTime, &post.Status,
		&externalID, &errorMessage, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	refs, err := decodeMediaRefs(mediaRefs)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", post.ID, err)
	}
	post.MediaRefs = refs
	post.CommunityID = communityID.String
	post.ExternalPostID = externalID.String
	post.ErrorMessage = errorMessage.String
	post.ScheduledTime = post.ScheduledTime.UTC()
	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()
	return &post, nil
}

func encodeMediaRefs(refs []string) (string, error) {
	if len(refs) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMediaRefs(raw string) ([]string, error) {
	refs := []string{}
	if raw == "" {
		return refs, nil
	}
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil, fmt.Errorf("decode media refs: %w", err)
	}
	return refs, nil
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.ScheduledPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []*models.ScheduledPost{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts ORDER BY created_at DESC, id DESC`
	return r.queryPosts(ctx, query)
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (text, media_refs, community_id, scheduled_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	mediaRefs, err := encodeMediaRefs(post.MediaRefs)
	if err != nil {
		return 0, err
	}
	status := post.Status
	if status == "" {
		status = models.PostStatusScheduled
	}
	now := dbTime(r.now())
	args := []any{post.Text, mediaRefs, nullString(post.CommunityID), dbTime(post.ScheduledTime), status, now, now}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) CreateBatch(ctx context.Context, tx *sql.Tx, posts []*models.ScheduledPost) ([]int64, error) {
	ids := make([]int64, 0, len(posts))
	for _, post := range posts {
		id, err := r.Create(ctx, tx, post)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// QueryDue returns waiting posts whose time has come, oldest first.
func (r *postRepository) QueryDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts
		WHERE status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time ASC, id ASC`
	return r.queryPosts(ctx, query, models.PostStatusScheduled, dbTime(now))
}

// Claim moves a due post from scheduled to in_progress. It reports false when
// another invocation got there first or the post is no longer due.
func (r *postRepository) Claim(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `
		UPDATE scheduled_posts SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND scheduled_time <= $2
	`

	res, err := r.db.ExecContext(ctx, query, models.PostStatusInProgress, dbTime(now), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return n == 1, nil
}

// UpdateStatus writes a delivery outcome. Only status, external id, error
// message and updated_at are touched, and only while the post is still
// waiting or claimed.
func (r *postRepository) UpdateStatus(ctx context.Context, id int64, status, externalPostID, errorMessage string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1, external_post_id = $2, error_message = $3, updated_at = $4
		WHERE id = $5 AND status IN ($6, $7)
	`

	res, err := r.db.ExecContext(ctx, query, status, nullString(externalPostID), nullString(errorMessage),
		dbTime(r.now()), id, models.PostStatusScheduled, models.PostStatusInProgress)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(res)
}

// RequeueStale returns posts stuck in in_progress since before cutoff to
// scheduled so the next run picks them up again.
func (r *postRepository) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE scheduled_posts SET status = $1, updated_at = $2
		WHERE status = $3 AND updated_at < $4
	`

	res, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, dbTime(r.now()),
		models.PostStatusInProgress, dbTime(cutoff))
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateContent replaces the editable fields and puts the post back in the
// queue with its previous outcome cleared.
func (r *postRepository) UpdateContent(ctx context.Context, post *models.ScheduledPost) error {
	query := `
		UPDATE scheduled_posts
		SET text = $1, media_refs = $2, community_id = $3, scheduled_time = $4,
			status = $5, external_post_id = NULL, error_message = NULL, updated_at = $6
		WHERE id = $7 AND status IN ($5, $8)
	`

	mediaRefs, err := encodeMediaRefs(post.MediaRefs)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, post.Text, mediaRefs, nullString(post.CommunityID),
		dbTime(post.ScheduledTime), models.PostStatusScheduled, dbTime(r.now()), post.ID, models.PostStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(res)
}

func (r *postRepository) Cancel(ctx context.Context, id int64) error {
	query := `UPDATE scheduled_posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	res, err := r.db.ExecContext(ctx, query, models.PostStatusCancelled, dbTime(r.now()), id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(res)
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM scheduled_posts WHERE id = $1 AND status <> $2`

	res, err := r.db.ExecContext(ctx, query, id, models.PostStatusInProgress)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOneRow(res)
}

func (r *postRepository) RemoveAll(ctx context.Context) (int64, error) {
	query := `DELETE FROM scheduled_posts WHERE status <> $1`

	res, err := r.db.ExecContext(ctx, query, models.PostStatusInProgress)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}
