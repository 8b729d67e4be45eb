package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maheshrc27/igpublisher/internal/models"
)

const postColumns = `id, user_id, org_id, account_id, caption, media_urls, media_type, scheduled_for,
	timezone, status, error_message, published_media_id, published_at, created_at, updated_at`

// PostFilter narrows a post listing. Zero values are ignored.
type PostFilter struct {
	Status    models.PostStatus
	AccountID uuid.UUID
	From      time.Time
	To        time.Time
	Limit     int
}

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	List(ctx context.Context, owner models.Principal, f PostFilter) ([]*models.Post, error)
	UpdatePending(ctx context.Context, p *models.Post) error
	Transition(ctx context.Context, id uuid.UUID, to models.PostStatus, from ...models.PostStatus) error
	MarkPublished(ctx context.Context, id uuid.UUID, mediaID string, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error)
	CountInWindow(ctx context.Context, accountID uuid.UUID, from, to time.Time, exclude uuid.UUID) (int, error)
	FailStuck(ctx context.Context, claimedBefore time.Time, message string) (int64, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, p *models.Post) error {
	query := `
		INSERT INTO posts (
			id, user_id, org_id, account_id, caption, media_urls, media_type,
			scheduled_for, timezone, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		p.OrgID,
		p.AccountID,
		p.Caption,
		p.MediaURLs,
		p.MediaType,
		p.ScheduledFor,
		p.Timezone,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var p models.Post
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *postRepository) List(ctx context.Context, owner models.Principal, f PostFilter) ([]*models.Post, error) {
	where, args := ownerClause(owner, 1)
	conds := []string{where}

	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.AccountID != uuid.Nil {
		args = append(args, f.AccountID)
		conds = append(conds, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("scheduled_for >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("scheduled_for < $%d", len(args)))
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY scheduled_for`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	posts := []*models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// UpdatePending rewrites the editable fields of a post that is still PENDING.
func (r *postRepository) UpdatePending(ctx context.Context, p *models.Post) error {
	query := `
		UPDATE posts
		SET account_id = $2, caption = $3, media_urls = $4, media_type = $5,
			scheduled_for = $6, timezone = $7, updated_at = $8
		WHERE id = $1 AND status = $9
	`
	res, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.AccountID,
		p.Caption,
		p.MediaURLs,
		p.MediaType,
		p.ScheduledFor,
		p.Timezone,
		p.UpdatedAt,
		models.PostStatusPending,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOne(res, models.ErrInvalidTransition)
}

// Transition moves a post to status `to` only if it is currently in one of
// `from`. A row that was concurrently moved elsewhere yields ErrInvalidTransition.
func (r *postRepository) Transition(ctx context.Context, id uuid.UUID, to models.PostStatus, from ...models.PostStatus) error {
	for _, f := range from {
		if !models.CanTransition(f, to) {
			return models.ErrInvalidTransition
		}
	}

	query := `UPDATE posts SET status = $2, updated_at = NOW() WHERE id = $1 AND status = ANY($3)`
	res, err := r.db.ExecContext(ctx, query, id, to, pq.Array(statusStrings(from)))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOne(res, models.ErrInvalidTransition)
}

func (r *postRepository) MarkPublished(ctx context.Context, id uuid.UUID, mediaID string, at time.Time) error {
	query := `
		UPDATE posts
		SET status = $2, published_media_id = $3, published_at = $4, error_message = '', updated_at = NOW()
		WHERE id = $1 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, id, models.PostStatusPublished, mediaID, at, models.PostStatusProcessing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOne(res, models.ErrInvalidTransition)
}

func (r *postRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE posts
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, id, models.PostStatusFailed, message, models.PostStatusProcessing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOne(res, models.ErrInvalidTransition)
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for
		LIMIT $3`

	posts := []*models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, models.PostStatusPending, now, limit); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// CountInWindow counts the account's live posts scheduled strictly inside
// (from, to). Cancelled and failed posts do not consume quota.
func (r *postRepository) CountInWindow(ctx context.Context, accountID uuid.UUID, from, to time.Time, exclude uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM posts
		WHERE account_id = $1
			AND status = ANY($2)
			AND scheduled_for > $3
			AND scheduled_for < $4
			AND id <> $5
	`
	live := []models.PostStatus{models.PostStatusPending, models.PostStatusProcessing, models.PostStatusPublished}

	var count int
	if err := r.db.GetContext(ctx, &count, query, accountID, pq.Array(statusStrings(live)), from, to, exclude); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

// FailStuck fails posts left in PROCESSING since before claimedBefore, which
// happens when a worker dies between claim and publish.
func (r *postRepository) FailStuck(ctx context.Context, claimedBefore time.Time, message string) (int64, error) {
	query := `
		UPDATE posts
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE status = $3 AND updated_at < $4
	`
	res, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, message, models.PostStatusProcessing, claimedBefore)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}

// Remove deletes a post that is PENDING, FAILED or CANCELLED. Published posts
// and posts mid-publish are kept.
func (r *postRepository) Remove(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM posts WHERE id = $1 AND status = ANY($2)`
	res, err := r.db.ExecContext(ctx, query, id, pq.Array(statusStrings(models.RemovableStatuses)))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOne(res, models.ErrInvalidTransition)
}

func statusStrings(statuses []models.PostStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
