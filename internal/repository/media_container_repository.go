package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maheshrc27/igpublisher/internal/models"
)

const mediaContainerColumns = `id, post_id, account_id, external_id, is_carousel_item, status,
	status_detail, created_at, expires_at, checked_at, updated_at`

type MediaContainerRepository interface {
	Create(ctx context.Context, c *models.MediaContainer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaContainer, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]*models.MediaContainer, error)
	UpdateStatus(ctx context.Context, c *models.MediaContainer) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type mediaContainerRepository struct {
	db *sqlx.DB
}

func NewMediaContainerRepository(db *sqlx.DB) MediaContainerRepository {
	return &mediaContainerRepository{db: db}
}

func (r *mediaContainerRepository) Create(ctx context.Context, c *models.MediaContainer) error {
	query := `
		INSERT INTO media_containers (
			id, post_id, account_id, external_id, is_carousel_item, status, created_at, expires_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.PostID,
		c.AccountID,
		c.ExternalID,
		c.IsCarouselItem,
		c.Status,
		c.CreatedAt,
		c.ExpiresAt,
		c.UpdatedAt,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaContainerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaContainer, error) {
	var c models.MediaContainer
	query := `SELECT ` + mediaContainerColumns + ` FROM media_containers WHERE id = $1`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *mediaContainerRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]*models.MediaContainer, error) {
	query := `SELECT ` + mediaContainerColumns + ` FROM media_containers WHERE post_id = $1 ORDER BY created_at`

	containers := []*models.MediaContainer{}
	if err := r.db.SelectContext(ctx, &containers, query, postID); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return containers, nil
}

func (r *mediaContainerRepository) UpdateStatus(ctx context.Context, c *models.MediaContainer) error {
	query := `
		UPDATE media_containers
		SET status = $2, status_detail = $3, checked_at = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, c.ID, c.Status, c.StatusDetail, c.CheckedAt, c.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOne(res, models.ErrNotFound)
}

// ExpireStale marks every non-terminal container past its expiry as EXPIRED.
func (r *mediaContainerRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE media_containers
		SET status = $1, status_detail = 'container expired', updated_at = $2
		WHERE expires_at <= $2 AND status = ANY($3)
	`
	open := pq.Array([]string{
		string(models.ContainerStatusPending),
		string(models.ContainerStatusInProgress),
		string(models.ContainerStatusFinished),
	})
	res, err := r.db.ExecContext(ctx, query, models.ContainerStatusExpired, now, open)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}
