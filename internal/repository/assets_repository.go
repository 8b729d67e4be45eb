package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/igpublisher/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, ma *models.MediaAsset) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error)
	ListByOwner(ctx context.Context, p models.Principal) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type mediaAssetRepository struct {
	db *sqlx.DB
}

func NewMediaAssetRepository(db *sqlx.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, ma *models.MediaAsset) error {
	query := `
		INSERT INTO media_assets (id, user_id, org_id, file_name, file_type, file_size, file_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query, ma.ID, ma.UserID, ma.OrgID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL, ma.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	query := `
		SELECT id, user_id, org_id, file_name, file_type, file_size, file_url, created_at
		FROM media_assets
		WHERE id = $1
	`
	var ma models.MediaAsset
	if err := r.db.GetContext(ctx, &ma, query, id); err != nil {
		return nil, notFound(err)
	}
	return &ma, nil
}

func (r *mediaAssetRepository) ListByOwner(ctx context.Context, p models.Principal) ([]*models.MediaAsset, error) {
	where, args := ownerClause(p, 1)
	query := `
		SELECT id, user_id, org_id, file_name, file_type, file_size, file_url, created_at
		FROM media_assets
		WHERE ` + where + `
		ORDER BY created_at DESC
	`
	assets := []*models.MediaAsset{}
	if err := r.db.SelectContext(ctx, &assets, query, args...); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return assets, nil
}

func (r *mediaAssetRepository) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media_assets WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return expectOne(res, models.ErrNotFound)
}
