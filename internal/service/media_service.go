package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/repository"
	"github.com/maheshrc27/igpublisher/pkg/utils"
)

// MaxUploadSize bounds a single media upload.
const MaxUploadSize = 100 << 20

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "mp4": {}, "mov": {},
}

type MediaService interface {
	Upload(ctx context.Context, p models.Principal, fileName string, data []byte) (*models.MediaAsset, error)
	List(ctx context.Context, p models.Principal) ([]*models.MediaAsset, error)
	Delete(ctx context.Context, p models.Principal, id uuid.UUID) error
}

type mediaService struct {
	ma      repository.MediaAssetRepository
	storage ObjectStorage
	now     Clock
}

func NewMediaService(ma repository.MediaAssetRepository, storage ObjectStorage, now Clock) MediaService {
	if now == nil {
		now = systemClock
	}
	return &mediaService{ma: ma, storage: storage, now: now}
}

// Upload sniffs the content, stores it under a random key and records the
// asset. The returned FileURL can be used as a post media URL.
func (s *mediaService) Upload(ctx context.Context, p models.Principal, fileName string, data []byte) (*models.MediaAsset, error) {
	if p.UserID == "" {
		return nil, models.ErrUnauthorized
	}
	if len(data) == 0 {
		return nil, models.NewValidationError("file", "file is empty")
	}
	if len(data) > MaxUploadSize {
		return nil, models.NewValidationError("file", "file exceeds %d MB", MaxUploadSize>>20)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, models.NewValidationError("file", "unsupported file type")
	}
	if _, ok := allowedMediaTypes[kind.Extension]; !ok {
		return nil, models.NewValidationError("file", "file type %s is not allowed", kind.Extension)
	}

	key, err := utils.GenerateObjectKey("media", kind.Extension)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if err := s.storage.Upload(ctx, key, data, kind.MIME.Value); err != nil {
		return nil, err
	}

	asset := &models.MediaAsset{
		ID:        uuid.New(),
		UserID:    p.UserID,
		OrgID:     p.OrgID,
		FileName:  fileName,
		FileType:  kind.MIME.Value,
		FileSize:  int64(len(data)),
		FileURL:   s.storage.PublicURL(key),
		CreatedAt: s.now(),
	}
	if err := s.ma.Create(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *mediaService) List(ctx context.Context, p models.Principal) ([]*models.MediaAsset, error) {
	if p.UserID == "" {
		return nil, models.ErrUnauthorized
	}
	return s.ma.ListByOwner(ctx, p)
}

func (s *mediaService) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	asset, err := s.ma.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(p, asset.UserID, asset.OrgID); err != nil {
		return err
	}
	if err := s.ma.Remove(ctx, id); err != nil {
		return err
	}

	key := strings.TrimPrefix(asset.FileURL, s.storage.PublicURL(""))
	if err := s.storage.Remove(ctx, key); err != nil {
		slog.Info("unable to remove stored object", "key", key, "error", err)
	}
	return nil
}
