package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/repository"
	"github.com/maheshrc27/igpublisher/pkg/utils"
)

// OAuthStateStore issues and redeems single-use OAuth state values.
type OAuthStateStore interface {
	Create(ctx context.Context, p models.Principal, platform string) (*models.OAuthState, error)
	Consume(ctx context.Context, state string) (*models.OAuthState, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type oauthStateStore struct {
	repo repository.OAuthStateRepository
	ttl  time.Duration
	now  Clock
}

func NewOAuthStateStore(repo repository.OAuthStateRepository, ttl time.Duration, now Clock) OAuthStateStore {
	if ttl <= 0 {
		ttl = models.OAuthStateTTL
	}
	if now == nil {
		now = systemClock
	}
	return &oauthStateStore{repo: repo, ttl: ttl, now: now}
}

func (s *oauthStateStore) Create(ctx context.Context, p models.Principal, platform string) (*models.OAuthState, error) {
	if p.UserID == "" {
		return nil, models.ErrUnauthorized
	}

	token, err := utils.GenerateStateToken()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	now := s.now()
	state := &models.OAuthState{
		ID:        uuid.New(),
		State:     token,
		UserID:    p.UserID,
		OrgID:     p.OrgID,
		Platform:  platform,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *oauthStateStore) Consume(ctx context.Context, state string) (*models.OAuthState, error) {
	if state == "" {
		return nil, models.ErrStateNotFound
	}
	return s.repo.Consume(ctx, state, s.now())
}

func (s *oauthStateStore) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
