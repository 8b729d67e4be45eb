package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/repository"
	"github.com/maheshrc27/igpublisher/internal/transfer"
	"github.com/maheshrc27/igpublisher/pkg/utils"
)

// AccountService is the registry of connected social accounts.
type AccountService interface {
	Connect(ctx context.Context, p models.Principal, info *transfer.InstagramUserInfo, token *transfer.InstagramToken) (*models.SocialAccount, error)
	Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.SocialAccount, error)
	List(ctx context.Context, p models.Principal) ([]*models.SocialAccount, error)
	UpdateToken(ctx context.Context, id uuid.UUID, accessToken string, expiresAt time.Time) error
	MarkExpired(ctx context.Context, id uuid.UUID) error
	Disconnect(ctx context.Context, p models.Principal, id uuid.UUID) error
	Delete(ctx context.Context, p models.Principal, id uuid.UUID) error
	AccessToken(account *models.SocialAccount) (string, error)
	RefreshExpiring(ctx context.Context) (RefreshResult, error)
}

type RefreshResult struct {
	Refreshed int `json:"refreshed"`
	Expired   int `json:"expired"`
	Failed    int `json:"failed"`
}

type accountService struct {
	sa            repository.SocialAccountRepository
	ig            InstagramService
	cipher        *utils.TokenCipher
	refreshWindow time.Duration
	now           Clock
}

func NewAccountService(
	sa repository.SocialAccountRepository,
	ig InstagramService,
	cipher *utils.TokenCipher,
	refreshWindow time.Duration,
	now Clock) AccountService {
	if now == nil {
		now = systemClock
	}
	return &accountService{
		sa:            sa,
		ig:            ig,
		cipher:        cipher,
		refreshWindow: refreshWindow,
		now:           now,
	}
}

// Connect links (or re-links) the Instagram account to the principal. The
// token is encrypted before it is stored.
func (s *accountService) Connect(ctx context.Context, p models.Principal, info *transfer.InstagramUserInfo, token *transfer.InstagramToken) (*models.SocialAccount, error) {
	if p.UserID == "" {
		return nil, models.ErrUnauthorized
	}
	if info == nil || info.AccountID() == "" {
		return nil, models.NewValidationError("account", "instagram profile has no account id")
	}
	if token == nil || token.AccessToken == "" {
		return nil, models.NewValidationError("token", "instagram returned no access token")
	}

	encrypted, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return nil, err
	}

	name := info.Name
	if name == "" {
		name = info.Username
	}

	return s.sa.Upsert(ctx, &models.SocialAccount{
		ID:              uuid.New(),
		UserID:          p.UserID,
		OrgID:           p.OrgID,
		Platform:        models.PlatformInstagram,
		AccountID:       info.AccountID(),
		AccountName:     name,
		AccountUsername: info.Username,
		ProfilePicture:  info.ProfilePicture,
		AccessToken:     encrypted,
		TokenExpiresAt:  token.ExpiresAt,
		Status:          models.AccountStatusActive,
	})
}

func (s *accountService) Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.SocialAccount, error) {
	account, err := s.sa.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, account.UserID, account.OrgID); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountService) List(ctx context.Context, p models.Principal) ([]*models.SocialAccount, error) {
	if p.UserID == "" {
		return nil, models.ErrUnauthorized
	}
	return s.sa.ListByOwner(ctx, p)
}

func (s *accountService) UpdateToken(ctx context.Context, id uuid.UUID, accessToken string, expiresAt time.Time) error {
	encrypted, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return err
	}
	return s.sa.SetToken(ctx, id, encrypted, expiresAt)
}

func (s *accountService) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return s.sa.SetStatus(ctx, id, models.AccountStatusExpired)
}

func (s *accountService) Disconnect(ctx context.Context, p models.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	return s.sa.SetStatus(ctx, id, models.AccountStatusDisconnected)
}

func (s *accountService) Delete(ctx context.Context, p models.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	return s.sa.Remove(ctx, id)
}

func (s *accountService) AccessToken(account *models.SocialAccount) (string, error) {
	return s.cipher.Decrypt(account.AccessToken)
}

// RefreshExpiring extends every active Instagram token that expires within the
// refresh window. Tokens already past expiry cannot be refreshed and the
// account is marked EXPIRED.
func (s *accountService) RefreshExpiring(ctx context.Context) (RefreshResult, error) {
	now := s.now()
	accounts, err := s.sa.ListExpiring(ctx, models.PlatformInstagram, now.Add(s.refreshWindow))
	if err != nil {
		return RefreshResult{}, err
	}

	var (
		result RefreshResult
		mu     sync.Mutex
		wg     sync.WaitGroup
	)
	semaphore := make(chan struct{}, 10)

	record := func(f func(r *RefreshResult)) {
		mu.Lock()
		f(&result)
		mu.Unlock()
	}
	defer func() {
		tokenRefreshTotal.WithLabelValues("refreshed").Add(float64(result.Refreshed))
		tokenRefreshTotal.WithLabelValues("expired").Add(float64(result.Expired))
		tokenRefreshTotal.WithLabelValues("failed").Add(float64(result.Failed))
	}()

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if acc.TokenExpired(now) {
				if err := s.MarkExpired(ctx, acc.ID); err != nil {
					record(func(r *RefreshResult) { r.Failed++ })
					return
				}
				record(func(r *RefreshResult) { r.Expired++ })
				return
			}

			if err := s.refresh(ctx, acc); err != nil {
				slog.Info("unable to refresh instagram token", "account_id", acc.ID, "error", err)
				var graphErr *transfer.GraphError
				if errors.As(err, &graphErr) && graphErr.TokenInvalid() {
					if err := s.MarkExpired(ctx, acc.ID); err == nil {
						record(func(r *RefreshResult) { r.Expired++ })
						return
					}
				}
				record(func(r *RefreshResult) { r.Failed++ })
				return
			}
			record(func(r *RefreshResult) { r.Refreshed++ })
		}(acc)
	}

	wg.Wait()
	return result, nil
}

func (s *accountService) refresh(ctx context.Context, acc *models.SocialAccount) error {
	current, err := s.AccessToken(acc)
	if err != nil {
		return err
	}
	token, err := s.ig.RefreshToken(ctx, current)
	if err != nil {
		return err
	}
	return s.UpdateToken(ctx, acc.ID, token.AccessToken, token.ExpiresAt)
}
