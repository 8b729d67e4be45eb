package service

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/igpublisher/internal/models"
)

// PlatformService drives the OAuth connect flow for social platforms.
type PlatformService interface {
	GetAuthURL(ctx context.Context, p models.Principal, platform string) (string, error)
	InstagramCallback(ctx context.Context, code, state string) (*models.SocialAccount, error)
}

type platformService struct {
	states   OAuthStateStore
	ig       InstagramService
	accounts AccountService
}

func NewPlatformService(states OAuthStateStore, ig InstagramService, accounts AccountService) PlatformService {
	return &platformService{
		states:   states,
		ig:       ig,
		accounts: accounts,
	}
}

// GetAuthURL stores a fresh state bound to the caller and returns the consent
// URL carrying it.
func (s *platformService) GetAuthURL(ctx context.Context, p models.Principal, platform string) (string, error) {
	if platform != models.PlatformInstagram {
		return "", models.NewValidationError("platform", "unsupported platform %q", platform)
	}

	state, err := s.states.Create(ctx, p, platform)
	if err != nil {
		return "", err
	}
	return s.ig.AuthCodeURL(state.State), nil
}

// InstagramCallback redeems the state before the code is exchanged.
func (s *platformService) InstagramCallback(ctx context.Context, code, state string) (*models.SocialAccount, error) {
	st, err := s.states.Consume(ctx, state)
	if err != nil {
		slog.Info("rejected oauth callback", "error", err)
		return nil, err
	}
	if st.Platform != models.PlatformInstagram {
		return nil, models.ErrStateNotFound
	}

	token, err := s.ig.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	userInfo, err := s.ig.UserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	if userInfo.UserID == "" && token.UserID != "" {
		userInfo.UserID = token.UserID
	}

	return s.accounts.Connect(ctx, st.Principal(), userInfo, token)
}
