package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/igpublisher/configs"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/transfer"
	"golang.org/x/oauth2"
)

// InstagramService talks to the Instagram Graph API on behalf of a connected
// professional account.
type InstagramService interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*transfer.InstagramToken, error)
	RefreshToken(ctx context.Context, accessToken string) (*transfer.InstagramToken, error)
	UserInfo(ctx context.Context, accessToken string) (*transfer.InstagramUserInfo, error)
	CreateContainer(ctx context.Context, igUserID, accessToken string, req transfer.ContainerRequest) (string, error)
	ContainerStatus(ctx context.Context, containerID, accessToken string) (*transfer.ContainerStatus, error)
	Publish(ctx context.Context, igUserID, creationID, accessToken string) (string, error)
	PublishingLimit(ctx context.Context, igUserID, accessToken string) (*transfer.PublishingLimit, error)
}

type instagramService struct {
	cfg    config.Instagram
	oauth  *oauth2.Config
	client *http.Client
	now    Clock
}

func NewInstagramService(cfg config.Instagram, client *http.Client, now Clock) InstagramService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if now == nil {
		now = systemClock
	}
	return &instagramService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: client,
		now:    now,
	}
}

// AuthCodeURL builds the consent URL. Instagram expects comma separated scopes.
func (ig *instagramService) AuthCodeURL(state string) string {
	return ig.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("scope", strings.Join(ig.cfg.Scopes, ",")),
	)
}

// ExchangeCode trades the authorization code for a short-lived token and
// immediately upgrades it to a long-lived (60 day) token.
func (ig *instagramService) ExchangeCode(ctx context.Context, code string) (*transfer.InstagramToken, error) {
	if code == "" {
		return nil, models.NewValidationError("code", "authorization code is empty")
	}

	short, err := ig.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, ig.client), code)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("%w: exchange code: %w", models.ErrExternal, err)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	query := url.Values{}
	query.Set("grant_type", "ig_exchange_token")
	query.Set("client_secret", ig.cfg.ClientSecret)
	query.Set("access_token", short.AccessToken)
	if err := ig.do(ctx, http.MethodGet, ig.cfg.GraphURL+"/access_token", query, nil, &result); err != nil {
		return nil, err
	}

	return &transfer.InstagramToken{
		UserID:      extraString(short, "user_id"),
		AccessToken: result.AccessToken,
		ExpiresAt:   ig.expiresAt(result.ExpiresIn),
	}, nil
}

func (ig *instagramService) RefreshToken(ctx context.Context, accessToken string) (*transfer.InstagramToken, error) {
	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	query := url.Values{}
	query.Set("grant_type", "ig_refresh_token")
	query.Set("access_token", accessToken)
	if err := ig.do(ctx, http.MethodGet, ig.cfg.GraphURL+"/refresh_access_token", query, nil, &result); err != nil {
		return nil, err
	}

	return &transfer.InstagramToken{
		AccessToken: result.AccessToken,
		ExpiresAt:   ig.expiresAt(result.ExpiresIn),
	}, nil
}

func (ig *instagramService) expiresAt(expiresIn int64) time.Time {
	return ig.now().Add(time.Duration(expiresIn) * time.Second)
}

func (ig *instagramService) UserInfo(ctx context.Context, accessToken string) (*transfer.InstagramUserInfo, error) {
	var userInfo transfer.InstagramUserInfo
	query := url.Values{}
	query.Set("fields", "user_id,username,name,account_type,profile_picture_url")
	query.Set("access_token", accessToken)
	if err := ig.do(ctx, http.MethodGet, ig.endpoint("me"), query, nil, &userInfo); err != nil {
		return nil, err
	}
	return &userInfo, nil
}

func (ig *instagramService) CreateContainer(ctx context.Context, igUserID, accessToken string, req transfer.ContainerRequest) (string, error) {
	payload := map[string]interface{}{
		"access_token": accessToken,
	}
	if req.ImageURL != "" {
		payload["image_url"] = req.ImageURL
	}
	if req.VideoURL != "" {
		payload["video_url"] = req.VideoURL
	}
	if req.MediaType != "" {
		payload["media_type"] = req.MediaType
	}
	if req.IsCarouselItem {
		payload["is_carousel_item"] = true
	} else if req.Caption != "" {
		payload["caption"] = req.Caption
	}
	if len(req.Children) > 0 {
		payload["children"] = strings.Join(req.Children, ",")
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := ig.do(ctx, http.MethodPost, ig.endpoint(igUserID, "media"), nil, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("%w: no container id returned from Instagram", models.ErrExternal)
	}
	return result.ID, nil
}

func (ig *instagramService) ContainerStatus(ctx context.Context, containerID, accessToken string) (*transfer.ContainerStatus, error) {
	var status transfer.ContainerStatus
	query := url.Values{}
	query.Set("fields", "id,status_code,status")
	query.Set("access_token", accessToken)
	if err := ig.do(ctx, http.MethodGet, ig.endpoint(containerID), query, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (ig *instagramService) Publish(ctx context.Context, igUserID, creationID, accessToken string) (string, error) {
	payload := map[string]string{
		"creation_id":  creationID,
		"access_token": accessToken,
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := ig.do(ctx, http.MethodPost, ig.endpoint(igUserID, "media_publish"), nil, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("%w: no media id returned from Instagram", models.ErrExternal)
	}
	return result.ID, nil
}

func (ig *instagramService) PublishingLimit(ctx context.Context, igUserID, accessToken string) (*transfer.PublishingLimit, error) {
	var result struct {
		Data []transfer.PublishingLimit `json:"data"`
	}
	query := url.Values{}
	query.Set("fields", "quota_usage,config")
	query.Set("access_token", accessToken)
	if err := ig.do(ctx, http.MethodGet, ig.endpoint(igUserID, "content_publishing_limit"), query, nil, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return &transfer.PublishingLimit{}, nil
	}
	return &result.Data[0], nil
}

func (ig *instagramService) endpoint(parts ...string) string {
	return strings.TrimSuffix(ig.cfg.GraphURL, "/") + "/" + ig.cfg.APIVersion + "/" + strings.Join(parts, "/")
}

// do performs one Graph API call. Non-2xx answers decode into a
// *transfer.GraphError; transport failures wrap models.ErrExternal.
func (ig *instagramService) do(ctx context.Context, method, endpoint string, query url.Values, payload any, out any) error {
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshalling payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ig.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: %w", models.ErrExternal, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: error reading response body: %w", models.ErrExternal, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr transfer.InstagramErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.Error.Message == "" {
			return &transfer.GraphError{HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		}
		graphErr := apiErr.ToGraphError(resp.StatusCode)
		slog.Info(graphErr.Error())
		return graphErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: error parsing response: %w", models.ErrExternal, err)
	}
	return nil
}

func extraString(tok *oauth2.Token, key string) string {
	switch v := tok.Extra(key).(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
