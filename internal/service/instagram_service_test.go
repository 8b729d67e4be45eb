package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	config "github.com/maheshrc27/igpublisher/configs"
	"github.com/maheshrc27/igpublisher/internal/models"
	"github.com/maheshrc27/igpublisher/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraphServer(t *testing.T, mux *http.ServeMux) (InstagramService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := config.Instagram{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.example.com/auth/instagram/callback",
		AuthURL:      server.URL + "/oauth/authorize",
		TokenURL:     server.URL + "/oauth/access_token",
		GraphURL:     server.URL,
		APIVersion:   "v21.0",
		Scopes:       []string{"instagram_business_basic", "instagram_business_content_publish"},
	}
	return NewInstagramService(cfg, server.Client(), fixedClock(testNow)), server
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestInstagramService_AuthCodeURL(t *testing.T) {
	ig, server := newGraphServer(t, http.NewServeMux())

	u, err := url.Parse(ig.AuthCodeURL("state-123"))
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/oauth/authorize", u.Scheme+"://"+u.Host+u.Path)
	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "instagram_business_basic,instagram_business_content_publish", q.Get("scope"))
}

func TestInstagramService_ExchangeCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "short", "user_id": 1784})
	})
	mux.HandleFunc("GET /access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ig_exchange_token", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "short", r.URL.Query().Get("access_token"))
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "long", "token_type": "bearer", "expires_in": 5184000})
	})
	ig, _ := newGraphServer(t, mux)

	token, err := ig.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)

	assert.Equal(t, "long", token.AccessToken)
	assert.Equal(t, "1784", token.UserID)
	assert.Equal(t, testNow.Add(60*24*time.Hour), token.ExpiresAt)
}

func TestInstagramService_ExchangeCodeRejectsEmptyCode(t *testing.T) {
	ig, _ := newGraphServer(t, http.NewServeMux())

	_, err := ig.ExchangeCode(context.Background(), "")
	assert.True(t, models.IsValidation(err))
}

func TestInstagramService_RefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /refresh_access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ig_refresh_token", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "old", r.URL.Query().Get("access_token"))
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "new", "expires_in": 3600})
	})
	ig, _ := newGraphServer(t, mux)

	token, err := ig.RefreshToken(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "new", token.AccessToken)
	assert.Equal(t, testNow.Add(time.Hour), token.ExpiresAt)
}

func TestInstagramService_UserInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v21.0/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":  "17841400000",
			"id":       "999",
			"username": "shop",
			"name":     "The Shop",
		})
	})
	ig, _ := newGraphServer(t, mux)

	info, err := ig.UserInfo(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "17841400000", info.AccountID())
	assert.Equal(t, "shop", info.Username)
}

func TestInstagramService_PublishFlow(t *testing.T) {
	var bodies []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v21.0/1784/media", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		writeJSON(w, http.StatusOK, map[string]string{"id": "container-1"})
	})
	mux.HandleFunc("GET /v21.0/container-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id,status_code,status", r.URL.Query().Get("fields"))
		writeJSON(w, http.StatusOK, map[string]string{"id": "container-1", "status_code": "FINISHED", "status": "Finished: Media has been uploaded"})
	})
	mux.HandleFunc("POST /v21.0/1784/media_publish", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "container-1", body["creation_id"])
		writeJSON(w, http.StatusOK, map[string]string{"id": "media-1"})
	})
	ig, _ := newGraphServer(t, mux)
	ctx := context.Background()

	id, err := ig.CreateContainer(ctx, "1784", "tok", transfer.ContainerRequest{ImageURL: "https://cdn.example.com/a.jpg", Caption: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "container-1", id)

	_, err = ig.CreateContainer(ctx, "1784", "tok", transfer.ContainerRequest{VideoURL: "https://cdn.example.com/b.mp4", MediaType: "VIDEO", IsCarouselItem: true, Caption: "ignored"})
	require.NoError(t, err)

	_, err = ig.CreateContainer(ctx, "1784", "tok", transfer.ContainerRequest{MediaType: "CAROUSEL", Caption: "album", Children: []string{"a", "b"}})
	require.NoError(t, err)

	require.Len(t, bodies, 3)
	assert.Equal(t, "https://cdn.example.com/a.jpg", bodies[0]["image_url"])
	assert.Equal(t, "hello", bodies[0]["caption"])
	assert.Equal(t, true, bodies[1]["is_carousel_item"])
	assert.NotContains(t, bodies[1], "caption")
	assert.Equal(t, "a,b", bodies[2]["children"])

	status, err := ig.ContainerStatus(ctx, "container-1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "FINISHED", status.StatusCode)

	mediaID, err := ig.Publish(ctx, "1784", "container-1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "media-1", mediaID)
}

func TestInstagramService_PublishingLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v21.0/1784/content_publishing_limit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{
				"quota_usage": 50,
				"config":      map[string]int{"quota_total": 50, "quota_duration": 86400},
			}},
		})
	})
	ig, _ := newGraphServer(t, mux)

	limit, err := ig.PublishingLimit(context.Background(), "1784", "tok")
	require.NoError(t, err)
	assert.Equal(t, 50, limit.QuotaUsage)
	assert.True(t, limit.Exhausted())
}

func TestInstagramService_GraphError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v21.0/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"message":    "Error validating access token",
				"type":       "OAuthException",
				"code":       190,
				"fbtrace_id": "abc",
			},
		})
	})
	mux.HandleFunc("GET /v21.0/c9", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})
	ig, _ := newGraphServer(t, mux)

	_, err := ig.UserInfo(context.Background(), "tok")
	var graphErr *transfer.GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, http.StatusBadRequest, graphErr.HTTPStatus)
	assert.True(t, graphErr.TokenInvalid())
	assert.ErrorIs(t, err, models.ErrExternal)

	_, err = ig.ContainerStatus(context.Background(), "c9", "tok")
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, http.StatusBadGateway, graphErr.HTTPStatus)
	assert.Equal(t, "upstream unavailable", graphErr.Message)
}

func TestInstagramService_EmptyContainerID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v21.0/1784/media", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{})
	})
	ig, _ := newGraphServer(t, mux)

	_, err := ig.CreateContainer(context.Background(), "1784", "tok", transfer.ContainerRequest{ImageURL: "https://cdn.example.com/a.jpg"})
	assert.ErrorIs(t, err, models.ErrExternal)
}
