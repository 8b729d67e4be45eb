package transfer

import (
	"fmt"
	"time"

	"github.com/maheshrc27/igpublisher/internal/models"
)

type InstagramToken struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type InstagramUserInfo struct {
	UserID         string `json:"user_id"`
	ID             string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	AccountType    string `json:"account_type"`
	ProfilePicture string `json:"profile_picture_url"`
}

// AccountID prefers the professional account id used by the publishing endpoints.
func (u *InstagramUserInfo) AccountID() string {
	if u.UserID != "" {
		return u.UserID
	}
	return u.ID
}

// ContainerRequest describes one media container to create.
type ContainerRequest struct {
	ImageURL       string
	VideoURL       string
	MediaType      string
	Caption        string
	IsCarouselItem bool
	Children       []string
}

type ContainerStatus struct {
	ID         string `json:"id"`
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
}

type PublishingLimit struct {
	QuotaUsage int `json:"quota_usage"`
	Config     struct {
		QuotaTotal    int `json:"quota_total"`
		QuotaDuration int `json:"quota_duration"`
	} `json:"config"`
}

func (l *PublishingLimit) Exhausted() bool {
	return l.Config.QuotaTotal > 0 && l.QuotaUsage >= l.Config.QuotaTotal
}

type InstagramErrorResponse struct {
	Error struct {
		Message        string `json:"message"`
		Type           string `json:"type"`
		Code           int    `json:"code"`
		ErrorSubcode   int    `json:"error_subcode"`
		IsTransient    bool   `json:"is_transient"`
		ErrorUserTitle string `json:"error_user_title"`
		ErrorUserMsg   string `json:"error_user_msg"`
		FbtraceID      string `json:"fbtrace_id"`
	} `json:"error"`
}

// GraphError is a failed Graph API call. It unwraps to models.ErrExternal.
type GraphError struct {
	HTTPStatus int
	Message    string
	Type       string
	Code       int
	Subcode    int
	Transient  bool
	UserMsg    string
}

func (e *GraphError) Error() string {
	msg := e.Message
	if e.UserMsg != "" {
		msg = e.UserMsg
	}
	return fmt.Sprintf("instagram api error %d (status %d): %s", e.Code, e.HTTPStatus, msg)
}

func (e *GraphError) Unwrap() error {
	return models.ErrExternal
}

// TokenInvalid reports an OAuthException that requires the user to reconnect.
func (e *GraphError) TokenInvalid() bool {
	return e.Code == 190
}

func (r *InstagramErrorResponse) ToGraphError(status int) *GraphError {
	return &GraphError{
		HTTPStatus: status,
		Message:    r.Error.Message,
		Type:       r.Error.Type,
		Code:       r.Error.Code,
		Subcode:    r.Error.ErrorSubcode,
		Transient:  r.Error.IsTransient,
		UserMsg:    r.Error.ErrorUserMsg,
	}
}
