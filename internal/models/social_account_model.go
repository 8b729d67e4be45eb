package models

import (
	"time"

	"github.com/google/uuid"
)

const PlatformInstagram = "instagram"

type AccountStatus string

const (
	AccountStatusActive       AccountStatus = "ACTIVE"
	AccountStatusExpired      AccountStatus = "EXPIRED"
	AccountStatusDisconnected AccountStatus = "DISCONNECTED"
)

type SocialAccount struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	UserID          string        `db:"user_id" json:"user_id"`
	OrgID           string        `db:"org_id" json:"org_id,omitempty"`
	Platform        string        `db:"platform" json:"platform"`
	AccountID       string        `db:"account_id" json:"account_id"`
	AccountName     string        `db:"account_name" json:"account_name"`
	AccountUsername string        `db:"account_username" json:"account_username"`
	ProfilePicture  string        `db:"profile_picture_url" json:"profile_picture"`
	AccessToken     string        `db:"access_token" json:"-"`
	TokenExpiresAt  time.Time     `db:"token_expires_at" json:"token_expires_at"`
	Status          AccountStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// CanPublish requires an active account holding an unexpired token.
func (a *SocialAccount) CanPublish(now time.Time) bool {
	return a.Status == AccountStatusActive && now.Before(a.TokenExpiresAt)
}

func (a *SocialAccount) TokenExpired(now time.Time) bool {
	return !now.Before(a.TokenExpiresAt)
}
