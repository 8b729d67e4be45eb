package models

import (
	"time"

	"github.com/google/uuid"
)

const OAuthStateTTL = 10 * time.Minute

type OAuthState struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	State     string     `db:"state" json:"-"`
	UserID    string     `db:"user_id" json:"user_id"`
	OrgID     string     `db:"org_id" json:"org_id"`
	Platform  string     `db:"platform" json:"platform"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
}

// IsValid is true only while the state is unused and unexpired.
func (s *OAuthState) IsValid(now time.Time) bool {
	return s.UsedAt == nil && now.Before(s.ExpiresAt)
}

func (s *OAuthState) MarkUsed(now time.Time) error {
	if s.UsedAt != nil {
		return ErrStateUsed
	}
	if !now.Before(s.ExpiresAt) {
		return ErrStateExpired
	}
	used := now
	s.UsedAt = &used
	return nil
}

func (s *OAuthState) Principal() Principal {
	return Principal{UserID: s.UserID, OrgID: s.OrgID}
}
