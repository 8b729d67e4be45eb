package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostStatus string

const (
	PostStatusPending    PostStatus = "PENDING"
	PostStatusProcessing PostStatus = "PROCESSING"
	PostStatusPublished  PostStatus = "PUBLISHED"
	PostStatusFailed     PostStatus = "FAILED"
	PostStatusCancelled  PostStatus = "CANCELLED"
)

type MediaType string

const (
	MediaTypeImage    MediaType = "IMAGE"
	MediaTypeVideo    MediaType = "VIDEO"
	MediaTypeReels    MediaType = "REELS"
	MediaTypeCarousel MediaType = "CAROUSEL"
)

func (m MediaType) Valid() bool {
	switch m {
	case MediaTypeImage, MediaTypeVideo, MediaTypeReels, MediaTypeCarousel:
		return true
	}
	return false
}

var postTransitions = map[PostStatus][]PostStatus{
	PostStatusPending:    {PostStatusProcessing, PostStatusCancelled},
	PostStatusProcessing: {PostStatusPublished, PostStatusFailed},
	PostStatusFailed:     {PostStatusCancelled},
}

// CanTransition reports whether a post may move from one status to another.
// PUBLISHED and CANCELLED have no outgoing edges.
func CanTransition(from, to PostStatus) bool {
	for _, next := range postTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusCancelled
}

// RemovableStatuses are the statuses a post may be hard-deleted from. A post
// that is PROCESSING may already exist on Instagram.
var RemovableStatuses = []PostStatus{PostStatusPending, PostStatusFailed, PostStatusCancelled}

func (s PostStatus) Removable() bool {
	for _, r := range RemovableStatuses {
		if s == r {
			return true
		}
	}
	return false
}

type Post struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	UserID           string         `db:"user_id" json:"user_id"`
	OrgID            string         `db:"org_id" json:"org_id,omitempty"`
	AccountID        uuid.UUID      `db:"account_id" json:"account_id"`
	Caption          string         `db:"caption" json:"caption"`
	MediaURLs        pq.StringArray `db:"media_urls" json:"media_urls"`
	MediaType        MediaType      `db:"media_type" json:"media_type"`
	ScheduledFor     time.Time      `db:"scheduled_for" json:"scheduled_for"`
	Timezone         string         `db:"timezone" json:"timezone"`
	Status           PostStatus     `db:"status" json:"status"`
	ErrorMessage     string         `db:"error_message" json:"error_message,omitempty"`
	PublishedMediaID string         `db:"published_media_id" json:"published_media_id,omitempty"`
	PublishedAt      *time.Time     `db:"published_at" json:"published_at,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Transition moves the post to the given status if the state machine allows it.
func (p *Post) Transition(to PostStatus) error {
	if !CanTransition(p.Status, to) {
		return ErrInvalidTransition
	}
	p.Status = to
	return nil
}

func (p *Post) Due(now time.Time) bool {
	return p.Status == PostStatusPending && !p.ScheduledFor.After(now)
}
