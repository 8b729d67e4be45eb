package models

import (
	"time"

	"github.com/google/uuid"
)

// ContainerTTL is how long Meta keeps an unpublished media container.
const ContainerTTL = 24 * time.Hour

type ContainerStatus string

const (
	ContainerStatusPending    ContainerStatus = "PENDING"
	ContainerStatusInProgress ContainerStatus = "IN_PROGRESS"
	ContainerStatusFinished   ContainerStatus = "FINISHED"
	ContainerStatusExpired    ContainerStatus = "EXPIRED"
	ContainerStatusError      ContainerStatus = "ERROR"
)

func (s ContainerStatus) Terminal() bool {
	return s == ContainerStatusExpired || s == ContainerStatusError
}

type MediaContainer struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	PostID         uuid.UUID       `db:"post_id" json:"post_id"`
	AccountID      uuid.UUID       `db:"account_id" json:"account_id"`
	ExternalID     string          `db:"external_id" json:"external_id"`
	IsCarouselItem bool            `db:"is_carousel_item" json:"is_carousel_item"`
	Status         ContainerStatus `db:"status" json:"status"`
	StatusDetail   string          `db:"status_detail" json:"status_detail,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	ExpiresAt      time.Time       `db:"expires_at" json:"expires_at"`
	CheckedAt      *time.Time      `db:"checked_at" json:"checked_at,omitempty"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

func NewMediaContainer(postID, accountID uuid.UUID, externalID string, carouselItem bool, now time.Time) *MediaContainer {
	return &MediaContainer{
		ID:             uuid.New(),
		PostID:         postID,
		AccountID:      accountID,
		ExternalID:     externalID,
		IsCarouselItem: carouselItem,
		Status:         ContainerStatusPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ContainerTTL),
		UpdatedAt:      now,
	}
}

// ParseRemoteStatus maps a Graph API status_code onto a container status.
// PUBLISHED means the container was already consumed; it is still usable
// information for the caller, so it maps to FINISHED.
func ParseRemoteStatus(code string) ContainerStatus {
	switch code {
	case "IN_PROGRESS":
		return ContainerStatusInProgress
	case "FINISHED", "PUBLISHED":
		return ContainerStatusFinished
	case "EXPIRED":
		return ContainerStatusExpired
	case "ERROR":
		return ContainerStatusError
	default:
		return ContainerStatusPending
	}
}

// Observe applies a remote status reading taken at now. Terminal statuses are
// sticky and the 24h expiry wins over whatever the remote side reports.
func (c *MediaContainer) Observe(remote ContainerStatus, detail string, now time.Time) {
	checked := now
	c.CheckedAt = &checked
	c.UpdatedAt = now

	if c.Status.Terminal() {
		return
	}
	if !now.Before(c.ExpiresAt) {
		c.Status = ContainerStatusExpired
		c.StatusDetail = "container expired"
		return
	}
	c.Status = remote
	c.StatusDetail = detail
}
