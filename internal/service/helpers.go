package service

import (
	"time"

	"github.com/maheshrc27/igpublisher/internal/models"
)

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// authorize returns ErrNotFound rather than ErrForbidden so that resource
// ids owned by other tenants are not disclosed.
func authorize(p models.Principal, ownerUserID, ownerOrgID string) error {
	if p.UserID == "" {
		return models.ErrUnauthorized
	}
	if !p.CanAccess(ownerUserID, ownerOrgID) {
		return models.ErrNotFound
	}
	return nil
}
