package models

// Principal is the verified caller as reported by the identity provider.
type Principal struct {
	UserID string
	OrgID  string
}

// CanAccess reports whether the principal may read or change a resource owned
// by ownerUserID within ownerOrgID. Organization members share resources;
// callers without an organization only see their own.
func (p Principal) CanAccess(ownerUserID, ownerOrgID string) bool {
	if p.UserID == "" {
		return false
	}
	if p.OrgID != "" {
		return p.OrgID == ownerOrgID
	}
	return ownerOrgID == "" && p.UserID == ownerUserID
}
