package transfer

import "github.com/golang-jwt/jwt/v5"

// CustomClaims are the claims issued by the identity provider. The subject
// carries the user id; org_id is present for organization members.
type CustomClaims struct {
	OrgID string `json:"org_id,omitempty"`
	jwt.RegisteredClaims
}
