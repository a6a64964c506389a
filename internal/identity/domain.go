package identity

import (
	"github.com/golang-jwt/jwt/v5"
)

// Principal is the resolved user context consumed by permission checks.
// It mirrors the shape returned by the current-user-info lookup: role flags
// plus the role row the user is attached to, if any.
type Principal struct {
	UserID       int64
	AuthUserID   string
	Email        string
	FullName     string
	RoleID       int64
	RoleName     string
	RoleType     string
	IsAdmin      bool
	IsSuperAdmin bool
	IsCaseWorker bool
	IsCitizen    bool
	IsActive     bool
}

// Claims carries the JWT claims accepted by the bearer middleware. Token
// issuance belongs to the external identity provider; only the subject and
// the token id are consumed here.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
