package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Back-office roles. Finance staff can read everything and manage
// settlements; only admins may change commission rules.
const (
	RoleAdmin   = "admin"
	RoleFinance = "finance"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   string
}

// AccessTokenClaims represents the typed JWT issued to back-office staff.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// ValidRole reports whether role is one of the known back-office roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleFinance
}
