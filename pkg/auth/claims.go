package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	Role     enums.Role
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued by the identity service.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	Email    string     `json:"email,omitempty"`
	FullName string     `json:"full_name,omitempty"`
	Role     enums.Role `json:"role"`
	jwt.RegisteredClaims
}
