package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/DenysVerbitskyi/verba-store/pkg/enums"
)

// AdminTokenPayload captures the data available when minting an admin JWT.
type AdminTokenPayload struct {
	UserID   uuid.UUID
	Username string
}

// AdminTokenClaims represents the typed JWT issued to admin panel users.
type AdminTokenClaims struct {
	UserID   uuid.UUID       `json:"user_id"`
	Username string          `json:"username"`
	Type     enums.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// CustomerTokenClaims represents the stateless session minted after a
// successful code verification. Validity is purely signature plus expiry.
type CustomerTokenClaims struct {
	Email string          `json:"email"`
	Type  enums.TokenType `json:"type"`
	jwt.RegisteredClaims
}
