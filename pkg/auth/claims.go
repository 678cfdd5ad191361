package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stashspot/stashspot-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	CustomerID uuid.UUID
	Email      string
	Role       enums.ActorRole
}

// AccessTokenClaims represents the typed JWT issued to portal and staff clients.
type AccessTokenClaims struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	Email      string          `json:"email,omitempty"`
	Role       enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
