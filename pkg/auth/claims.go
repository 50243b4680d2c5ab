package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OrganizerTokenPayload captures the data available when minting an organizer token.
type OrganizerTokenPayload struct {
	SessionID uuid.UUID
	Organizer string
	JTI       string
}

// OrganizerTokenClaims represents the typed JWT handed to a session organizer.
// It is scoped to one session; undo, confirmed cash-outs, and completion
// require it.
type OrganizerTokenClaims struct {
	SessionID uuid.UUID `json:"session_id"`
	Organizer string    `json:"organizer"`
	jwt.RegisteredClaims
}
