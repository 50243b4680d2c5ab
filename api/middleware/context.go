package middleware

import (
	"context"

	"github.com/angelmondragon/chipledger-backend/pkg/auth"
)

type contextKey string

const ctxOrganizer contextKey = "organizer"

// OrganizerFromContext returns the organizer claims set by the Auth
// middleware, or nil when the request is unauthenticated.
func OrganizerFromContext(ctx context.Context) *auth.OrganizerTokenClaims {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxOrganizer).(*auth.OrganizerTokenClaims); ok {
		return v
	}
	return nil
}

// WithOrganizer injects organizer claims into the context.
func WithOrganizer(ctx context.Context, claims *auth.OrganizerTokenClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOrganizer, claims)
}
