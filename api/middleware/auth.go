package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/chipledger-backend/api/responses"
	pkgAuth "github.com/angelmondragon/chipledger-backend/pkg/auth"
	"github.com/angelmondragon/chipledger-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/chipledger-backend/pkg/errors"
	"github.com/angelmondragon/chipledger-backend/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Auth validates the organizer bearer token and seeds the request context
// with its claims. Tokens are scoped to a single session: when the route
// carries a {sessionId} parameter it must match the token.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseOrganizerToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if sessionParam := chi.URLParam(r, "sessionId"); sessionParam != "" {
				sessionID, parseErr := uuid.Parse(sessionParam)
				if parseErr == nil && sessionID != claims.SessionID {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "token not valid for this session"))
					return
				}
			}

			ctx := WithOrganizer(r.Context(), claims)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, claims.SessionID.String())
				ctx = logg.WithField(ctx, "organizer", claims.Organizer)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
