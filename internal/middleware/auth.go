package middleware

import (
	"context"
	"net/http"

	"firesafety-backend/internal/auth"
	"firesafety-backend/internal/models"
	"firesafety-backend/pkg/utils"

	"github.com/rs/zerolog/log"
)

type contextKey string

const UserContextKey contextKey = "user"

// SessionTokenHeader carries a re-issued access token on every authenticated
// response. Clients replace their stored token with it.
const SessionTokenHeader = "X-Session-Token"

// SessionSource reports the locally persisted session. *storage.Store
// satisfies it.
type SessionSource interface {
	LoadSession(ctx context.Context) (*models.User, error)
}

// Auth validates the bearer token (or ?token= for WebSocket upgrades) and
// requires a live local session for the same technician. Loading the
// session slides its expiry window, and the token is re-issued so it
// follows the session instead of the original login time.
func Auth(tokens *auth.TokenManager, sessions SessionSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				var err error
				tokenString, err = auth.ExtractToken(r.Header.Get("Authorization"))
				if err != nil {
					log.Debug().Err(err).Str("path", r.URL.Path).Msg("❌ missing bearer token")
					utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
			}

			claims, err := tokens.Validate(tokenString)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("❌ invalid token")
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			session, err := sessions.LoadSession(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("❌ failed to read session")
				utils.RespondError(w, http.StatusInternalServerError, "Failed to read session")
				return
			}
			if session == nil || session.TechnicianID != claims.TechnicianID {
				log.Info().Str("technician_id", claims.TechnicianID).Msg("🔒 no live session for token")
				utils.RespondError(w, http.StatusUnauthorized, "Session expired")
				return
			}

			if fresh, err := tokens.Issue(*session); err != nil {
				log.Warn().Err(err).Str("technician_id", session.TechnicianID).Msg("⚠️  token refresh failed")
			} else {
				w.Header().Set(SessionTokenHeader, fresh)
			}

			ctx := context.WithValue(r.Context(), UserContextKey, *session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole middleware checks if user has required role (must be used after Auth)
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if user.Role != role {
				log.Warn().
					Str("technician_id", user.TechnicianID).
					Str("required", role).
					Str("role", user.Role).
					Msg("❌ insufficient permissions")
				utils.RespondError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts the session user from request context
func GetUserFromContext(r *http.Request) (models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(models.User)
	return user, ok
}

// WithUser returns ctx carrying user, for tests and internal callers.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}
