package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"blog-api/utils"

	"github.com/google/uuid"
)

const AccessTokenCookie = "access_token"

// CurrentUser is the authenticated identity attached to a request.
type CurrentUser struct {
	ID        int64
	SessionID uuid.UUID
}

type TokenValidator interface {
	ValidatePASETO(token string) (*utils.CustomClaims, error)
}

type SessionLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (userID int64, ok bool, err error)
}

type currentUserKey struct{}

func WithCurrentUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserKey{}, user)
}

// CurrentUserFrom reports the authenticated user, if any.
func CurrentUserFrom(ctx context.Context) (CurrentUser, bool) {
	user, ok := ctx.Value(currentUserKey{}).(CurrentUser)
	return user, ok
}

// AccessToken extracts the token from "Authorization: Bearer" or the access_token cookie.
func AccessToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticate resolves the caller's identity. Requests without a valid
// token continue anonymously; each handler decides what that means.
func Authenticate(tokens TokenValidator, sessions SessionLookup, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.ValidatePASETO(token)
			if err != nil {
				log.Debug("ignoring invalid access token", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if claims.Kind != utils.AccessToken {
				log.Debug("ignoring token that is not an access token", "kind", claims.Kind)
				next.ServeHTTP(w, r)
				return
			}

			userID, ok, err := sessions.Lookup(r.Context(), claims.SessionID)
			if err != nil {
				HttpError(w, log, "Failed to verify session", http.StatusInternalServerError, err)
				return
			}
			if !ok || userID != claims.UserID {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithCurrentUser(r.Context(), CurrentUser{ID: claims.UserID, SessionID: claims.SessionID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUserFrom(r.Context()); !ok {
			RespondJSON(w, map[string]string{"detail": "Unauthorized"}, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
