package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/padharoindia/backend/internal/auth"
	"github.com/padharoindia/backend/internal/http/respond"
	"github.com/padharoindia/backend/internal/models"
	"github.com/padharoindia/backend/internal/storage"
)

// Distinct unexported key types avoid context collisions.
type userIDContextKey struct{}
type userContextKey struct{}

// UserIDFromContext returns the authenticated user id set by Authenticate.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey{}).(int64)
	return id, ok
}

// UserFromContext returns the full record loaded by RequireRole.
func UserFromContext(ctx context.Context) (models.PublicUser, bool) {
	user, ok := ctx.Value(userContextKey{}).(models.PublicUser)
	return user, ok
}

// Authenticate verifies the bearer token and attaches only the user id to the
// request context. A missing credential is 401; a present-but-bad one is 403.
// The full record is loaded lazily by RequireRole, not here.
func Authenticate(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				respond.Error(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole loads the full user record and checks its role. On success the
// record replaces the id-only identity in context so later stages skip the
// lookup. Must run after Authenticate; it fails closed without it.
func RequireRole(store storage.UserStore, logger *zap.Logger, allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := store.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					respond.Error(w, http.StatusUnauthorized, "account no longer exists")
					return
				}
				logger.Error("role check: load user failed",
					zap.Int64("user_id", userID), zap.Error(err))
				respond.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if !slices.Contains(allowedRoles, user.Role) {
				respond.Error(w, http.StatusForbidden, "insufficient privileges")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBusinessType checks the business type of an already role-checked
// Business account. It assumes RequireRole ran first and fails closed (403)
// when the full record is missing from context.
func RequireBusinessType(allowedTypes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user.Role != models.RoleBusiness || user.BusinessType == nil {
				respond.Error(w, http.StatusForbidden, "insufficient privileges")
				return
			}
			if !slices.Contains(allowedTypes, *user.BusinessType) {
				respond.Error(w, http.StatusForbidden, "insufficient privileges")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}
