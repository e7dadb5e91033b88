package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"kbdedup/internal/models"
	utils "kbdedup/internal/utils/http_errors"
)

const pkg = "middleware/"

const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
)

// Identity trusts the upstream gatekeeper: it reads the already
// authenticated caller from request headers and stores it in the context.
// A missing role means an ordinary user.
func Identity(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op := pkg + "Identity"

			userID := r.Header.Get(UserIDHeader)
			role := models.Role(r.Header.Get(UserRoleHeader))
			if role == "" {
				role = models.RoleUser
			}

			if userID == "" || !role.IsValid() {
				log.Warn("request without valid identity",
					slog.String("op", op),
					slog.String("user_id", userID),
					slog.String("role", string(role)))
				utils.WriteJSONError(w, http.StatusForbidden, models.ErrForbidden.Error())
				return
			}

			requester := &models.User{ID: userID, Role: role}

			ctx := context.WithValue(r.Context(), models.UserContextKey, requester)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
