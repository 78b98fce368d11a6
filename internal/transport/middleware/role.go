package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/account"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/frahmantamala/vendor-portal/pkg/logger"
)

// RoleLookup reads an account's current role. It returns internal.ErrUserNotFound when the account is gone.
type RoleLookup interface {
	GetRole(ctx context.Context, userID int64) (account.Role, error)
}

// RequireRole rejects callers whose stored role is not one of roles. The token's role claim is not
// trusted, so a deleted or demoted account loses access on its next request. It must run after the
// auth middleware.
func RequireRole(base *transport.BaseHandler, lookup RoleLookup, denied *internal.AppError, roles ...account.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := base.Identity(w, r)
			if !ok {
				return
			}

			role, err := lookup.GetRole(r.Context(), id.UserID)
			if err != nil {
				if errors.Is(err, internal.ErrUserNotFound) {
					logger.From(r.Context()).Warn("access denied: account no longer exists", "user_id", id.UserID)
					base.HandleServiceError(w, r, internal.ErrInvalidToken)
					return
				}
				base.HandleServiceError(w, r, err)
				return
			}

			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.From(r.Context()).Warn("access denied: role not allowed",
				"user_id", id.UserID,
				"role", role,
				"allowed_roles", roles)
			base.HandleServiceError(w, r, denied)
		})
	}
}
