package auth

import (
	"net/http"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/transport"
)

type PermissionAuthorizer interface {
	HasPermission(p *user.Principal, permission string) bool
	HasAnyPermission(p *user.Principal, permissions ...string) bool
	IsAdmin(p *user.Principal) bool
}

// RBACAuthorization turns resolver answers into route guards. It rejects
// before the handler runs, so a denied request never touches storage.
type RBACAuthorization struct {
	*transport.BaseHandler
	authorizer PermissionAuthorizer
}

func NewRBACAuthorization(authorizer PermissionAuthorizer, base *transport.BaseHandler) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: base,
		authorizer:  authorizer,
	}
}

func (ra *RBACAuthorization) guard(check func(*user.Principal) bool, describe ...any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := UserFromContext(r.Context())
			if !ok {
				ra.Logger.Warn("authorization check failed: user not found in context")
				ra.HandleServiceError(w, internal.ErrInvalidToken)
				return
			}

			if !check(p) {
				ra.Logger.WarnContext(r.Context(), "access denied", append([]any{"user_id", p.ID}, describe...)...)
				ra.HandleServiceError(w, internal.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return ra.guard(func(p *user.Principal) bool {
		return ra.authorizer.HasPermission(p, permission)
	}, "required_permission", permission)
}

func (ra *RBACAuthorization) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	return ra.guard(func(p *user.Principal) bool {
		return ra.authorizer.HasAnyPermission(p, permissions...)
	}, "required_any", permissions)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.guard(ra.authorizer.IsAdmin, "required", "admin")
}
