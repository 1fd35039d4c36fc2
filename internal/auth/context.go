package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/transport"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

func ContextWithPrincipal(ctx context.Context, p *user.Principal) context.Context {
	return context.WithValue(ctx, ContextUserKey, p)
}

func UserFromContext(ctx context.Context) (*user.Principal, bool) {
	p, ok := ctx.Value(ContextUserKey).(*user.Principal)
	return p, ok && p != nil
}

// CurrentUser writes a 401 and returns false when the request carries no
// principal.
func CurrentUser(h *transport.BaseHandler, w http.ResponseWriter, r *http.Request) (*user.Principal, bool) {
	p, ok := UserFromContext(r.Context())
	if !ok {
		h.Logger.Error("user not found in context", "path", r.URL.Path)
		h.HandleServiceError(w, internal.ErrInvalidToken)
		return nil, false
	}
	return p, true
}
