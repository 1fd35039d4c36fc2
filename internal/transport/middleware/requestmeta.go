package middleware

import (
	"net/http"

	"github.com/frahmantamala/correspondence-management/internal"
)

// RequestMeta records the client address and user agent for audit rows.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := internal.ContextWithRequestMeta(r.Context(), internal.RequestMetaFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
