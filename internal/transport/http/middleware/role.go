package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RequireSelf returns middleware that allows access only when the URL
// parameter param names the authenticated user.
func RequireSelf(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if chi.URLParam(r, param) != claims.UserID {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
