package httpapi

import (
	"errors"
	"net/http"

	"glowme.io/internal/session"
)

var publicPaths = []string{
	"/",
	"/healthz",
	"/readyz",
	"/metrics",
	"/api/info",
	"/api/auth/login",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// unauthorized is the shared auth-failure exit. Always no-store: several
// of the guarded endpoints hand out tokens, and a cached 401 (or a cached
// token response replayed after it) is exactly what no-store exists to
// prevent.
func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeError(w, r, http.StatusUnauthorized, "AUTH_REQUIRED", "authentication required")
}

// withSession resolves the session cookie into an authenticated session on
// the request context. Everything outside the public list requires one.
// Steady traffic also slides the idle deadline: when the store reports a
// renewal the cookie is re-set so its Max-Age tracks the server deadline.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			unauthorized(w, r)
			return
		}

		sess, err := a.sessions.Find(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				a.clearSessionCookie(w)
				unauthorized(w, r)
				return
			}
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
			return
		}

		if renewed, err := a.sessions.Touch(r.Context(), sess.ID); err == nil && renewed {
			a.setSessionCookie(w, sess.ID)
		}

		ctx := session.ContextWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
