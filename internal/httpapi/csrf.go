package httpapi

import (
	"errors"
	"net/http"

	"glowme.io/internal/audit"
	"glowme.io/internal/csrf"
	"glowme.io/internal/obs"
)

// withCSRF guards mutating methods with the double-submit check. It runs
// after withSession, so by the time a mutation reaches here the caller is
// authenticated; login itself is on the public list and stays exempt.
//
// In shadow mode (CSRF_ENFORCE=false) failures are counted and logged but
// the request proceeds, so a rollout can measure breakage before blocking.
func (a *API) withCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMutating(r.Method) || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		err := csrf.Validate(r)
		if err == nil {
			next.ServeHTTP(w, r)
			return
		}

		reason := csrf.FailureReason(err)
		obs.IncCSRFFailure(reason)
		_ = audit.LogEvent(r.Context(), "csrf.validation_failed", map[string]any{
			"reason":   reason,
			"path":     obs.CanonicalPath(r.URL.Path),
			"enforced": a.csrf.Enforced(),
		})

		if !a.csrf.Enforced() {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Add("Vary", "Origin")
		writeError(w, r, http.StatusForbidden, csrfErrorCode(err), "csrf validation failed")
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func csrfErrorCode(err error) string {
	switch {
	case errors.Is(err, csrf.ErrMissing):
		return "CSRF_MISSING"
	case errors.Is(err, csrf.ErrCookieAbsent):
		return "CSRF_COOKIE_MISSING"
	default:
		return "CSRF_INVALID"
	}
}
