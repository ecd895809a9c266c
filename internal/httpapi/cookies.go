package httpapi

import (
	"net/http"

	"glowme.io/internal/session"
)

// setSessionCookie writes the HttpOnly session cookie. Unlike the CSRF
// cookie it always uses the configured domain: if that domain is wrong the
// user simply cannot log in, which is a loud failure we want to see.
func (a *API) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   int(session.IdleTTL.Seconds()),
		Secure:   a.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   -1,
		Secure:   a.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
