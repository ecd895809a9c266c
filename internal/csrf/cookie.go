package csrf

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"glowme.io/internal/audit"
	"glowme.io/internal/obs"
)

// Manager mints and clears the CSRF cookie. The session cookie is handled
// elsewhere and always uses the configured domain; only the CSRF cookie
// gets host fallback, because a cookie the browser rejects silently breaks
// every writer endpoint behind a proxy hostname.
type Manager struct {
	domain  string
	secure  bool
	maxAge  time.Duration
	enforce bool
}

// NewManager builds a Manager. domain may be empty (host-only cookies) or a
// leading-dot parent domain such as ".glowme.io".
func NewManager(domain string, secure bool, maxAge time.Duration, enforce bool) *Manager {
	if maxAge <= 0 {
		maxAge = 1800 * time.Second
	}
	return &Manager{domain: domain, secure: secure, maxAge: maxAge, enforce: enforce}
}

// Enforced reports whether validation failures block requests. When false
// the service runs in shadow mode: failures are logged but requests pass.
func (m *Manager) Enforced() bool {
	return m.enforce
}

// Issue generates a fresh token and sets it as the CSRF cookie on the
// response, scoped per ResolveCookieDomain for the given request host.
// Called on login and on every rotation; a later call simply overwrites the
// previous token.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, requestHost string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	m.setCookie(ctx, w, requestHost, token, int(m.maxAge.Seconds()))
	return token, nil
}

// ClearCookie expires the CSRF cookie using the same domain resolution that
// minted it, so the browser actually drops it.
func (m *Manager) ClearCookie(ctx context.Context, w http.ResponseWriter, requestHost string) {
	m.setCookie(ctx, w, requestHost, "", -1)
}

func (m *Manager) setCookie(ctx context.Context, w http.ResponseWriter, requestHost, value string, maxAge int) {
	domain, fallback := ResolveCookieDomain(m.domain, requestHost)
	if fallback && maxAge > 0 {
		// One diagnostic per mint. Category only: the hostname stays out
		// of the log stream.
		obs.IncCookieDomainFallback()
		_ = audit.LogEvent(ctx, "csrf.issue", map[string]any{
			"stage":  "mint",
			"reason": "domain_mismatch",
		})
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Domain:   domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: false, // must stay readable by client script
		SameSite: http.SameSiteLaxMode,
	})
}

// ResolveCookieDomain decides the Domain attribute for the CSRF cookie.
// Empty configured domain means host-only. A configured parent domain is
// used only when the request host actually falls under it; otherwise the
// cookie degrades to host-only so the browser will accept it on preview and
// proxy hostnames.
func ResolveCookieDomain(configured, requestHost string) (domain string, fallback bool) {
	if configured == "" {
		return "", false
	}
	host := stripPort(requestHost)
	suffix := strings.TrimPrefix(configured, ".")
	if host == suffix || strings.HasSuffix(host, "."+suffix) {
		return configured, false
	}
	return "", true
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
