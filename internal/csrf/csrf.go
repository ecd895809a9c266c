// Package csrf implements the double-submit cookie defense for mutating
// requests: a random token lives in a script-readable cookie and must be
// echoed into the X-CSRF-Token header by same-origin code. Cross-site
// attackers can trigger requests but cannot read the cookie, so they cannot
// forge the header. Validity is structural — header equals cookie — with no
// server-side token storage.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
)

const (
	// HeaderName is the request header clients must set on every mutation.
	HeaderName = "X-CSRF-Token"
	// CookieName is the script-readable token cookie.
	CookieName = "glow_csrf"

	tokenBytes = 32
)

var (
	ErrMissing      = errors.New("csrf: header missing")
	ErrCookieAbsent = errors.New("csrf: cookie absent")
	ErrMismatch     = errors.New("csrf: token mismatch")
)

// GenerateToken draws a fresh 256-bit URL-safe token.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Validate checks the double-submit pair on an incoming request. The checks
// are ordered so the returned error names the first missing piece: header,
// then cookie, then equality.
func Validate(r *http.Request) error {
	header := r.Header.Get(HeaderName)
	if header == "" {
		return ErrMissing
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ErrCookieAbsent
	}
	if subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
		return ErrMismatch
	}
	return nil
}

// FailureReason maps a validation error to its diagnostic category. Only
// these categories may reach logs or metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrMissing):
		return "missing"
	case errors.Is(err, ErrCookieAbsent):
		return "absent_cookie"
	case errors.Is(err, ErrMismatch):
		return "mismatch"
	default:
		return "unknown"
	}
}
