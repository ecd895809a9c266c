package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"glowme.io/internal/account"
	"glowme.io/internal/audit"
	"glowme.io/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Status    string `json:"status"`
}

func toUserPayload(u *account.User) userPayload {
	return userPayload{ID: u.ID, Email: u.Email, FirstName: u.FirstName, Status: u.Status}
}

// Login authenticates credentials and establishes the cookie session. The
// sliding-window limiter is consulted before any credential work so a
// tripped bucket costs no bcrypt time.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	w.Header().Set("Cache-Control", "no-store")

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "email and password are required")
		return
	}

	ip := clientIP(r)
	if retryAfter, limited := a.limiter.Check(r.Context(), ip, req.Email); limited {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		payload := map[string]any{
			"ok":          false,
			"code":        "RATE_LIMIT_LOGIN",
			"error":       "too many failed login attempts, try again later",
			"retry_after": retryAfter,
		}
		if rid := RequestIDFromContext(r.Context()); rid != "" {
			payload["request_id"] = rid
		}
		writeJSON(w, http.StatusTooManyRequests, payload)
		return
	}

	user, err := a.accounts.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			a.failLogin(w, r, ip, req.Email)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	if err := account.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		a.failLogin(w, r, ip, req.Email)
		return
	}

	if user.Status != account.StatusApproved {
		_ = a.accounts.RecordLoginAttempt(r.Context(), req.Email, ip, false)
		writeError(w, r, http.StatusForbidden, "ACCOUNT_NOT_APPROVED", "account is not approved yet")
		return
	}

	sess, err := a.sessions.Create(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	a.limiter.RecordSuccess(r.Context(), ip, req.Email)
	_ = a.accounts.RecordLoginAttempt(r.Context(), req.Email, ip, true)

	a.setSessionCookie(w, sess.ID)
	token, err := a.csrf.Issue(r.Context(), w, r.Host)
	if err != nil {
		// Session exists but the client cannot mutate without a token;
		// fail the login rather than hand out a half-usable state.
		_ = a.sessions.Destroy(r.Context(), sess.ID)
		a.clearSessionCookie(w)
		_ = audit.LogEvent(r.Context(), "csrf.issue", map[string]any{
			"stage":  "mint",
			"reason": "generator_error",
		})
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"user":       toUserPayload(user),
		"csrf_token": token,
	})
}

// failLogin is the shared invalid-credentials exit. The response does not
// reveal whether the account exists.
func (a *API) failLogin(w http.ResponseWriter, r *http.Request, ip, email string) {
	a.limiter.RecordFailure(r.Context(), ip, email)
	_ = a.accounts.RecordLoginAttempt(r.Context(), email, ip, false)
	writeError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
}

// Logout destroys the session and expires both cookies.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	w.Header().Set("Cache-Control", "no-store")

	sess, ok := session.FromContext(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}
	if err := a.sessions.Destroy(r.Context(), sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	a.clearSessionCookie(w)
	a.csrf.ClearCookie(r.Context(), w, r.Host)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// LogoutAll revokes every session of the authenticated user, including the
// current one. This is the stolen-laptop switch: one call from any still
// trusted browser invalidates all cookies everywhere.
func (a *API) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	w.Header().Set("Cache-Control", "no-store")

	sess, ok := session.FromContext(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}
	revoked, err := a.sessions.DestroyAllForUser(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	_ = audit.LogEvent(r.Context(), "session.revoke_all", map[string]any{
		"revoked": revoked,
	})
	a.clearSessionCookie(w)
	a.csrf.ClearCookie(r.Context(), w, r.Host)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revoked": revoked})
}

// Me returns the authenticated user.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	w.Header().Set("Cache-Control", "no-store")

	sess, ok := session.FromContext(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}
	user, err := a.accounts.FindUser(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			// User deleted while the session lived. Treat as logged out.
			a.clearSessionCookie(w)
			unauthorized(w, r)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": toUserPayload(user),
	})
}

// RotateCSRF mints a fresh token for the authenticated session. Single-page
// clients call this after a tab wakes from sleep; the new cookie simply
// replaces the old pair.
func (a *API) RotateCSRF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	w.Header().Set("Cache-Control", "no-store")

	if _, ok := session.FromContext(r.Context()); !ok {
		unauthorized(w, r)
		return
	}
	token, err := a.csrf.Issue(r.Context(), w, r.Host)
	if err != nil {
		_ = audit.LogEvent(r.Context(), "csrf.issue", map[string]any{
			"stage":  "rotate",
			"reason": "generator_error",
		})
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"csrf_token": token,
	})
}
