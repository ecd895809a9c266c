package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"glowme.io/internal/account"
	"glowme.io/internal/config"
	"glowme.io/internal/csrf"
	"glowme.io/internal/ratelimit"
	"glowme.io/internal/session"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "sup3r-secret"
)

type testEnv struct {
	api      *API
	handler  http.Handler
	sessions *session.MemoryStore
	accounts *account.MemoryStore
	user     *account.User
}

type envOption func(*config.Config)

func withShadowCSRF() envOption {
	return func(c *config.Config) { c.CSRFEnforce = false }
}

func withLimiterDisabled() envOption {
	return func(c *config.Config) { c.LoginRateLimitEnabled = false }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := config.Config{
		Env:                   "test",
		CookieDomain:          "",
		CookieSecure:          false,
		CSRFEnforce:           true,
		CSRFMaxAge:            30 * time.Minute,
		LoginRateLimitEnabled: true,
		LoginMaxFails:         5,
		LoginWindow:           60 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sessions := session.NewMemoryStore()
	accounts := account.NewMemoryStore()

	hash, err := account.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &account.User{
		Email:        testEmail,
		PasswordHash: hash,
		FirstName:    "Ana",
		Status:       account.StatusApproved,
	}
	if err := accounts.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	limiter := ratelimit.NewMemory(ratelimit.Config{
		Enabled:  cfg.LoginRateLimitEnabled,
		MaxFails: cfg.LoginMaxFails,
		Window:   cfg.LoginWindow,
	})
	csrfMgr := csrf.NewManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CSRFMaxAge, cfg.CSRFEnforce)

	api := New(cfg, sessions, accounts, csrfMgr, limiter, ReadyProbe{}, "test")
	return &testEnv{
		api:      api,
		handler:  api.Handler(),
		sessions: sessions,
		accounts: accounts,
		user:     user,
	}
}

// doJSON runs one request through the full middleware chain, carrying the
// given cookies, and decodes the JSON body.
func (e *testEnv) doJSON(t *testing.T, method, path string, body any, cookies []*http.Cookie, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:40000"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

// login performs a successful login and returns the session+CSRF cookies
// plus the token from the response body.
func (e *testEnv) login(t *testing.T) (cookies []*http.Cookie, token string) {
	t.Helper()

	rec, body := e.doJSON(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": testEmail, "password": testPassword}, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	token, _ = body["csrf_token"].(string)
	if token == "" {
		t.Fatal("login response missing csrf_token")
	}
	return rec.Result().Cookies(), token
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
