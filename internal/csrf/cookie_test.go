package csrf

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"glowme.io/internal/obs"
)

func TestResolveCookieDomain(t *testing.T) {
	cases := []struct {
		configured string
		host       string
		domain     string
		fallback   bool
	}{
		{".example.com", "example.com", ".example.com", false},
		{".example.com", "www.example.com", ".example.com", false},
		{".example.com", "api.example.com:443", ".example.com", false},
		{".example.com", "other-host.internal", "", true},
		{".example.com", "evilexample.com", "", true},
		{"", "anything.internal", "", false},
		{".glowme.io", "glowme.io", ".glowme.io", false},
		{".glowme.io", "glow-backend.up.railway.app", "", true},
	}
	for _, tc := range cases {
		domain, fallback := ResolveCookieDomain(tc.configured, tc.host)
		if domain != tc.domain || fallback != tc.fallback {
			t.Fatalf("ResolveCookieDomain(%q, %q) = (%q, %v), want (%q, %v)",
				tc.configured, tc.host, domain, fallback, tc.domain, tc.fallback)
		}
	}
}

func findCookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestIssueSetsScriptReadableCookie(t *testing.T) {
	m := NewManager(".example.com", true, 1800*time.Second, true)
	rr := httptest.NewRecorder()

	token, err := m.Issue(context.Background(), rr, "app.example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c := findCookie(t, rr, CookieName)
	if c.Value != token {
		t.Fatalf("cookie value does not match issued token")
	}
	if c.HttpOnly {
		t.Fatal("CSRF cookie must stay readable by client script")
	}
	if !c.Secure {
		t.Fatal("expected Secure cookie")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", c.SameSite)
	}
	if c.Path != "/" {
		t.Fatalf("expected Path=/, got %q", c.Path)
	}
	if c.Domain != "example.com" && c.Domain != ".example.com" {
		t.Fatalf("expected configured domain, got %q", c.Domain)
	}
	if c.MaxAge != 1800 {
		t.Fatalf("expected MaxAge 1800, got %d", c.MaxAge)
	}
}

func TestIssueFallsBackHostOnlyWithSingleDiagnostic(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	m := NewManager(".example.com", true, 1800*time.Second, true)
	rr := httptest.NewRecorder()

	if _, err := m.Issue(context.Background(), rr, "other-host.internal"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c := findCookie(t, rr, CookieName)
	if c.Domain != "" {
		t.Fatalf("expected host-only cookie, got domain %q", c.Domain)
	}

	if got := strings.Count(buf.String(), "domain_mismatch"); got != 1 {
		t.Fatalf("expected exactly one domain_mismatch diagnostic, got %d", got)
	}
	if strings.Contains(buf.String(), "other-host.internal") {
		t.Fatal("diagnostic must not leak the hostname")
	}
}

func TestIssueRotationProducesNewToken(t *testing.T) {
	m := NewManager("", false, time.Second, true)
	rr := httptest.NewRecorder()

	first, err := m.Issue(context.Background(), rr, "localhost:8080")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := m.Issue(context.Background(), rr, "localhost:8080")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first == second {
		t.Fatal("rotation must produce a fresh token value")
	}
}

func TestClearCookieExpires(t *testing.T) {
	m := NewManager(".example.com", true, time.Hour, true)
	rr := httptest.NewRecorder()

	m.ClearCookie(context.Background(), rr, "app.example.com")

	c := findCookie(t, rr, CookieName)
	if c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("expected expired empty cookie, got value=%q maxage=%d", c.Value, c.MaxAge)
	}
}
