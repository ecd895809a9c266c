package csrf

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func mutationRequest(header, cookie string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/api/priorities", nil)
	if header != "" {
		req.Header.Set(HeaderName, header)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}
	return req
}

func TestGenerateTokenIsFreshAndURLSafe(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if len(token) < 43 { // 32 bytes base64url without padding
			t.Fatalf("token too short: %d chars", len(token))
		}
		if seen[token] {
			t.Fatalf("duplicate token generated")
		}
		seen[token] = true
	}
}

func TestValidateMatch(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if err := Validate(mutationRequest(token, token)); err != nil {
		t.Fatalf("expected valid pair, got %v", err)
	}
}

func TestValidateHeaderMissing(t *testing.T) {
	// Missing header wins regardless of cookie state.
	for _, cookie := range []string{"", "some-token"} {
		err := Validate(mutationRequest("", cookie))
		if !errors.Is(err, ErrMissing) {
			t.Fatalf("cookie=%q: expected ErrMissing, got %v", cookie, err)
		}
	}
}

func TestValidateCookieAbsent(t *testing.T) {
	err := Validate(mutationRequest("some-token", ""))
	if !errors.Is(err, ErrCookieAbsent) {
		t.Fatalf("expected ErrCookieAbsent, got %v", err)
	}
}

func TestValidateMismatch(t *testing.T) {
	err := Validate(mutationRequest("token-a", "token-b"))
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestFailureReasonCategories(t *testing.T) {
	cases := map[error]string{
		ErrMissing:      "missing",
		ErrCookieAbsent: "absent_cookie",
		ErrMismatch:     "mismatch",
		errors.New("?"): "unknown",
	}
	for err, want := range cases {
		if got := FailureReason(err); got != want {
			t.Fatalf("FailureReason(%v)=%q, want %q", err, got, want)
		}
	}
}
