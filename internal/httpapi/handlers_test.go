package httpapi

import (
	"net/http"
	"testing"
)

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.doJSON(t, http.MethodGet, "/healthz", nil, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" || body["service"] != "glow-api" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestReadyWithoutDB(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.doJSON(t, http.MethodGet, "/readyz", nil, nil, nil)
	if rec.Code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("expected ready, got %d %v", rec.Code, body)
	}
}

func TestInfoIsPublic(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.doJSON(t, http.MethodGet, "/api/info", nil, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["name"] != "glow-api" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestUnknownPathRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.doJSON(t, http.MethodGet, "/api/does-not-exist", nil, nil, nil)
	if rec.Code != http.StatusUnauthorized || body["code"] != "AUTH_REQUIRED" {
		t.Fatalf("unauthenticated unknown path must 401, got %d %v", rec.Code, body["code"])
	}
}

func TestMethodNotAllowedSetsAllow(t *testing.T) {
	env := newTestEnv(t)
	rec, body := env.doJSON(t, http.MethodDelete, "/api/auth/login", nil, nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("Allow = %q", rec.Header().Get("Allow"))
	}
	if body["code"] != "METHOD_NOT_ALLOWED" {
		t.Fatalf("unexpected code %v", body["code"])
	}
}
