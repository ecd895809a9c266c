package httpapi

import (
	"net/http"
	"testing"

	"glowme.io/internal/csrf"
)

func TestBirthDataRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	cookies, token := env.login(t)
	hdr := map[string]string{csrf.HeaderName: token}

	payload := map[string]any{
		"date":     "1992-07-14",
		"time":     "08:30",
		"location": "Lisbon, Portugal",
		"lat":      38.7223,
		"lng":      -9.1393,
		"tz":       "Europe/Lisbon",
	}
	rec, body := env.doJSON(t, http.MethodPut, "/api/profile/birth-data", payload, cookies, hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	saved, _ := body["birth_data"].(map[string]any)
	if saved == nil || saved["date"] != "1992-07-14" || saved["tz"] != "Europe/Lisbon" {
		t.Fatalf("unexpected birth_data: %v", body["birth_data"])
	}

	rec, body = env.doJSON(t, http.MethodGet, "/api/profile/birth-data", nil, cookies, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", rec.Code)
	}
	got, _ := body["birth_data"].(map[string]any)
	if got == nil || got["location"] != "Lisbon, Portugal" {
		t.Fatalf("unexpected birth_data on read: %v", body["birth_data"])
	}
}

func TestBirthDataNotSetAnswers404(t *testing.T) {
	env := newTestEnv(t)
	cookies, _ := env.login(t)

	rec, body := env.doJSON(t, http.MethodGet, "/api/profile/birth-data", nil, cookies, nil)
	if rec.Code != http.StatusNotFound || body["code"] != "NOT_FOUND" {
		t.Fatalf("expected 404 NOT_FOUND, got %d %v", rec.Code, body["code"])
	}
}

func TestBirthDataValidation(t *testing.T) {
	env := newTestEnv(t)
	cookies, token := env.login(t)
	hdr := map[string]string{csrf.HeaderName: token}

	base := func() map[string]any {
		return map[string]any{
			"date":     "1992-07-14",
			"time":     "08:30",
			"location": "Lisbon, Portugal",
			"lat":      38.7223,
			"lng":      -9.1393,
			"tz":       "Europe/Lisbon",
		}
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"bad date", func(m map[string]any) { m["date"] = "14/07/1992" }},
		{"future date", func(m map[string]any) { m["date"] = "2999-01-01" }},
		{"bad time", func(m map[string]any) { m["time"] = "8am" }},
		{"empty location", func(m map[string]any) { m["location"] = "  " }},
		{"lat out of range", func(m map[string]any) { m["lat"] = 91.0 }},
		{"lng out of range", func(m map[string]any) { m["lng"] = -181.0 }},
		{"bogus timezone", func(m map[string]any) { m["tz"] = "Mars/Olympus" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := base()
			tc.mutate(payload)
			rec, body := env.doJSON(t, http.MethodPut, "/api/profile/birth-data", payload, cookies, hdr)
			if rec.Code != http.StatusBadRequest || body["code"] != "INVALID_REQUEST" {
				t.Fatalf("expected 400 INVALID_REQUEST, got %d %v", rec.Code, body["code"])
			}
		})
	}
}

func TestPrioritiesDefaultsBeforeFirstSave(t *testing.T) {
	env := newTestEnv(t)
	cookies, _ := env.login(t)

	rec, body := env.doJSON(t, http.MethodGet, "/api/priorities", nil, cookies, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	p, _ := body["priorities"].(map[string]any)
	if p == nil {
		t.Fatal("missing priorities payload")
	}
	if p["love_priority"] != float64(5) || p["space_priority"] != float64(5) {
		t.Fatalf("expected neutral defaults, got %v", p)
	}
}

func TestPrioritiesPartialUpdateMerges(t *testing.T) {
	env := newTestEnv(t)
	cookies, token := env.login(t)
	hdr := map[string]string{csrf.HeaderName: token}

	rec, body := env.doJSON(t, http.MethodPut, "/api/priorities",
		map[string]int{"love_priority": 9, "space_priority": 2}, cookies, hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	p, _ := body["priorities"].(map[string]any)
	if p["love_priority"] != float64(9) || p["space_priority"] != float64(2) {
		t.Fatalf("sent weights not applied: %v", p)
	}
	if p["growth_priority"] != float64(5) {
		t.Fatalf("untouched weights must keep defaults: %v", p)
	}

	// Second partial update leaves the first one intact.
	rec, body = env.doJSON(t, http.MethodPut, "/api/priorities",
		map[string]int{"communication_priority": 7}, cookies, hdr)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	p, _ = body["priorities"].(map[string]any)
	if p["love_priority"] != float64(9) || p["communication_priority"] != float64(7) {
		t.Fatalf("merge lost earlier weights: %v", p)
	}
}

func TestPrioritiesRejectOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	cookies, token := env.login(t)
	hdr := map[string]string{csrf.HeaderName: token}

	for _, bad := range []int{0, 11, -3} {
		rec, body := env.doJSON(t, http.MethodPut, "/api/priorities",
			map[string]int{"love_priority": bad}, cookies, hdr)
		if rec.Code != http.StatusBadRequest || body["code"] != "INVALID_REQUEST" {
			t.Fatalf("weight %d: expected 400 INVALID_REQUEST, got %d %v", bad, rec.Code, body["code"])
		}
	}
}

func TestPrioritiesRejectUnknownKeys(t *testing.T) {
	env := newTestEnv(t)
	cookies, token := env.login(t)
	hdr := map[string]string{csrf.HeaderName: token}

	rec, _ := env.doJSON(t, http.MethodPut, "/api/priorities",
		map[string]int{"charisma_priority": 5}, cookies, hdr)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown key must be rejected, got %d", rec.Code)
	}
}
