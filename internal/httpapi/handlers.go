package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"glowme.io/internal/account"
	"glowme.io/internal/config"
	"glowme.io/internal/csrf"
	"glowme.io/internal/obs"
	"glowme.io/internal/ratelimit"
	"glowme.io/internal/session"
)

// ReadyProbe checks backing stores before the instance takes traffic.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	cfg        config.Config
	sessions   session.Store
	accounts   account.Store
	csrf       *csrf.Manager
	limiter    ratelimit.Limiter
	readyProbe ReadyProbe
	version    string
}

func New(cfg config.Config, sessions session.Store, accounts account.Store, csrfMgr *csrf.Manager, limiter ratelimit.Limiter, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		cfg:        cfg,
		sessions:   sessions,
		accounts:   accounts,
		csrf:       csrfMgr,
		limiter:    limiter,
		readyProbe: rp,
		version:    version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/api/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/api/auth/login", a.Login)
	a.mux.HandleFunc("/api/auth/logout", a.Logout)
	a.mux.HandleFunc("/api/auth/logout-all", a.LogoutAll)
	a.mux.HandleFunc("/api/auth/me", a.Me)
	a.mux.HandleFunc("/api/auth/csrf", a.RotateCSRF)

	// profile writers
	a.mux.HandleFunc("/api/profile/birth-data", a.BirthData)
	a.mux.HandleFunc("/api/priorities", a.Priorities)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware chain around the mux. Session lookup
// runs before the CSRF guard so an expired session answers 401 rather than
// a confusing CSRF failure.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withCSRF(h)
	h = a.withSession(h)
	h = MaxBodyBytes(h, 1<<20)
	h = Throttle(h, 20, 10)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "glow-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "glow-api",
		"env":     a.cfg.Env,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the envelope every error response shares: a stable
// machine code plus a human message, with the request id when present.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"ok":    false,
		"code":  code,
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}
