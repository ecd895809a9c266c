// Package session holds the authenticated-session records behind the
// glow_session cookie. The cookie value is an opaque store key; everything
// the server trusts about the caller comes from the looked-up record, never
// from the cookie itself.
package session

import (
	"context"
	"errors"
	"time"
)

// CookieName is the HttpOnly session cookie.
const CookieName = "glow_session"

const (
	// IdleTTL is how long a session survives without traffic.
	IdleTTL = 30 * time.Minute
	// RenewThreshold: Touch extends the session only when less than this
	// much idle time remains, so steady traffic costs one write per
	// twenty minutes instead of one per request.
	RenewThreshold = 10 * time.Minute
)

var ErrNotFound = errors.New("session: not found")

// Session is one authenticated browser session.
type Session struct {
	ID         string
	UserID     string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

// Store describes session persistence. Find must treat an expired record
// as absent.
type Store interface {
	Create(ctx context.Context, userID string) (*Session, error)
	Find(ctx context.Context, id string) (*Session, error)
	// Touch extends the idle deadline when it is close enough to matter;
	// reports whether a renewal write happened.
	Touch(ctx context.Context, id string) (renewed bool, err error)
	Destroy(ctx context.Context, id string) error
	// DestroyAllForUser revokes every session of one user and returns how
	// many were dropped.
	DestroyAllForUser(ctx context.Context, userID string) (int, error)
}
