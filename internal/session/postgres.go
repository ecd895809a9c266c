package session

import (
	"context"
	"database/sql"
	"time"

	"glowme.io/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL, so sessions survive restarts
// and are shared across replicas.
type PGStore struct {
	db  *sql.DB
	now func() time.Time
}

// PGOption configures PGStore.
type PGOption func(*PGStore)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) PGOption {
	return func(s *PGStore) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewPGStore constructs a PGStore on an open database handle.
func NewPGStore(db *sql.DB, opts ...PGOption) *PGStore {
	s := &PGStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PGStore) Create(ctx context.Context, userID string) (*Session, error) {
	now := s.now().UTC()
	sess := Session{
		ID:         ids.New(),
		UserID:     userID,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(IdleTTL),
	}
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(id, user_id, created_at, last_seen_at, expires_at) values($1,$2,$3,$4,$5)`,
		sess.ID, sess.UserID, sess.CreatedAt, sess.LastSeenAt, sess.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, created_at, last_seen_at, expires_at from sessions where id=$1`, id)
	var sess Session
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.LastSeenAt, &sess.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !sess.ExpiresAt.After(s.now()) {
		// Lazy expiry: drop the stale row on the way out.
		_, _ = s.db.ExecContext(ctx, `delete from sessions where id=$1`, id)
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *PGStore) Touch(ctx context.Context, id string) (bool, error) {
	now := s.now().UTC()
	// Single statement: renew only when the remaining idle time has
	// dropped under the threshold.
	res, err := s.db.ExecContext(ctx,
		`update sessions set last_seen_at=$2, expires_at=$3 where id=$1 and expires_at > $2 and expires_at <= $4`,
		id, now, now.Add(IdleTTL), now.Add(RenewThreshold),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *PGStore) Destroy(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `delete from sessions where id=$1`, id)
	return err
}

func (s *PGStore) DestroyAllForUser(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `delete from sessions where user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
