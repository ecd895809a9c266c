package account

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"glowme.io/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Status == "" {
		u.Status = StatusPending
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, password_hash, first_name, status) values($1,$2,$3,$4,$5)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.Status,
	)
	return err
}

func (s *PGStore) FindUser(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`select id, email, password_hash, first_name, status, created_at, updated_at from users where id=$1`, id))
}

func (s *PGStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.scanUser(s.db.QueryRowContext(ctx,
		`select id, email, password_hash, first_name, status, created_at, updated_at from users where email=$1`, email))
}

func (s *PGStore) scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Birth data -----------------------------------------------------------

func (s *PGStore) SaveBirthData(ctx context.Context, bd *BirthData) (*BirthData, error) {
	if err := bd.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Consent is implied by submitting the form; the row never persists
	// without it.
	_, err = tx.ExecContext(ctx,
		`insert into birth_data(user_id, birth_date, birth_time, birth_location, latitude, longitude, timezone, data_consent, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,true,now())
		 on conflict (user_id) do update set
		   birth_date=excluded.birth_date, birth_time=excluded.birth_time,
		   birth_location=excluded.birth_location, latitude=excluded.latitude,
		   longitude=excluded.longitude, timezone=excluded.timezone,
		   data_consent=true, updated_at=now()`,
		bd.UserID, bd.BirthDate, bd.BirthTime, bd.Location, bd.Latitude, bd.Longitude, bd.Timezone,
	)
	if err != nil {
		return nil, err
	}

	saved, err := birthDataFor(ctx, tx, bd.UserID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *PGStore) BirthDataFor(ctx context.Context, userID string) (*BirthData, error) {
	return birthDataFor(ctx, s.db, userID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func birthDataFor(ctx context.Context, q querier, userID string) (*BirthData, error) {
	row := q.QueryRowContext(ctx,
		`select user_id, birth_date, birth_time, birth_location, latitude, longitude, timezone, data_consent, updated_at
		 from birth_data where user_id=$1`, userID)
	var bd BirthData
	if err := row.Scan(&bd.UserID, &bd.BirthDate, &bd.BirthTime, &bd.Location, &bd.Latitude,
		&bd.Longitude, &bd.Timezone, &bd.DataConsent, &bd.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &bd, nil
}

// Priorities -----------------------------------------------------------

func (s *PGStore) SavePriorities(ctx context.Context, p *Priorities) (*Priorities, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	_, err := s.db.ExecContext(ctx,
		`insert into user_priorities(user_id, love, intimacy, communication, friendship, collaboration, lifestyle, decisions, support, growth, space, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
		 on conflict (user_id) do update set
		   love=excluded.love, intimacy=excluded.intimacy, communication=excluded.communication,
		   friendship=excluded.friendship, collaboration=excluded.collaboration, lifestyle=excluded.lifestyle,
		   decisions=excluded.decisions, support=excluded.support, growth=excluded.growth,
		   space=excluded.space, updated_at=now()`,
		p.UserID, p.Love, p.Intimacy, p.Communication, p.Friendship, p.Collaboration,
		p.Lifestyle, p.Decisions, p.Support, p.Growth, p.Space,
	)
	if err != nil {
		return nil, err
	}
	return s.PrioritiesFor(ctx, p.UserID)
}

func (s *PGStore) PrioritiesFor(ctx context.Context, userID string) (*Priorities, error) {
	row := s.db.QueryRowContext(ctx,
		`select user_id, love, intimacy, communication, friendship, collaboration, lifestyle, decisions, support, growth, space, updated_at
		 from user_priorities where user_id=$1`, userID)
	var p Priorities
	if err := row.Scan(&p.UserID, &p.Love, &p.Intimacy, &p.Communication, &p.Friendship,
		&p.Collaboration, &p.Lifestyle, &p.Decisions, &p.Support, &p.Growth, &p.Space, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Login audit ----------------------------------------------------------

func (s *PGStore) RecordLoginAttempt(ctx context.Context, email, ip string, success bool) error {
	_, err := s.db.ExecContext(ctx,
		`insert into login_audit(id, email, ip_address, success, occurred_at) values($1,$2,$3,$4,$5)`,
		ids.New(), strings.ToLower(strings.TrimSpace(email)), ip, success, time.Now().UTC(),
	)
	return err
}
