package account

import "context"

// Store describes persistence for members and their profile writers.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	FindUser(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// SaveBirthData upserts the single birth-data row for bd.UserID and
	// returns the persisted record.
	SaveBirthData(ctx context.Context, bd *BirthData) (*BirthData, error)
	BirthDataFor(ctx context.Context, userID string) (*BirthData, error)

	// SavePriorities upserts the full ten-field record.
	SavePriorities(ctx context.Context, p *Priorities) (*Priorities, error)
	PrioritiesFor(ctx context.Context, userID string) (*Priorities, error)

	// RecordLoginAttempt appends to the login audit trail. Best-effort on
	// the login path: an audit write failure must not block a login.
	RecordLoginAttempt(ctx context.Context, email, ip string, success bool) error
}
