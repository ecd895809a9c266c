package account

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("account: not found")
	ErrAlreadyExists = errors.New("account: already exists")
	ErrInvalidInput  = errors.New("account: invalid input")
)

// User statuses. Only approved users may log in.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// User is a registered member.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BirthData is the astrology intake record, one row per user. Saving it
// implies consent: the client cannot submit birth data without the consent
// checkbox, so the writer forces DataConsent true.
type BirthData struct {
	UserID      string
	BirthDate   time.Time // date component only
	BirthTime   string    // "15:04"
	Location    string
	Latitude    float64
	Longitude   float64
	Timezone    string
	DataConsent bool
	UpdatedAt   time.Time
}

// Validate checks the record invariants before persistence. HTTP-facing
// format checks (date strings, timezone names) live at the boundary; this
// guards what every writer must hold regardless of transport.
func (bd *BirthData) Validate() error {
	if bd.UserID == "" {
		return fmt.Errorf("user id is required: %w", ErrInvalidInput)
	}
	if bd.BirthDate.IsZero() {
		return fmt.Errorf("birth date is required: %w", ErrInvalidInput)
	}
	if bd.Latitude < -90 || bd.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %w", ErrInvalidInput)
	}
	if bd.Longitude < -180 || bd.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %w", ErrInvalidInput)
	}
	return nil
}

// Priorities are the ten Magic-10 relationship weights, each 1..10.
// Scoring over them is out of scope here; this is the writer's record.
type Priorities struct {
	UserID        string
	Love          int
	Intimacy      int
	Communication int
	Friendship    int
	Collaboration int
	Lifestyle     int
	Decisions     int
	Support       int
	Growth        int
	Space         int
	UpdatedAt     time.Time
}

// Validate checks every weight is within 1..10.
func (p *Priorities) Validate() error {
	weights := map[string]int{
		"love": p.Love, "intimacy": p.Intimacy, "communication": p.Communication,
		"friendship": p.Friendship, "collaboration": p.Collaboration,
		"lifestyle": p.Lifestyle, "decisions": p.Decisions,
		"support": p.Support, "growth": p.Growth, "space": p.Space,
	}
	for name, v := range weights {
		if v < 1 || v > 10 {
			return fmt.Errorf("%s weight out of range: %w", name, ErrInvalidInput)
		}
	}
	return nil
}

// DefaultPriorities returns the neutral starting weights.
func DefaultPriorities(userID string) *Priorities {
	return &Priorities{
		UserID:        userID,
		Love:          5,
		Intimacy:      5,
		Communication: 5,
		Friendship:    5,
		Collaboration: 5,
		Lifestyle:     5,
		Decisions:     5,
		Support:       5,
		Growth:        5,
		Space:         5,
	}
}
