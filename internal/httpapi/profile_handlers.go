package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"glowme.io/internal/account"
	"glowme.io/internal/session"
)

type birthDataRequest struct {
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Location string  `json:"location"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Tz       string  `json:"tz"`
}

type birthDataPayload struct {
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Location  string  `json:"location"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Tz        string  `json:"tz"`
	UpdatedAt string  `json:"updated_at"`
}

func toBirthDataPayload(bd *account.BirthData) birthDataPayload {
	return birthDataPayload{
		Date:      bd.BirthDate.Format("2006-01-02"),
		Time:      bd.BirthTime,
		Location:  bd.Location,
		Lat:       bd.Latitude,
		Lng:       bd.Longitude,
		Tz:        bd.Timezone,
		UpdatedAt: bd.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// BirthData reads or replaces the astrology intake record.
func (a *API) BirthData(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		bd, err := a.accounts.BirthDataFor(r.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "NOT_FOUND", "birth data not set")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "birth_data": toBirthDataPayload(bd)})

	case http.MethodPut:
		var req birthDataRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		bd, err := req.validate(sess.UserID)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		saved, err := a.accounts.SaveBirthData(r.Context(), bd)
		if err != nil {
			if errors.Is(err, account.ErrInvalidInput) {
				writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
				return
			}
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "birth_data": toBirthDataPayload(saved)})

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (req *birthDataRequest) validate(userID string) (*account.BirthData, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}
	if date.After(time.Now()) {
		return nil, errors.New("date must be in the past")
	}
	birthTime := strings.TrimSpace(req.Time)
	if birthTime != "" {
		if _, err := time.Parse("15:04", birthTime); err != nil {
			return nil, errors.New("time must be HH:MM")
		}
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, errors.New("location is required")
	}
	if req.Lat < -90 || req.Lat > 90 {
		return nil, errors.New("lat must be between -90 and 90")
	}
	if req.Lng < -180 || req.Lng > 180 {
		return nil, errors.New("lng must be between -180 and 180")
	}
	tz := strings.TrimSpace(req.Tz)
	if tz == "" {
		return nil, errors.New("tz is required")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, errors.New("tz must be an IANA timezone name")
	}
	return &account.BirthData{
		UserID:    userID,
		BirthDate: date,
		BirthTime: birthTime,
		Location:  location,
		Latitude:  req.Lat,
		Longitude: req.Lng,
		Timezone:  tz,
	}, nil
}

// prioritiesRequest uses pointer fields so a partial update only touches
// the weights the client actually sent.
type prioritiesRequest struct {
	Love          *int `json:"love_priority"`
	Intimacy      *int `json:"intimacy_priority"`
	Communication *int `json:"communication_priority"`
	Friendship    *int `json:"friendship_priority"`
	Collaboration *int `json:"collaboration_priority"`
	Lifestyle     *int `json:"lifestyle_priority"`
	Decisions     *int `json:"decisions_priority"`
	Support       *int `json:"support_priority"`
	Growth        *int `json:"growth_priority"`
	Space         *int `json:"space_priority"`
}

type prioritiesPayload struct {
	Love          int    `json:"love_priority"`
	Intimacy      int    `json:"intimacy_priority"`
	Communication int    `json:"communication_priority"`
	Friendship    int    `json:"friendship_priority"`
	Collaboration int    `json:"collaboration_priority"`
	Lifestyle     int    `json:"lifestyle_priority"`
	Decisions     int    `json:"decisions_priority"`
	Support       int    `json:"support_priority"`
	Growth        int    `json:"growth_priority"`
	Space         int    `json:"space_priority"`
	UpdatedAt     string `json:"updated_at"`
}

func toPrioritiesPayload(p *account.Priorities) prioritiesPayload {
	return prioritiesPayload{
		Love:          p.Love,
		Intimacy:      p.Intimacy,
		Communication: p.Communication,
		Friendship:    p.Friendship,
		Collaboration: p.Collaboration,
		Lifestyle:     p.Lifestyle,
		Decisions:     p.Decisions,
		Support:       p.Support,
		Growth:        p.Growth,
		Space:         p.Space,
		UpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Priorities reads or updates the ten relationship weights. A GET before
// the first save answers the neutral defaults so the client always has a
// full set to render.
func (a *API) Priorities(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := a.accounts.PrioritiesFor(r.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				p = account.DefaultPriorities(sess.UserID)
			} else {
				writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "priorities": toPrioritiesPayload(p)})

	case http.MethodPut:
		var req prioritiesRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}

		current, err := a.accounts.PrioritiesFor(r.Context(), sess.UserID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				current = account.DefaultPriorities(sess.UserID)
			} else {
				writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
				return
			}
		}
		if err := req.applyTo(current); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}

		saved, err := a.accounts.SavePriorities(r.Context(), current)
		if err != nil {
			if errors.Is(err, account.ErrInvalidInput) {
				writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
				return
			}
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "priorities": toPrioritiesPayload(saved)})

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (req *prioritiesRequest) applyTo(p *account.Priorities) error {
	fields := []struct {
		name string
		src  *int
		dst  *int
	}{
		{"love_priority", req.Love, &p.Love},
		{"intimacy_priority", req.Intimacy, &p.Intimacy},
		{"communication_priority", req.Communication, &p.Communication},
		{"friendship_priority", req.Friendship, &p.Friendship},
		{"collaboration_priority", req.Collaboration, &p.Collaboration},
		{"lifestyle_priority", req.Lifestyle, &p.Lifestyle},
		{"decisions_priority", req.Decisions, &p.Decisions},
		{"support_priority", req.Support, &p.Support},
		{"growth_priority", req.Growth, &p.Growth},
		{"space_priority", req.Space, &p.Space},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if *f.src < 1 || *f.src > 10 {
			return fmt.Errorf("%s must be between 1 and 10", f.name)
		}
		*f.dst = *f.src
	}
	return nil
}
