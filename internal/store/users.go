package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/subelo/subelo/internal/plan"
	"github.com/subelo/subelo/internal/quota"
)

var ErrNotFound = errors.New("record not found")

// User is one account. The API counter pairs live on the record itself
// and are rewritten together in a single update.
type User struct {
	ID            string
	Email         string
	Plan          string
	PlanExpiresAt *time.Time
	Role          string
	APIKey        string // empty when no key has been issued
	APIRequests   quota.Window
	APIUploads    quota.Window
}

const RoleAdmin = "admin"

// EffectivePlan resolves the plan the user is entitled to right now. A
// missing or past plan expiration reverts to free; the billing
// collaborator owns writing the identifier, we only degrade it.
func (u *User) EffectivePlan(now time.Time) plan.Plan {
	p := plan.Parse(u.Plan)
	if p == plan.Free || p == plan.Guest {
		return p
	}
	if u.PlanExpiresAt == nil || u.PlanExpiresAt.Before(now) {
		return plan.Free
	}
	return p
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (s *Store) CreateUser(u *User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, plan, plan_expires_at, role, api_key)
		 VALUES (?, ?, ?, ?, ?, NULLIF(?, ''))`,
		u.ID, u.Email, u.Plan, u.PlanExpiresAt, u.Role, u.APIKey,
	)
	return err
}

const userColumns = `id, email, plan, plan_expires_at, role, COALESCE(api_key, ''),
	api_request_count, api_request_window, api_upload_count, api_upload_window`

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	var reqWindow, upWindow sql.NullTime
	err := row.Scan(
		&u.ID, &u.Email, &u.Plan, &u.PlanExpiresAt, &u.Role, &u.APIKey,
		&u.APIRequests.Count, &reqWindow, &u.APIUploads.Count, &upWindow,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if reqWindow.Valid {
		u.APIRequests.Start = reqWindow.Time
	}
	if upWindow.Valid {
		u.APIUploads.Start = upWindow.Time
	}
	return &u, nil
}

func (s *Store) GetUser(id string) (*User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(email string) (*User, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (s *Store) GetUserByAPIKey(key string) (*User, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE api_key = ?`, key))
}

// UpdateAPIWindows persists both counter pairs in one update. This is
// the write behind every accepted API call. No compare-and-swap:
// last write wins, same as the rest of the check-then-act paths.
func (s *Store) UpdateAPIWindows(userID string, requests, uploads quota.Window) error {
	_, err := s.db.Exec(
		`UPDATE users SET api_request_count = ?, api_request_window = ?,
			api_upload_count = ?, api_upload_window = ?
		 WHERE id = ?`,
		requests.Count, requests.Start, uploads.Count, uploads.Start, userID,
	)
	return err
}

func (s *Store) SetUserPlan(userID, planID string, expiresAt *time.Time) error {
	_, err := s.db.Exec(
		`UPDATE users SET plan = ?, plan_expires_at = ? WHERE id = ?`,
		planID, expiresAt, userID,
	)
	return err
}

func (s *Store) SetAPIKey(userID, key string) error {
	_, err := s.db.Exec(
		`UPDATE users SET api_key = NULLIF(?, '') WHERE id = ?`, key, userID)
	return err
}

// CreateSession records a resolved identity-provider session. The
// OAuth exchange itself happens upstream; this table is just the
// token-to-user mapping the handlers consult.
func (s *Store) CreateSession(token, userID string) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (token, user_id) VALUES (?, ?)`, token, userID)
	return err
}

func (s *Store) GetUserBySession(token string) (*User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users
		 WHERE id = (SELECT user_id FROM sessions WHERE token = ?)`, token))
}

func (s *Store) DeleteSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}
