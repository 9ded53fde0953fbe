package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/subelo/subelo/internal/quota"
)

// File is one stored upload. Empty UserID marks a guest upload; empty
// PasswordHash means unprotected; empty CustomLink means the share
// link is the opaque id.
type File struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id,omitempty"`
	Name           string     `json:"name"`
	Size           int64      `json:"size"`
	ContentType    string     `json:"content_type"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	PasswordHash   string     `json:"-"`
	CustomLink     string     `json:"custom_link,omitempty"`
	FolderID       string     `json:"folder_id,omitempty"`
	Downloads      int64      `json:"downloads"`
	Blocked        bool       `json:"blocked"`
	BlockedMessage string     `json:"blocked_message,omitempty"`
	StorageKey     string     `json:"-"`
	Tags           []string   `json:"tags,omitempty"`
}

func (f *File) HasPassword() bool { return f.PasswordHash != "" }
func (f *File) Expired(now time.Time) bool {
	return f.ExpiresAt.Before(now)
}

const fileColumns = `id, COALESCE(user_id, ''), name, size, content_type,
	created_at, expires_at, COALESCE(password_hash, ''), COALESCE(custom_link, ''),
	COALESCE(folder_id, ''), downloads, blocked, blocked_message, storage_key, tags`

// linkConflict translates the unique-index violation on custom_link
// into the conflict taxonomy, so a write racing past the uniqueness
// probe still surfaces as a 409 rather than an internal error.
func linkConflict(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") &&
		strings.Contains(err.Error(), "custom_link") {
		return &quota.ConflictError{Msg: "Custom link already in use"}
	}
	return err
}

func (s *Store) CreateFile(f *File) error {
	tagsJSON, err := json.Marshal(f.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO files (id, user_id, name, size, content_type, created_at,
			expires_at, password_hash, custom_link, folder_id, storage_key, tags)
		 VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?, ?)`,
		f.ID, f.UserID, f.Name, f.Size, f.ContentType, f.CreatedAt,
		f.ExpiresAt, f.PasswordHash, f.CustomLink, f.FolderID, f.StorageKey, string(tagsJSON),
	)
	return linkConflict(err)
}

func scanFile(scan func(dest ...interface{}) error) (*File, error) {
	var f File
	var tagsJSON string
	err := scan(
		&f.ID, &f.UserID, &f.Name, &f.Size, &f.ContentType,
		&f.CreatedAt, &f.ExpiresAt, &f.PasswordHash, &f.CustomLink,
		&f.FolderID, &f.Downloads, &f.Blocked, &f.BlockedMessage, &f.StorageKey, &tagsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &f.Tags); err != nil {
		f.Tags = nil
	}
	return &f, nil
}

func (s *Store) GetFile(id string) (*File, error) {
	row := s.db.QueryRow(`SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	return scanFile(row.Scan)
}

// GetFileByRef resolves a share reference. Ids and custom links share
// the namespace, so the opaque id wins: a custom link carrying another
// file's id can never shadow that file's share reference.
func (s *Store) GetFileByRef(ref string) (*File, error) {
	f, err := s.GetFile(ref)
	if !errors.Is(err, ErrNotFound) {
		return f, err
	}
	row := s.db.QueryRow(`SELECT `+fileColumns+` FROM files WHERE custom_link = ?`, ref)
	return scanFile(row.Scan)
}

func (s *Store) listFiles(query string, args ...interface{}) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		f, err := scanFile(rows.Scan)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Store) ListFilesByUser(userID string) ([]*File, error) {
	return s.listFiles(
		`SELECT `+fileColumns+` FROM files WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (s *Store) ListAllFiles() ([]*File, error) {
	return s.listFiles(`SELECT ` + fileColumns + ` FROM files ORDER BY created_at DESC`)
}

func (s *Store) DeleteFile(id string) error {
	_, err := s.db.Exec(`DELETE FROM files WHERE id = ?`, id)
	return err
}

func (s *Store) RenameFile(id, name string) error {
	_, err := s.db.Exec(`UPDATE files SET name = ? WHERE id = ?`, name, id)
	return err
}

// SetPassword stores the bcrypt hash; an empty hash removes the
// protection.
func (s *Store) SetPassword(id, hash string) error {
	_, err := s.db.Exec(`UPDATE files SET password_hash = NULLIF(?, '') WHERE id = ?`, hash, id)
	return err
}

// SetCustomLink assigns or clears (empty slug) the custom link.
func (s *Store) SetCustomLink(id, slug string) error {
	_, err := s.db.Exec(`UPDATE files SET custom_link = NULLIF(?, '') WHERE id = ?`, slug, id)
	return linkConflict(err)
}

func (s *Store) SetExpiration(id string, expiresAt time.Time) error {
	_, err := s.db.Exec(`UPDATE files SET expires_at = ? WHERE id = ?`, expiresAt, id)
	return err
}

// SetFolder moves the file; an empty folder id detaches it.
func (s *Store) SetFolder(id, folderID string) error {
	_, err := s.db.Exec(`UPDATE files SET folder_id = NULLIF(?, '') WHERE id = ?`, folderID, id)
	return err
}

func (s *Store) SetTags(id string, tags []string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE files SET tags = ? WHERE id = ?`, string(tagsJSON), id)
	return err
}

func (s *Store) SetBlocked(id string, blocked bool, message string) error {
	_, err := s.db.Exec(
		`UPDATE files SET blocked = ?, blocked_message = ? WHERE id = ?`, blocked, message, id)
	return err
}

func (s *Store) IncrementDownloads(id string) error {
	_, err := s.db.Exec(`UPDATE files SET downloads = downloads + 1 WHERE id = ?`, id)
	return err
}

// CustomLinkTaken reports whether any file other than excludeID holds
// the slug. Uniqueness is global across all users, and a slug equal to
// an existing file id counts as taken: both resolve through the same
// share namespace.
func (s *Store) CustomLinkTaken(slug, excludeID string) (bool, error) {
	var taken bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM files WHERE (custom_link = ? OR id = ?) AND id != ?)`,
		slug, slug, excludeID).Scan(&taken)
	return taken, err
}

// Usage recounts every quota quantity for the user from the source
// records. No running totals; this reflects database state at call
// time.
func (s *Store) Usage(userID string) (quota.Usage, error) {
	var u quota.Usage
	err := s.db.QueryRow(
		`SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN password_hash IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN custom_link IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(size), 0)
		 FROM files WHERE user_id = ?`, userID).
		Scan(&u.Files, &u.Protected, &u.CustomLinks, &u.StorageBytes)
	if err != nil {
		return quota.Usage{}, err
	}
	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM folders WHERE user_id = ?`, userID).Scan(&u.Folders)
	return u, err
}
