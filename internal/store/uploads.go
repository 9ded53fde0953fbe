package store

import (
	"database/sql"
	"errors"
	"time"
)

// Upload is a pending reservation created at upload initiation and
// consumed at completion. The slug (if any) was validated and probed
// for uniqueness when the reservation was made; completion re-checks
// it to close the window between reserve and commit.
type Upload struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CustomLink  string    `json:"custom_link,omitempty"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Store) CreateUpload(u *Upload) error {
	_, err := s.db.Exec(
		`INSERT INTO uploads (id, user_id, name, size, content_type, custom_link, storage_key)
		 VALUES (?, NULLIF(?, ''), ?, ?, ?, NULLIF(?, ''), ?)`,
		u.ID, u.UserID, u.Name, u.Size, u.ContentType, u.CustomLink, u.StorageKey,
	)
	return err
}

func (s *Store) GetUpload(id string) (*Upload, error) {
	var u Upload
	err := s.db.QueryRow(
		`SELECT id, COALESCE(user_id, ''), name, size, content_type,
			COALESCE(custom_link, ''), storage_key, created_at
		 FROM uploads WHERE id = ?`, id).
		Scan(&u.ID, &u.UserID, &u.Name, &u.Size, &u.ContentType,
			&u.CustomLink, &u.StorageKey, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) DeleteUpload(id string) error {
	_, err := s.db.Exec(`DELETE FROM uploads WHERE id = ?`, id)
	return err
}
