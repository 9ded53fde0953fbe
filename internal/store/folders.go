package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) CreateFolder(f *Folder) error {
	f.Name = strings.TrimSpace(f.Name)
	_, err := s.db.Exec(
		`INSERT INTO folders (id, user_id, name) VALUES (?, ?, ?)`,
		f.ID, f.UserID, f.Name,
	)
	return err
}

func (s *Store) GetFolder(id string) (*Folder, error) {
	var f Folder
	err := s.db.QueryRow(
		`SELECT id, user_id, name, created_at FROM folders WHERE id = ?`, id).
		Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (s *Store) ListFolders(userID string) ([]*Folder, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, created_at FROM folders WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, &f)
	}
	return folders, rows.Err()
}

// FolderNameTaken checks the per-owner uniqueness of a (trimmed) name.
func (s *Store) FolderNameTaken(userID, name string) (bool, error) {
	var taken bool
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM folders WHERE user_id = ? AND name = ?)`,
		userID, strings.TrimSpace(name)).Scan(&taken)
	return taken, err
}

// DeleteFolder removes the folder and detaches (not deletes) the files
// it contained.
func (s *Store) DeleteFolder(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE files SET folder_id = NULL WHERE folder_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM folders WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}
