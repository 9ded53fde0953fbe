package store

import "time"

// HistoryEntry is a point-in-time snapshot of a file taken at upload
// completion. It is never updated afterwards (a later rename is not
// reflected here) and it survives deletion of the file itself; that
// divergence is deliberate, the entry records what was uploaded, not
// what the file became.
type HistoryEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	FileID      string    `json:"file_id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

func (s *Store) AddHistory(h *HistoryEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO history (id, user_id, file_id, name, size, content_type, uploaded_at)
		 VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.FileID, h.Name, h.Size, h.ContentType, h.UploadedAt,
	)
	return err
}

func (s *Store) ListHistory(userID string) ([]*HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, COALESCE(user_id, ''), file_id, name, size, content_type, uploaded_at
		 FROM history WHERE user_id = ? ORDER BY uploaded_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.UserID, &h.FileID, &h.Name, &h.Size, &h.ContentType, &h.UploadedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}
