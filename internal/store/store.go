// Package store is the persistence layer: users, files, folders,
// upload reservations and history records over sqlite. Every quota
// quantity is recomputed from these tables at check time; nothing here
// keeps a running total or an in-process cache.
package store

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open connects to the database, tunes the pool and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		plan TEXT NOT NULL DEFAULT 'free',
		plan_expires_at DATETIME,
		role TEXT NOT NULL DEFAULT 'normal',
		api_key TEXT UNIQUE,
		api_request_count INTEGER NOT NULL DEFAULT 0,
		api_request_window DATETIME,
		api_upload_count INTEGER NOT NULL DEFAULT 0,
		api_upload_window DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		name TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL,
		password_hash TEXT,
		custom_link TEXT UNIQUE,
		folder_id TEXT,
		downloads INTEGER NOT NULL DEFAULT 0,
		blocked BOOLEAN NOT NULL DEFAULT FALSE,
		blocked_message TEXT NOT NULL DEFAULT '',
		storage_key TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_files_user ON files(user_id);
	CREATE INDEX IF NOT EXISTS idx_files_expires ON files(expires_at);

	CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, name)
	);

	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
		custom_link TEXT,
		storage_key TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		file_id TEXT NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		content_type TEXT NOT NULL,
		uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_history_user ON history(user_id);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
