package client

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// state keys persisted in the sync_state table.
const (
	stateDeviceID     = "device_id"
	stateToken        = "token"
	stateLastPulledAt = "last_pulled_at"
)

// SQLiteStorage holds the client's durable sync state: the device
// identity, the access token, and the last pull watermark. Game data
// itself is never stored locally; the server is the source of truth
// and the CLI is a thin protocol client.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}

	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init tables: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sync_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)

	return err
}

// GetState reads a sync_state value. Missing keys return "".
func (s *SQLiteStorage) GetState(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM sync_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStorage) SetState(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save state %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) ClearState(key string) error {
	if _, err := s.db.Exec("DELETE FROM sync_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to clear state %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
