// Package msglog keeps a persistent log of outbound message deliveries, both
// real and simulated, so operators can audit what the assistant sent.
package msglog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Delivery statuses.
const (
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusSimulated = "simulated"
)

// Record is one outbound delivery attempt.
type Record struct {
	ID        string
	Recipient string
	Body      string
	Status    string
	Error     string
	CreatedAt time.Time
}

// Store provides persistent storage for the delivery log.
type Store struct {
	db *sql.DB
}

// NewStore creates a delivery log using an existing database connection.
func NewStore(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate delivery log: %w", err)
	}
	return store, nil
}

// NewFromPath opens (or creates) a delivery log database at the given path.
// Use ":memory:" for an ephemeral log.
func NewFromPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open delivery log: %w", err)
	}
	return NewStore(db)
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS deliveries (
			id TEXT PRIMARY KEY,
			recipient TEXT NOT NULL,
			body TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_recipient ON deliveries(recipient)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_created ON deliveries(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one delivery attempt and returns its ID.
func (s *Store) Append(recipient, body, status, errText string) (*Record, error) {
	record := &Record{
		ID:        uuid.New().String(),
		Recipient: recipient,
		Body:      body,
		Status:    status,
		Error:     errText,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO deliveries (id, recipient, body, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.ID, record.Recipient, record.Body, record.Status, record.Error, record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append delivery: %w", err)
	}
	return record, nil
}

// Recent returns the latest n deliveries, newest first.
func (s *Store) Recent(n int) ([]*Record, error) {
	rows, err := s.db.Query(`
		SELECT id, recipient, body, status, error, created_at
		FROM deliveries
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*Record
	for rows.Next() {
		var record Record
		var errText sql.NullString
		if err := rows.Scan(&record.ID, &record.Recipient, &record.Body,
			&record.Status, &errText, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		record.Error = errText.String
		records = append(records, &record)
	}
	return records, rows.Err()
}

// RecentForRecipient returns the latest n deliveries to one recipient,
// newest first.
func (s *Store) RecentForRecipient(recipient string, n int) ([]*Record, error) {
	rows, err := s.db.Query(`
		SELECT id, recipient, body, status, error, created_at
		FROM deliveries
		WHERE recipient = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, recipient, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*Record
	for rows.Next() {
		var record Record
		var errText sql.NullString
		if err := rows.Scan(&record.ID, &record.Recipient, &record.Body,
			&record.Status, &errText, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		record.Error = errText.String
		records = append(records, &record)
	}
	return records, rows.Err()
}
