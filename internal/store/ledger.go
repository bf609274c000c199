package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// AcceptRecord is one persisted auto-accept event.
type AcceptRecord struct {
	ID          int64
	SessionID   string
	PatternID   string
	MatchedText string
	AcceptedAt  time.Time
}

// Ledger records every automatic acceptance in an SQLite database so
// unattended sessions stay auditable after the fact.
type Ledger struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS auto_accepts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	pattern_id TEXT NOT NULL,
	matched_text TEXT NOT NULL,
	accepted_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_auto_accepts_session ON auto_accepts(session_id);
`

// OpenLedger opens (or creates) the ledger database at path.
// WAL mode is enabled for concurrent reads.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(ledgerSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	return &Ledger{conn: conn, path: path}, nil
}

// Path returns the path to the ledger database file.
func (l *Ledger) Path() string {
	return l.path
}

// RecordAccept stores one auto-accept event.
func (l *Ledger) RecordAccept(sessionID, patternID, matched string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.Exec(
		"INSERT INTO auto_accepts (session_id, pattern_id, matched_text) VALUES (?, ?, ?)",
		sessionID, patternID, matched,
	)
	if err != nil {
		return fmt.Errorf("record accept: %w", err)
	}
	return nil
}

// Recent returns the most recent auto-accept events, newest first.
func (l *Ledger) Recent(limit int) ([]AcceptRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.conn.Query(
		"SELECT id, session_id, pattern_id, matched_text, accepted_at FROM auto_accepts ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var records []AcceptRecord
	for rows.Next() {
		var r AcceptRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.PatternID, &r.MatchedText, &r.AcceptedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// BySession returns the auto-accept events of one session, oldest first.
func (l *Ledger) BySession(sessionID string) ([]AcceptRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.conn.Query(
		"SELECT id, session_id, pattern_id, matched_text, accepted_at FROM auto_accepts WHERE session_id = ? ORDER BY id ASC",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var records []AcceptRecord
	for rows.Next() {
		var r AcceptRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.PatternID, &r.MatchedText, &r.AcceptedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.Close()
}
