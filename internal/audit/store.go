package audit

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acutis-security/scangate/internal/config"
	"github.com/acutis-security/scangate/internal/logger"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// Record is one gate decision as persisted in the audit log.
type Record struct {
	ID             string
	SessionID      string
	Environment    string
	Decision       string // "allow" or "block"
	Reason         string
	TranscriptPath string
	LastWritePos   int
	LastAllowPos   int
	CreatedAt      time.Time
}

// Store defines the interface for decision persistence
type Store interface {
	Append(rec *Record) error
	Recent(limit int) ([]*Record, error)
	BySession(sessionID string) ([]*Record, error)
	CleanupOld(ttl time.Duration) (int64, error)
	Close() error
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed audit store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".scangate", "audit", "decisions.db")
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	// WAL mode: hook invocations are short-lived and may overlap
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug().
		Str("path", dbPath).
		Msg("Opened audit store")

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		environment TEXT NOT NULL,
		decision TEXT NOT NULL,
		reason TEXT,
		transcript_path TEXT,
		last_write_pos INTEGER NOT NULL,
		last_allow_pos INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_created ON decisions(created_at);
	CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Append stores one decision record. A missing ID or timestamp is filled in.
func (s *SQLiteStore) Append(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO decisions (id, session_id, environment, decision, reason, transcript_path, last_write_pos, last_allow_pos, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.SessionID,
		rec.Environment,
		rec.Decision,
		rec.Reason,
		rec.TranscriptPath,
		rec.LastWritePos,
		rec.LastAllowPos,
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store decision: %w", err)
	}

	return nil
}

// Recent returns the most recent decisions in chronological order
func (s *SQLiteStore) Recent(limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, session_id, environment, decision, reason, transcript_path, last_write_pos, last_allow_pos, created_at
		 FROM decisions
		 ORDER BY created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := s.scanRecords(rows)
	if err != nil {
		return nil, err
	}

	// Reverse to get chronological order
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	return records, nil
}

// BySession returns all decisions for one session in chronological order
func (s *SQLiteStore) BySession(sessionID string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, session_id, environment, decision, reason, transcript_path, last_write_pos, last_allow_pos, created_at
		 FROM decisions
		 WHERE session_id = ?
		 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.scanRecords(rows)
}

func (s *SQLiteStore) scanRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record

	for rows.Next() {
		var rec Record
		var sessionID, reason, transcriptPath sql.NullString
		var createdAt int64

		if err := rows.Scan(&rec.ID, &sessionID, &rec.Environment, &rec.Decision, &reason, &transcriptPath, &rec.LastWritePos, &rec.LastAllowPos, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}

		rec.SessionID = sessionID.String
		rec.Reason = reason.String
		rec.TranscriptPath = transcriptPath.String
		rec.CreatedAt = time.Unix(createdAt, 0)

		records = append(records, &rec)
	}

	return records, rows.Err()
}

// CleanupOld removes decisions older than the given TTL
func (s *SQLiteStore) CleanupOld(ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl).Unix()

	result, err := s.db.Exec("DELETE FROM decisions WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old decisions: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		logger.Debug().
			Int64("deleted", deleted).
			Str("ttl", ttl.String()).
			Msg("Cleaned up old decisions")
	}

	return deleted, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MaybeRunCleanup runs TTL cleanup with the configured probability
func MaybeRunCleanup(store Store, settings config.AuditSettings) {
	if rand.Float64() > settings.CleanupProbability {
		return
	}

	ttl, err := time.ParseDuration(settings.RecordTTL)
	if err != nil {
		ttl = 30 * 24 * time.Hour
	}

	if _, err := store.CleanupOld(ttl); err != nil {
		logger.Debug().Err(err).Msg("Failed to cleanup old decisions")
	}
}
