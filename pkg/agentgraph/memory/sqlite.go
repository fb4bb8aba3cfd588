package memory

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteBackend persists conversations to a SQLite database shared across
// users. It is suitable for single-process production use.
type SQLiteBackend struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteBackend opens (or creates) the database at path.
// Use ":memory:" only in tests that hold a single connection; prefer a
// file path otherwise.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL improves concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			user_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (user_id, seq)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Backend returns a store constructor for use with WithBackend.
// All stores share the backend's database connection; evicting a user
// does not close the database. Clear the user's rows before eviction if
// the history should not survive re-registration.
func (b *SQLiteBackend) Backend() Backend {
	return func(userID string) (ConversationStore, error) {
		return &SQLiteStore{backend: b, userID: userID}, nil
	}
}

// Close releases the database connection. Stores handed out earlier fail
// with ErrStoreClosed afterwards.
func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

// SQLiteStore is one user's view of a SQLiteBackend.
type SQLiteStore struct {
	backend *SQLiteBackend
	userID  string
}

// Compile-time interface check.
var _ ConversationStore = (*SQLiteStore)(nil)

// Append implements ConversationStore.
func (s *SQLiteStore) Append(msg Message) error {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()

	if s.backend.closed {
		return ErrStoreClosed
	}

	_, err := s.backend.db.Exec(`
		INSERT INTO messages (user_id, seq, role, content)
		VALUES (
			?,
			COALESCE((SELECT MAX(seq) FROM messages WHERE user_id = ?), 0) + 1,
			?, ?
		)
	`, s.userID, s.userID, string(msg.Role), msg.Content)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Messages implements ConversationStore.
func (s *SQLiteStore) Messages() ([]Message, error) {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()

	if s.backend.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.backend.db.Query(`
		SELECT role, content FROM messages
		WHERE user_id = ?
		ORDER BY seq
	`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, Message{Role: Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// Clear implements ConversationStore.
func (s *SQLiteStore) Clear() error {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()

	if s.backend.closed {
		return ErrStoreClosed
	}

	if _, err := s.backend.db.Exec(`DELETE FROM messages WHERE user_id = ?`, s.userID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}
