// Package store persists users, conversations, and messages in SQLite.
//
// Writes are serialized through a single goroutine; SQLite handles
// concurrent reads well under WAL but write contention poorly. Reads go
// straight to the pool.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrStatusRegression is returned when a status update would move a
	// message backward in its lifecycle.
	ErrStatusRegression = errors.New("store: status regression")

	// ErrClosed is returned when the store has been shut down.
	ErrClosed = errors.New("store: closed")
)

const writeTimeout = 30 * time.Second

// Store is the durable layer. All write methods are funneled through one
// writer goroutine; read methods query the pool directly.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	writes   chan writeOp
	shutdown chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	// overridable for deterministic tests
	now        func() time.Time
	pickGender func() string
}

type writeOp struct {
	fn     func(*sql.DB) error
	result chan error
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// The single-writer pattern assumes one connection is enough for
	// writes; reads share the same pool.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:       db,
		logger:   logger.With("component", "store"),
		writes:   make(chan writeOp, 100),
		shutdown: make(chan struct{}),
		now:      func() time.Time { return time.Now().UTC() },
		pickGender: func() string {
			if rand.Intn(2) == 0 {
				return "female"
			}
			return "male"
		},
	}

	s.wg.Add(1)
	go s.writeLoop()

	return s, nil
}

func (s *Store) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case op := <-s.writes:
			op.result <- op.fn(s.db)
		case <-s.shutdown:
			return
		}
	}
}

// executeWrite queues a write and waits for it to complete.
func (s *Store) executeWrite(fn func(*sql.DB) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case s.writes <- writeOp{fn: fn, result: result}:
		return <-result
	case <-time.After(writeTimeout):
		return fmt.Errorf("store: write timeout")
	case <-s.shutdown:
		return ErrClosed
	}
}

// Close stops the writer goroutine and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()
	return s.db.Close()
}

func applySchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		role            TEXT NOT NULL,
		gender          TEXT,
		tts_gender      TEXT,
		preferred_lang  TEXT NOT NULL,
		preferred_voice TEXT,
		created_at      TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		user_a_id  TEXT NOT NULL REFERENCES users(id),
		user_b_id  TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMP NOT NULL,
		UNIQUE(user_a_id, user_b_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		sender_id       TEXT NOT NULL REFERENCES users(id),
		text_source     TEXT NOT NULL,
		text_translated TEXT,
		source_lang     TEXT NOT NULL,
		target_lang     TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'sent',
		created_at      TIMESTAMP NOT NULL,
		client_sent_at  TIMESTAMP,
		delivered_at    TIMESTAMP,
		played_at       TIMESTAMP,
		ttfa_ms         INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_messages_conversation
		ON messages(conversation_id, created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
