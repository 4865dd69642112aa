package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gryork-engineers/grybot/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_message TEXT NOT NULL,
	bot_response TEXT NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore is the durable append-only chat history log. Writes are
// serialized by a store-scoped mutex; readers are not blocked by it and
// retrieval order is the insertion sequence (id), never the timestamp.
type SQLiteStore struct {
	db *sql.DB

	writeMu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; keep the pool from fighting over it.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveChat appends one exchange to the log. Saved turns are never updated
// or deleted.
func (s *SQLiteStore) SaveChat(ctx context.Context, userMessage, botResponse string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query := `INSERT INTO chats (user_message, bot_response, timestamp) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, userMessage, botResponse, time.Now().UTC()); err != nil {
		return fmt.Errorf("save chat: %w", err)
	}
	return nil
}

// RecentChats returns up to limit turns, newest first.
func (s *SQLiteStore) RecentChats(ctx context.Context, limit int) ([]domain.ChatTurn, error) {
	query := `SELECT id, user_message, bot_response, timestamp
	          FROM chats ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent chats: %w", err)
	}
	defer rows.Close()

	var turns []domain.ChatTurn
	for rows.Next() {
		var t domain.ChatTurn
		if err := rows.Scan(&t.ID, &t.UserMessage, &t.BotResponse, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
