// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// MemoryDB keeps the store in process memory.
const MemoryDB = ":memory:"

// Message roles stored in the history table.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// schema holds the answer cache and per-session message history. Cached
// answers are only valid for the index version they were produced under.
const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	ts         DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);

CREATE TABLE IF NOT EXISTS cache (
	question      TEXT PRIMARY KEY,
	answer        TEXT NOT NULL,
	index_version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS index_state (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL
);
INSERT OR IGNORE INTO index_state (id, version) VALUES (1, 0);
`

// HistoryEntry is one stored chat message.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store persists the answer cache and chat history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (or creates) the store at path. An empty path or
// MemoryDB keeps everything in memory for the life of the store.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		path = MemoryDB
	}
	if path != MemoryDB {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite allows a single writer, and an in-memory
	// database exists only on the connection that created it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{"PRAGMA busy_timeout=5000"}
	if path != MemoryDB {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database path, or MemoryDB.
func (st *Store) Path() string {
	return st.path
}

// Close closes the database.
func (st *Store) Close() error {
	return st.db.Close()
}

// CachedAnswer looks up an answer cached under the current index version.
func (st *Store) CachedAnswer(ctx context.Context, question string) (string, bool, error) {
	var answer string
	err := st.db.QueryRowContext(ctx, `
		SELECT c.answer FROM cache c
		JOIN index_state s ON s.id = 1
		WHERE c.question = ? AND c.index_version = s.version`, question).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return answer, true, nil
}

// SaveAnswer caches an answer under the current index version.
func (st *Store) SaveAnswer(ctx context.Context, question, answer string) error {
	_, err := st.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache (question, answer, index_version)
		SELECT ?, ?, version FROM index_state WHERE id = 1`, question, answer)
	if err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	return nil
}

// BumpIndexVersion marks the document index as rebuilt, which invalidates
// every cached answer. It returns the new version.
func (st *Store) BumpIndexVersion(ctx context.Context) (int64, error) {
	if _, err := st.db.ExecContext(ctx, `UPDATE index_state SET version = version + 1 WHERE id = 1`); err != nil {
		return 0, fmt.Errorf("index version: %w", err)
	}
	var v int64
	if err := st.db.QueryRowContext(ctx, `SELECT version FROM index_state WHERE id = 1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("index version: %w", err)
	}
	return v, nil
}

// SaveExchange appends a question and its answer to a session's history.
func (st *Store) SaveExchange(ctx context.Context, sessionID, question, answer string) error {
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history save: %w", err)
	}
	defer tx.Rollback()

	for _, m := range []HistoryEntry{{RoleUser, question}, {RoleBot, answer}} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)`,
			sessionID, m.Role, m.Content); err != nil {
			return fmt.Errorf("history save: %w", err)
		}
	}
	return tx.Commit()
}

// History returns a session's messages, oldest first. Unknown sessions
// have an empty history.
func (st *Store) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	rows, err := st.db.QueryContext(ctx,
		`SELECT role, content FROM messages WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Role, &e.Content); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
