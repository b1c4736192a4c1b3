package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ashureev/codepal/internal/domain"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	// Serializes writes to avoid SQLITE_BUSY between the engine and the
	// maintenance operations.
	writeMu sync.Mutex
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers; busy_timeout and foreign_keys apply
	// per connection so they ride along in the DSN.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		api_key TEXT,
		model TEXT NOT NULL DEFAULT '',
		configured INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		title TEXT,
		model TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user_updated ON sessions(user_id, updated_at);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata_json TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages(session_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureUser returns the profile row for username, creating it if absent.
func (s *SQLiteStore) EnsureUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.getUserByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, api_key, model, configured, created_at, updated_at)
		 VALUES (?, NULL, '', 0, ?, ?)
		 ON CONFLICT(username) DO NOTHING`,
		username, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if _, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}

	user, err = s.getUserByName(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %q not found after insert", username)
	}
	return user, nil
}

func (s *SQLiteStore) getUserByName(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, api_key, model, configured, created_at, updated_at
		 FROM users WHERE username = ?`, username)

	var user domain.User
	var apiKey sql.NullString
	var configured int
	var createdAt, updatedAt int64

	err := row.Scan(&user.ID, &user.Username, &apiKey, &user.Model, &configured, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.APIKey = apiKey.String
	user.Configured = configured != 0
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpdateUserConfig persists the API key and model for a profile and marks it
// configured.
func (s *SQLiteStore) UpdateUserConfig(ctx context.Context, userID int64, apiKey, model string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET api_key = ?, model = ?, configured = 1, updated_at = ? WHERE id = ?`,
		apiKey, model, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("update user config: %w", err)
	}
	return s.requireRow(res, "UpdateUserConfig", userID)
}

// UpdateUserModel persists only the model selection.
func (s *SQLiteStore) UpdateUserModel(ctx context.Context, userID int64, model string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET model = ?, updated_at = ? WHERE id = ?`,
		model, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("update user model: %w", err)
	}
	return s.requireRow(res, "UpdateUserModel", userID)
}

func (s *SQLiteStore) requireRow(res sql.Result, op string, id int64) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("update affected 0 rows", "op", op, "id", id)
		return fmt.Errorf("%s: no row with id %d", op, id)
	}
	return nil
}

// CreateSession persists a new conversation session.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID int64, title, model string) (*domain.Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now()
	var titleArg interface{}
	if title != "" {
		titleArg = title
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, title, model, active, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		userID, titleArg, model, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get session id: %w", err)
	}

	return &domain.Session{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Model:     model,
		Active:    true,
		CreatedAt: time.Unix(now.Unix(), 0),
		UpdatedAt: time.Unix(now.Unix(), 0),
	}, nil
}

// GetSession retrieves a session by id. Returns nil when absent.
func (s *SQLiteStore) GetSession(ctx context.Context, id int64) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, model, active, created_at, updated_at
		 FROM sessions WHERE id = ?`, id)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return sess, nil
}

// ListSessions returns up to limit sessions, most recently updated first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID int64, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, model, active, created_at, updated_at
		 FROM sessions WHERE user_id = ?
		 ORDER BY updated_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close session rows", "error", closeErr)
		}
	}()

	var sessions []*domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var sess domain.Session
	var title sql.NullString
	var active int
	var createdAt, updatedAt int64

	err := row.Scan(&sess.ID, &sess.UserID, &title, &sess.Model, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	sess.Title = title.String
	sess.Active = active != 0
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)
	return &sess, nil
}

// AppendMessage appends one message and bumps the owning session's
// updated_at in the same transaction. The session must exist.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *domain.Message) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var metadata interface{}
	if msg.Metadata != "" {
		metadata = msg.Metadata
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, metadata_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.SessionID, msg.Role, msg.Content, metadata, createdAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get message id: %w", err)
	}

	touch, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`,
		createdAt.Unix(), msg.SessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("touch session: %w", err)
	}
	rows, err := touch.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return 0, fmt.Errorf("append message: session %d not found", msg.SessionID)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}
	return id, nil
}

// ListMessages returns a session's messages in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID int64) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, metadata_json, created_at
		 FROM messages WHERE session_id = ?
		 ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close message rows", "error", closeErr)
		}
	}()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var metadata sql.NullString
		var createdAt int64

		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.Metadata = metadata.String
		msg.CreatedAt = time.Unix(createdAt, 0)
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// CountMessages returns the number of messages in a session.
func (s *SQLiteStore) CountMessages(ctx context.Context, sessionID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// DeleteSession removes a session and all its messages. Retries on SQLITE_BUSY
// with exponential backoff.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id int64) error {
	return withRetry("DeleteSession", func() error {
		return s.deleteSessionOnce(ctx, id)
	})
}

func (s *SQLiteStore) deleteSessionOnce(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Explicit child delete; the FK cascade is belt and braces for older
	// database files created without foreign_keys enabled.
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete session messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// PurgeSessions removes every session and message.
func (s *SQLiteStore) PurgeSessions(ctx context.Context) (int64, int64, error) {
	var sessions, messages int64
	err := withRetry("PurgeSessions", func() error {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin purge: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		res, err := tx.ExecContext(ctx, `DELETE FROM messages`)
		if err != nil {
			return fmt.Errorf("purge messages: %w", err)
		}
		if messages, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM sessions`)
		if err != nil {
			return fmt.Errorf("purge sessions: %w", err)
		}
		if sessions, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit purge: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return sessions, messages, nil
}

// Stats reports row counts and database size.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&stats.Sessions); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&stats.Messages); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	var oldest, newest sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MIN(created_at), MAX(created_at) FROM messages`).Scan(&oldest, &newest); err != nil {
		return nil, fmt.Errorf("message time range: %w", err)
	}
	if oldest.Valid {
		stats.Oldest = time.Unix(oldest.Int64, 0)
	}
	if newest.Valid {
		stats.Newest = time.Unix(newest.Int64, 0)
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.SizeBytes = info.Size()
	}

	return stats, nil
}

// Vacuum rebuilds the database file, reclaiming free pages.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("vacuum database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
