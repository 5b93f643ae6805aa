package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gossips-social/gossips-hub/internal/store"
)

// Schema is the database schema applied on startup.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id                TEXT PRIMARY KEY,
	sender_id         INTEGER NOT NULL,
	receiver_id       INTEGER NOT NULL,
	sender_username   TEXT NOT NULL,
	receiver_username TEXT NOT NULL,
	content           TEXT NOT NULL DEFAULT '',
	media             TEXT NOT NULL DEFAULT '[]',
	is_read           BOOLEAN NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL,
	FOREIGN KEY (sender_id) REFERENCES users(id),
	FOREIGN KEY (receiver_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages(receiver_id, created_at);

CREATE TABLE IF NOT EXISTS follows (
	follower_id INTEGER NOT NULL,
	followee_id INTEGER NOT NULL,
	status      TEXT NOT NULL DEFAULT 'requested',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (follower_id, followee_id),
	FOREIGN KEY (follower_id) REFERENCES users(id),
	FOREIGN KEY (followee_id) REFERENCES users(id)
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with a hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash, fullName string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, full_name)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash, fullName)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, full_name, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, full_name, created_at
		FROM users
		WHERE username = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FullName,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// ==== MessageStore implementation ====

const messageColumns = `id, sender_id, receiver_id, sender_username, receiver_username, content, media, is_read, created_at`

// CreateMessage persists a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	media, err := json.Marshal(msg.Media)
	if err != nil {
		return fmt.Errorf("marshal media: %w", err)
	}

	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		msg.ID,
		msg.SenderID,
		msg.ReceiverID,
		msg.SenderUsername,
		msg.ReceiverUsername,
		msg.Content,
		string(media),
		msg.IsRead,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// MarkMessageRead flips the read flag of a message owned by receiverID.
// The receiver check happens in the WHERE clause so a caller pretending
// to be someone else cannot flip another user's message.
func (s *SQLiteStore) MarkMessageRead(ctx context.Context, messageID string, receiverID int64) (*store.Message, error) {
	query := `
		UPDATE messages
		SET is_read = 1
		WHERE id = ? AND receiver_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, messageID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrMessageNotFound
	}

	return s.getMessage(ctx, messageID)
}

func (s *SQLiteStore) getMessage(ctx context.Context, id string) (*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`

	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrMessageNotFound
		}
		return nil, err
	}
	return msg, nil
}

// DeleteMessagesBetween removes all messages between two users, in both
// directions.
func (s *SQLiteStore) DeleteMessagesBetween(ctx context.Context, userA, userB int64) (int64, error) {
	query := `
		DELETE FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
	`
	result, err := s.db.ExecContext(ctx, query, userA, userB, userB, userA)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// ListMessagesBetween returns messages between two users ordered by
// creation time ascending.
func (s *SQLiteStore) ListMessagesBetween(ctx context.Context, userA, userB int64, limit int) ([]*store.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC
	`
	args := []any{userA, userB, userB, userA}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListConversations reduces the user's messages to one summary per
// counterpart, keeping the most recent message. The reduction runs in Go
// over a newest-first scan; the first message seen per counterpart wins.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID int64) ([]*store.ConversationSummary, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	seen := make(map[int64]bool)
	var summaries []*store.ConversationSummary
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}

		counterpartID := msg.ReceiverID
		counterpartUsername := msg.ReceiverUsername
		if msg.ReceiverID == userID {
			counterpartID = msg.SenderID
			counterpartUsername = msg.SenderUsername
		}

		if seen[counterpartID] {
			continue
		}
		seen[counterpartID] = true

		summaries = append(summaries, &store.ConversationSummary{
			CounterpartID:       counterpartID,
			CounterpartUsername: counterpartUsername,
			LastMessage:         msg,
		})
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*store.Message, error) {
	var msg store.Message
	var media string
	err := row.Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.SenderUsername,
		&msg.ReceiverUsername,
		&msg.Content,
		&media,
		&msg.IsRead,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(media), &msg.Media); err != nil {
		return nil, fmt.Errorf("unmarshal media: %w", err)
	}
	return &msg, nil
}

// ==== FollowStore implementation ====

// CreateFollow inserts a follow request; an existing edge keeps its
// current status.
func (s *SQLiteStore) CreateFollow(ctx context.Context, followerID, followeeID int64) (*store.Follow, error) {
	query := `
		INSERT OR IGNORE INTO follows (follower_id, followee_id, status)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, followerID, followeeID, store.FollowStatusRequested); err != nil {
		return nil, fmt.Errorf("insert follow: %w", err)
	}
	return s.GetFollow(ctx, followerID, followeeID)
}

// AcceptFollow flips the edge to accepted. Accepting an already-accepted
// edge is a no-op.
func (s *SQLiteStore) AcceptFollow(ctx context.Context, followerID, followeeID int64) (*store.Follow, error) {
	query := `
		UPDATE follows
		SET status = ?
		WHERE follower_id = ? AND followee_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, store.FollowStatusAccepted, followerID, followeeID)
	if err != nil {
		return nil, fmt.Errorf("accept follow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, store.ErrFollowNotFound
	}
	return s.GetFollow(ctx, followerID, followeeID)
}

// GetFollow returns the edge between two users.
func (s *SQLiteStore) GetFollow(ctx context.Context, followerID, followeeID int64) (*store.Follow, error) {
	var follow store.Follow
	row := s.db.QueryRowContext(ctx, `
		SELECT follower_id, followee_id, status, created_at
		FROM follows
		WHERE follower_id = ? AND followee_id = ?
	`, followerID, followeeID)
	if err := row.Scan(&follow.FollowerID, &follow.FolloweeID, &follow.Status, &follow.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrFollowNotFound
		}
		return nil, fmt.Errorf("query follow: %w", err)
	}
	return &follow, nil
}

// DeleteFollow removes a follow edge and reports whether one existed.
func (s *SQLiteStore) DeleteFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`
	result, err := s.db.ExecContext(ctx, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsFollowing reports whether an accepted follow edge exists. A pending
// request is not a follow yet.
func (s *SQLiteStore) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ? AND status = ?`
	var one int
	err := s.db.QueryRowContext(ctx, query, followerID, followeeID, store.FollowStatusAccepted).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query follow: %w", err)
	}
	return true, nil
}
