package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all store implementations.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrFollowNotFound  = errors.New("follow not found")
)

// User represents a user account in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
}

// MediaKind tags a message attachment with its type.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindGif   MediaKind = "gif"
)

// MessageMedia is one attachment carried by a message.
type MessageMedia struct {
	Kind MediaKind `json:"kind"`
	URL  string    `json:"url"`
}

// Message is a persisted direct message between two users.
// Sender, receiver and created_at never change after insert; only the
// read flag mutates.
type Message struct {
	ID               string
	SenderID         int64
	ReceiverID       int64
	SenderUsername   string
	ReceiverUsername string
	Content          string
	Media            []MessageMedia
	IsRead           bool
	CreatedAt        time.Time
}

// ConversationSummary is a derived view: the latest message exchanged
// with one counterpart. It is computed, never stored.
type ConversationSummary struct {
	CounterpartID       int64
	CounterpartUsername string
	LastMessage         *Message
}

// FollowStatus tracks where a follow edge is in its lifecycle. A new
// follow starts as a request; only the followee moves it to accepted.
type FollowStatus string

const (
	FollowStatusRequested FollowStatus = "requested"
	FollowStatusAccepted  FollowStatus = "accepted"
)

// Follow is a follower-to-followee edge in the follow graph.
type Follow struct {
	FollowerID int64
	FolloweeID int64
	Status     FollowStatus
	CreatedAt  time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with a hashed password.
	CreateUser(ctx context.Context, username, passwordHash, fullName string) (*User, error)

	// GetUserByID retrieves a user by ID.
	// Returns ErrUserNotFound when no such user exists.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	// Returns ErrUserNotFound when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore handles direct-message persistence. This is the contract
// the realtime hub consumes; the engine behind it is swappable.
type MessageStore interface {
	// CreateMessage persists a new message.
	CreateMessage(ctx context.Context, msg *Message) error

	// MarkMessageRead flips the read flag of a message, enforcing that
	// receiverID is the message's receiver. Returns the updated message,
	// or ErrMessageNotFound when no message matches both id and receiver.
	// Marking an already-read message again is a no-op that still
	// returns the message.
	MarkMessageRead(ctx context.Context, messageID string, receiverID int64) (*Message, error)

	// DeleteMessagesBetween removes every message exchanged between the
	// two users, in both directions, and reports how many were deleted.
	DeleteMessagesBetween(ctx context.Context, userA, userB int64) (int64, error)

	// ListMessagesBetween returns the messages exchanged between two
	// users ordered by creation time ascending.
	ListMessagesBetween(ctx context.Context, userA, userB int64, limit int) ([]*Message, error)

	// ListConversations returns one summary per counterpart the user has
	// exchanged messages with, newest conversation first. Ordering among
	// messages sharing a timestamp is not guaranteed.
	ListConversations(ctx context.Context, userID int64) ([]*ConversationSummary, error)
}

// FollowStore handles the follow graph.
type FollowStore interface {
	// CreateFollow inserts a follower-to-followee edge in the requested
	// state. Inserting an existing edge is a no-op that preserves its
	// current status. Returns the edge as stored.
	CreateFollow(ctx context.Context, followerID, followeeID int64) (*Follow, error)

	// AcceptFollow moves the edge to the accepted state. Idempotent on
	// an already-accepted edge. Returns ErrFollowNotFound when the edge
	// does not exist.
	AcceptFollow(ctx context.Context, followerID, followeeID int64) (*Follow, error)

	// GetFollow returns the edge, or ErrFollowNotFound.
	GetFollow(ctx context.Context, followerID, followeeID int64) (*Follow, error)

	// DeleteFollow removes a follower-to-followee edge in any state and
	// reports whether an edge was actually removed.
	DeleteFollow(ctx context.Context, followerID, followeeID int64) (bool, error)

	// IsFollowing reports whether an accepted edge exists. A pending
	// request does not count.
	IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	FollowStore

	// Close closes the underlying database connection.
	Close() error
}
