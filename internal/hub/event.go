package hub

import "github.com/gossips-social/gossips-hub/internal/store"

// EventKind is a notification the hub emits to sessions.
type EventKind int

const (
	// EventMessageReceived carries a freshly persisted message to both
	// parties' live sessions.
	EventMessageReceived EventKind = iota
	// EventMessageRead tells the sender (and echoes to the reader) that
	// a message was read.
	EventMessageRead
	// EventChatDeleted tells both parties that a thread was removed.
	EventChatDeleted
	// EventUserRestricted notifies a user they have been restricted.
	EventUserRestricted
	// EventUserBlocked notifies a user they have been blocked.
	EventUserBlocked
	// EventUserReported notifies a user they have been reported.
	EventUserReported
	// EventFollowStatus carries a follow-state change pushed from the
	// REST side.
	EventFollowStatus
	// EventError notifies the acting session about a domain error.
	EventError
)

// Event is sent to sessions to describe what happened in the system.
// Events are ephemeral: if the target user has no live session the
// event is dropped, never queued.
type Event struct {
	Kind EventKind

	Message *store.Message
	// TempID echoes the client's optimistic placeholder token on
	// EventMessageReceived.
	TempID string

	MessageID string
	ReaderID  int64

	// ActorID and TargetID identify the two parties of delete/restrict/
	// block/report events.
	ActorID  int64
	TargetID int64

	// Payload carries REST-originated notification data (follow-state
	// changes). Must be JSON-serializable.
	Payload any

	Error *HubError
}
