package hub

import "github.com/gossips-social/gossips-hub/internal/store"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin binds the session to a user identity in the registry.
	CommandJoin CommandKind = iota
	// CommandSendMessage persists a direct message and fans it out.
	CommandSendMessage
	// CommandMarkRead flips a message's read flag and notifies the sender.
	CommandMarkRead
	// CommandDeleteChat bulk-deletes the thread with a counterpart.
	CommandDeleteChat
	// CommandRestrictUser notifies a user they have been restricted.
	CommandRestrictUser
	// CommandBlockUser notifies a user they have been blocked.
	CommandBlockUser
	// CommandReportUser notifies a user they have been reported.
	CommandReportUser
)

// Command represents an action requested by a client session.
type Command struct {
	Kind CommandKind

	// UserID is the identity presented on join.
	UserID int64
	// ReceiverID is the message recipient or thread counterpart.
	ReceiverID int64
	// TargetID is the subject of a restrict/block/report action.
	TargetID int64

	MessageID string
	Content   string
	Media     []store.MessageMedia
	// TempID is the client's optimistic placeholder token, echoed back
	// on delivery so the sender can reconcile.
	TempID string
}
