package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin         = "join"
	InboundTypeSendMessage  = "sendMessage"
	InboundTypeMarkAsRead   = "markAsRead"
	InboundTypeDeleteChat   = "deleteChat"
	InboundTypeRestrictUser = "restrictUser"
	InboundTypeBlockUser    = "blockUser"
	InboundTypeReportUser   = "reportUser"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventReceiveMessage     = "receiveMessage"
	EventMessageRead        = "messageRead"
	EventChatDeleted        = "chatDeleted"
	EventUserRestricted     = "userRestricted"
	EventUserBlocked        = "userBlocked"
	EventUserReported       = "userReported"
	EventFollowStatusUpdate = "followStatusUpdate"
)

// JoinData binds the connection to a user identity.
type JoinData struct {
	UserID int64 `json:"userId"`
}

// MediaItem is one attachment on an outgoing message.
type MediaItem struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// SendMessageData is a direct message from the client. The server
// ignores any client-supplied timestamp; tempId is echoed back on
// delivery for optimistic reconciliation.
type SendMessageData struct {
	ReceiverID int64       `json:"receiverId"`
	Content    string      `json:"content"`
	Media      []MediaItem `json:"media,omitempty"`
	TempID     string      `json:"tempId,omitempty"`
}

// MarkAsReadData flips a message's read flag.
type MarkAsReadData struct {
	MessageID  string `json:"messageId"`
	ReceiverID int64  `json:"receiverId,omitempty"`
}

// DeleteChatData removes the whole thread with a counterpart.
type DeleteChatData struct {
	ReceiverID int64 `json:"receiverId"`
}

// ModerationData targets a user with a restrict/block/report action.
type ModerationData struct {
	TargetUserID int64 `json:"targetUserId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// MessagePayload is the wire form of a persisted message.
type MessagePayload struct {
	ID               string      `json:"_id"`
	SenderID         int64       `json:"senderId"`
	ReceiverID       int64       `json:"receiverId"`
	SenderUsername   string      `json:"senderUsername"`
	ReceiverUsername string      `json:"receiverUsername"`
	Content          string      `json:"content,omitempty"`
	Media            []MediaItem `json:"media,omitempty"`
	IsRead           bool        `json:"isRead"`
	CreatedAt        time.Time   `json:"createdAt"`
	TempID           string      `json:"tempId,omitempty"`
}

// MessageReadPayload confirms a read receipt.
type MessageReadPayload struct {
	MessageID string `json:"messageId"`
	ReaderID  int64  `json:"readerId"`
}

// ChatDeletedPayload tells both parties a thread is gone.
type ChatDeletedPayload struct {
	UserID        int64 `json:"userId"`
	CounterpartID int64 `json:"counterpartId"`
}

// ModerationPayload notifies about a restrict/block/report outcome.
type ModerationPayload struct {
	ActorID  int64 `json:"actorId"`
	TargetID int64 `json:"targetId"`
}

// FollowStatusPayload carries a follow-state change. Status is one of
// "requested" or "accepted" while an edge exists and empty after an
// unfollow; Following is true only for an accepted edge.
type FollowStatusPayload struct {
	FollowerID       int64  `json:"followerId"`
	FolloweeID       int64  `json:"followeeId"`
	FollowerUsername string `json:"followerUsername,omitempty"`
	Status           string `json:"status,omitempty"`
	Following        bool   `json:"following"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
