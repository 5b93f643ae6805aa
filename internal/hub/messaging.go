package hub

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gossips-social/gossips-hub/internal/store"
)

// handleSendMessage validates, persists and fans out one direct message.
//
// Both parties must resolve to existing users before anything is
// written. The stored created_at is server time; a client-supplied
// timestamp is never trusted. The persisted message goes to the
// receiver's and the sender's live sessions, carrying the client's
// tempId so the sender can swap its optimistic placeholder for the
// canonical record.
func (h *Hub) handleSendMessage(ctx context.Context, s *Session, cmd *Command) {
	if s.UserID == 0 {
		h.emitError(s, ErrCodeNotJoined, "join before sending messages")
		return
	}
	if cmd.ReceiverID <= 0 {
		h.emitError(s, ErrCodeBadRequest, "receiver id is required")
		return
	}
	if cmd.Content == "" && len(cmd.Media) == 0 {
		h.emitError(s, ErrCodeBadRequest, "message is empty")
		return
	}

	sender, err := h.users.GetUserByID(ctx, s.UserID)
	if err != nil {
		h.emitLookupError(s, err, "sender not found")
		return
	}
	receiver, err := h.users.GetUserByID(ctx, cmd.ReceiverID)
	if err != nil {
		h.emitLookupError(s, err, "receiver not found")
		return
	}

	msg := &store.Message{
		ID:               uuid.NewString(),
		SenderID:         sender.ID,
		ReceiverID:       receiver.ID,
		SenderUsername:   sender.Username,
		ReceiverUsername: receiver.Username,
		Content:          cmd.Content,
		Media:            cmd.Media,
		IsRead:           false,
		CreatedAt:        time.Now().UTC(),
	}

	if err := h.messages.CreateMessage(ctx, msg); err != nil {
		h.log.Error().Err(err).Str("message_id", msg.ID).Msg("persist message")
		h.emitError(s, ErrCodeInternal, "failed to store message")
		return
	}

	ev := &Event{Kind: EventMessageReceived, Message: msg, TempID: cmd.TempID}
	h.emitTo(receiver.ID, ev)
	if sender.ID != receiver.ID {
		h.emitTo(sender.ID, ev)
	}
}

// handleMarkRead flips a message's read flag. Only the message's
// receiver may mark it; a session acting for anyone else is rejected.
// Re-marking an already-read message succeeds and re-emits.
func (h *Hub) handleMarkRead(ctx context.Context, s *Session, cmd *Command) {
	if s.UserID == 0 {
		h.emitError(s, ErrCodeNotJoined, "join before marking messages")
		return
	}
	if cmd.MessageID == "" {
		h.emitError(s, ErrCodeBadRequest, "message id is required")
		return
	}
	if cmd.ReceiverID != 0 && cmd.ReceiverID != s.UserID {
		h.emitError(s, ErrCodeForbidden, "only the receiver may mark a message read")
		return
	}

	msg, err := h.messages.MarkMessageRead(ctx, cmd.MessageID, s.UserID)
	if err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			h.emitError(s, ErrCodeMessageNotFound, "message not found")
			return
		}
		h.log.Error().Err(err).Str("message_id", cmd.MessageID).Msg("mark message read")
		h.emitError(s, ErrCodeInternal, "failed to mark message read")
		return
	}

	ev := &Event{Kind: EventMessageRead, MessageID: msg.ID, ReaderID: s.UserID, Message: msg}
	h.emitTo(msg.ReceiverID, ev)
	if msg.SenderID != msg.ReceiverID {
		h.emitTo(msg.SenderID, ev)
	}
}

// handleDeleteChat bulk-deletes the thread with a counterpart, both
// directions, and tells both parties so open conversation views clear.
func (h *Hub) handleDeleteChat(ctx context.Context, s *Session, cmd *Command) {
	if s.UserID == 0 {
		h.emitError(s, ErrCodeNotJoined, "join before deleting chats")
		return
	}
	if cmd.ReceiverID <= 0 {
		h.emitError(s, ErrCodeBadRequest, "receiver id is required")
		return
	}

	count, err := h.messages.DeleteMessagesBetween(ctx, s.UserID, cmd.ReceiverID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", s.UserID).Int64("counterpart_id", cmd.ReceiverID).Msg("delete chat")
		h.emitError(s, ErrCodeInternal, "failed to delete chat")
		return
	}
	h.log.Info().Int64("user_id", s.UserID).Int64("counterpart_id", cmd.ReceiverID).Int64("deleted", count).Msg("chat deleted")

	ev := &Event{Kind: EventChatDeleted, ActorID: s.UserID, TargetID: cmd.ReceiverID}
	h.emitTo(s.UserID, ev)
	if cmd.ReceiverID != s.UserID {
		h.emitTo(cmd.ReceiverID, ev)
	}
}

// handleModeration pushes a restrict/block/report outcome to the target
// user's sessions. Blocking also echoes to the actor so their other tabs
// update.
func (h *Hub) handleModeration(ctx context.Context, s *Session, cmd *Command, kind EventKind) {
	if s.UserID == 0 {
		h.emitError(s, ErrCodeNotJoined, "join before moderating users")
		return
	}
	if cmd.TargetID <= 0 {
		h.emitError(s, ErrCodeBadRequest, "target user id is required")
		return
	}

	target, err := h.users.GetUserByID(ctx, cmd.TargetID)
	if err != nil {
		h.emitLookupError(s, err, "target user not found")
		return
	}

	ev := &Event{Kind: kind, ActorID: s.UserID, TargetID: target.ID}
	h.emitTo(target.ID, ev)
	if kind == EventUserBlocked && target.ID != s.UserID {
		h.emitTo(s.UserID, ev)
	}
}

func (h *Hub) emitLookupError(s *Session, err error, msg string) {
	if errors.Is(err, store.ErrUserNotFound) {
		h.emitError(s, ErrCodeUserNotFound, msg)
		return
	}
	h.log.Error().Err(err).Msg("user lookup")
	h.emitError(s, ErrCodeInternal, "user lookup failed")
}
