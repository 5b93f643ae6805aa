package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gossips-social/gossips-hub/internal/proto"
	"github.com/gossips-social/gossips-hub/internal/store"
)

// MessageHandlers serves message history and conversation summaries.
// The realtime hub never pushes backlog; clients fetch it here after
// (re)connecting.
type MessageHandlers struct {
	store store.MessageStore
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.MessageStore, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		log:   logger,
	}
}

// ConversationResponse is one row of the conversation list.
type ConversationResponse struct {
	CounterpartID       int64                 `json:"counterpartId"`
	CounterpartUsername string                `json:"counterpartUsername"`
	LastMessage         *proto.MessagePayload `json:"lastMessage"`
}

// ListConversations returns one summary per counterpart.
// GET /api/conversations
func (h *MessageHandlers) ListConversations(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	summaries, err := h.store.ListConversations(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("list conversations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]ConversationResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, ConversationResponse{
			CounterpartID:       s.CounterpartID,
			CounterpartUsername: s.CounterpartUsername,
			LastMessage:         messageToPayload(s.LastMessage, ""),
		})
	}
	c.JSON(http.StatusOK, out)
}

// ListMessages returns the thread between the caller and a counterpart,
// oldest first.
// GET /api/messages/:userID
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	counterpartID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || counterpartID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
	}

	messages, err := h.store.ListMessagesBetween(c.Request.Context(), userID, counterpartID, limit)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Int64("counterpart_id", counterpartID).Msg("list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]*proto.MessagePayload, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageToPayload(m, ""))
	}
	c.JSON(http.StatusOK, out)
}
