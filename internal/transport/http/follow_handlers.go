package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gossips-social/gossips-hub/internal/hub"
	"github.com/gossips-social/gossips-hub/internal/proto"
	"github.com/gossips-social/gossips-hub/internal/store"
)

// FollowHandlers manages the follow graph. A follow starts as a request
// and becomes a real follow once the followee accepts it. After each
// successful write the affected user's live sessions get a
// followStatusUpdate push through the hub; the push is best-effort and
// the HTTP response stays the source of truth.
type FollowHandlers struct {
	hub   *hub.Hub
	store store.Store
	log   *zerolog.Logger
}

// NewFollowHandlers creates a new follow handlers instance.
func NewFollowHandlers(h *hub.Hub, st store.Store, logger *zerolog.Logger) *FollowHandlers {
	return &FollowHandlers{
		hub:   h,
		store: st,
		log:   logger,
	}
}

// FollowResponse reports the resulting follow state.
type FollowResponse struct {
	FollowerID int64  `json:"followerId"`
	FolloweeID int64  `json:"followeeId"`
	Status     string `json:"status,omitempty"`
	Following  bool   `json:"following"`
}

// Follow creates a follow request from the caller to the target user.
// The followee's live sessions hear about the pending request.
// POST /api/follow/:userID
func (h *FollowHandlers) Follow(c *gin.Context) {
	userID, username, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	targetID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || targetID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}
	if targetID == userID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot follow yourself"})
		return
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), targetID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("target_id", targetID).Msg("lookup followee")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	follow, err := h.store.CreateFollow(c.Request.Context(), userID, targetID)
	if err != nil {
		h.log.Error().Err(err).Int64("follower_id", userID).Int64("followee_id", targetID).Msg("create follow")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.notifyFollowStatus(targetID, proto.FollowStatusPayload{
		FollowerID:       userID,
		FolloweeID:       targetID,
		FollowerUsername: username,
		Status:           string(follow.Status),
		Following:        follow.Status == store.FollowStatusAccepted,
	})

	h.log.Info().
		Int64("follower_id", userID).
		Int64("followee_id", targetID).
		Str("status", string(follow.Status)).
		Msg("follow requested")
	c.JSON(http.StatusCreated, FollowResponse{
		FollowerID: userID,
		FolloweeID: targetID,
		Status:     string(follow.Status),
		Following:  follow.Status == store.FollowStatusAccepted,
	})
}

// Accept approves a pending follow request. The caller is the followee;
// the path names the follower whose request is approved. The follower's
// live sessions hear that the follow went through.
// POST /api/follow/:userID/accept
func (h *FollowHandlers) Accept(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	followerID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || followerID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	follow, err := h.store.AcceptFollow(c.Request.Context(), followerID, userID)
	if err != nil {
		if errors.Is(err, store.ErrFollowNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "follow request not found"})
			return
		}
		h.log.Error().Err(err).Int64("follower_id", followerID).Int64("followee_id", userID).Msg("accept follow")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	followerUsername := ""
	if follower, err := h.store.GetUserByID(c.Request.Context(), followerID); err == nil {
		followerUsername = follower.Username
	}

	h.notifyFollowStatus(followerID, proto.FollowStatusPayload{
		FollowerID:       followerID,
		FolloweeID:       userID,
		FollowerUsername: followerUsername,
		Status:           string(follow.Status),
		Following:        true,
	})

	h.log.Info().Int64("follower_id", followerID).Int64("followee_id", userID).Msg("follow accepted")
	c.JSON(http.StatusOK, FollowResponse{
		FollowerID: followerID,
		FolloweeID: userID,
		Status:     string(follow.Status),
		Following:  true,
	})
}

// Unfollow removes the follow edge from the caller to the target user,
// whether pending or accepted. Removing a non-existent edge succeeds but
// pushes nothing; the target must never hear about a no-op.
// DELETE /api/follow/:userID
func (h *FollowHandlers) Unfollow(c *gin.Context) {
	userID, username, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	targetID, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || targetID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	deleted, err := h.store.DeleteFollow(c.Request.Context(), userID, targetID)
	if err != nil {
		h.log.Error().Err(err).Int64("follower_id", userID).Int64("followee_id", targetID).Msg("delete follow")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if deleted {
		h.notifyFollowStatus(targetID, proto.FollowStatusPayload{
			FollowerID:       userID,
			FolloweeID:       targetID,
			FollowerUsername: username,
			Following:        false,
		})
	}

	c.JSON(http.StatusOK, FollowResponse{FollowerID: userID, FolloweeID: targetID, Following: false})
}

// notifyFollowStatus pushes a state change to one user's live sessions.
// Called only after the store write committed.
func (h *FollowHandlers) notifyFollowStatus(userID int64, payload proto.FollowStatusPayload) {
	h.hub.Notify(userID, &hub.Event{
		Kind:    hub.EventFollowStatus,
		Payload: payload,
	})
}
