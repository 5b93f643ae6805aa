package hub

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gossips-social/gossips-hub/internal/store"
)

// Hub is the realtime core: it owns the connection registry and
// processes every inbound command on a single loop, so handlers never
// race each other. Store calls happen inline; one slow handler delays
// the queue but never corrupts state.
type Hub struct {
	users    store.UserStore
	messages store.MessageStore
	registry *Registry
	log      *zerolog.Logger

	inbox      chan submission
	unregister chan *Session
	notify     chan notification
	presence   chan presenceQuery
	done       chan struct{}
}

type presenceQuery struct {
	userID int64
	reply  chan int
}

type submission struct {
	session *Session
	command *Command
}

type notification struct {
	userID int64
	event  *Event
}

// New constructs a hub backed by the given stores.
func New(users store.UserStore, messages store.MessageStore, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		users:      users,
		messages:   messages,
		registry:   NewRegistry(),
		log:        logger,
		inbox:      make(chan submission, 64),
		unregister: make(chan *Session, 16),
		notify:     make(chan notification, 256),
		presence:   make(chan presenceQuery),
		done:       make(chan struct{}),
	}
}

// Run processes commands and notifications until the context is
// cancelled. Call it in a goroutine before attaching sessions. After it
// returns, Attach pumps and Detach calls unwind instead of blocking, so
// connections closing during shutdown never leak goroutines.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.unregister:
			if h.registry.Deregister(s) {
				h.log.Debug().Str("session_id", s.ID).Int64("user_id", s.UserID).Msg("session deregistered")
			}
		case sub := <-h.inbox:
			h.handle(ctx, sub.session, sub.command)
		case n := <-h.notify:
			h.emitTo(n.userID, n.event)
		case q := <-h.presence:
			q.reply <- len(h.registry.Lookup(q.userID))
		}
	}
}

// Attach starts pumping the session's commands into the hub. The session
// stays un-routable until it sends a join command.
func (h *Hub) Attach(s *Session) {
	go func() {
		// Once the hub loop has stopped, commands are drained and
		// discarded so the transport's reader never blocks on a full
		// buffer; the pump itself exits when the reader closes Commands.
		for cmd := range s.Commands {
			select {
			case h.inbox <- submission{session: s, command: cmd}:
			case <-h.done:
			}
		}
	}()
}

// Detach removes the session from the registry. Guaranteed to take
// effect exactly once per session; callers tie it to the transport's
// close signal. After the hub loop has stopped there is nothing left to
// deregister from and the call returns immediately.
func (h *Hub) Detach(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Notify pushes a REST-originated event to one user's live sessions.
// Best-effort: if the user is offline or the hub is saturated the event
// is dropped. Callers must treat the REST response as the source of
// truth and never block on this.
func (h *Hub) Notify(userID int64, ev *Event) {
	select {
	case h.notify <- notification{userID: userID, event: ev}:
	default:
		h.log.Warn().Int64("user_id", userID).Msg("notify queue full, event dropped")
	}
}

// SessionCount reports how many live sessions a user currently holds.
// Zero means offline. The query runs on the hub loop, so the answer is
// consistent with command processing order; it returns zero when the
// hub is not running.
func (h *Hub) SessionCount(ctx context.Context, userID int64) int {
	q := presenceQuery{userID: userID, reply: make(chan int, 1)}
	select {
	case h.presence <- q:
		return <-q.reply
	case <-h.done:
		return 0
	case <-ctx.Done():
		return 0
	}
}

// handle routes one command to its handler. Failures are contained here:
// they become error events on the acting session and never terminate the
// connection or touch other sessions.
func (h *Hub) handle(ctx context.Context, s *Session, cmd *Command) {
	switch cmd.Kind {
	case CommandJoin:
		h.handleJoin(s, cmd)
	case CommandSendMessage:
		h.handleSendMessage(ctx, s, cmd)
	case CommandMarkRead:
		h.handleMarkRead(ctx, s, cmd)
	case CommandDeleteChat:
		h.handleDeleteChat(ctx, s, cmd)
	case CommandRestrictUser:
		h.handleModeration(ctx, s, cmd, EventUserRestricted)
	case CommandBlockUser:
		h.handleModeration(ctx, s, cmd, EventUserBlocked)
	case CommandReportUser:
		h.handleModeration(ctx, s, cmd, EventUserReported)
	default:
		h.emitError(s, ErrCodeBadRequest, "unknown command")
	}
}

func (h *Hub) handleJoin(s *Session, cmd *Command) {
	if cmd.UserID <= 0 {
		h.log.Warn().Str("session_id", s.ID).Msg("join without user id ignored")
		h.emitError(s, ErrCodeBadRequest, "user id is required")
		return
	}
	if s.AuthUserID != 0 && cmd.UserID != s.AuthUserID {
		h.log.Warn().
			Str("session_id", s.ID).
			Int64("claimed", cmd.UserID).
			Int64("authenticated", s.AuthUserID).
			Msg("join identity mismatch")
		h.emitError(s, ErrCodeIdentityMismatch, "user id does not match credentials")
		return
	}

	s.UserID = cmd.UserID
	h.registry.Register(cmd.UserID, s)
	h.log.Debug().Str("session_id", s.ID).Int64("user_id", cmd.UserID).Msg("session joined")
}

// emitTo delivers an event to every live session of a user. Returns the
// number of sessions reached; zero means the user is offline and the
// event is gone.
func (h *Hub) emitTo(userID int64, ev *Event) int {
	delivered := 0
	for _, s := range h.registry.Lookup(userID) {
		if s.deliver(ev) {
			delivered++
		} else {
			h.log.Warn().Str("session_id", s.ID).Int64("user_id", userID).Msg("slow consumer, event dropped")
		}
	}
	return delivered
}

func (h *Hub) emitError(s *Session, code, msg string) {
	s.deliver(&Event{Kind: EventError, Error: hubError(code, msg)})
}
