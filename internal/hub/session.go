package hub

// Session is one live transport connection as seen by the hub.
//
// UserID is zero until a join command binds the session to an identity;
// it is written only by the hub loop. AuthUserID is the identity proven
// by the transport handshake and never changes.
type Session struct {
	ID         string
	AuthUserID int64
	UserID     int64
	Commands   chan *Command
	Events     chan *Event
}

// NewSession constructs a session with initialized channels.
func NewSession(id string, authUserID int64) *Session {
	return &Session{
		ID:         id,
		AuthUserID: authUserID,
		Commands:   make(chan *Command, 8),
		Events:     make(chan *Event, 8),
	}
}

// deliver attempts a non-blocking event send. Returns false if the
// session's buffer is full (slow consumer).
func (s *Session) deliver(ev *Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}
