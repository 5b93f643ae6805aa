package hub

// Registry is the authoritative in-memory mapping from user identity to
// live sessions. A user may hold several sessions at once (multiple tabs
// or devices); every emit iterates the whole set, so reconnecting never
// strands an older session.
//
// The registry is owned by the hub loop and is not safe for concurrent
// use. It holds no persistent state: a process restart empties it and
// clients must re-join.
type Registry struct {
	sessions map[int64]map[*Session]struct{}
	owners   map[*Session]int64
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]map[*Session]struct{}),
		owners:   make(map[*Session]int64),
	}
}

// Register binds a session to a user identity. Re-registering a session
// under a different identity moves it; the old binding is removed first.
func (r *Registry) Register(userID int64, s *Session) {
	if prev, ok := r.owners[s]; ok {
		if prev == userID {
			return
		}
		r.remove(prev, s)
	}

	set, ok := r.sessions[userID]
	if !ok {
		set = make(map[*Session]struct{})
		r.sessions[userID] = set
	}
	set[s] = struct{}{}
	r.owners[s] = userID
}

// Lookup returns the live sessions for a user. The slice is a copy; an
// empty result means the user is offline.
func (r *Registry) Lookup(userID int64) []*Session {
	set, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

// Deregister removes a session wherever it is bound. Returns true if the
// session was registered.
func (r *Registry) Deregister(s *Session) bool {
	userID, ok := r.owners[s]
	if !ok {
		return false
	}
	r.remove(userID, s)
	return true
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	return len(r.owners)
}

func (r *Registry) remove(userID int64, s *Session) {
	delete(r.owners, s)
	if set, ok := r.sessions[userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(r.sessions, userID)
		}
	}
}
