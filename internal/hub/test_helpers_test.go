package hub

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gossips-social/gossips-hub/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func mustNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got kind %d: %+v", ev.Kind, ev)
	case <-time.After(100 * time.Millisecond):
	}
}

// fakeStore is an in-memory store for hub tests. The mutex guards
// against test goroutines inspecting state while the hub loop writes.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*store.User
	messages map[string]*store.Message
}

func newFakeStore(users ...*store.User) *fakeStore {
	fs := &fakeStore{
		users:    make(map[int64]*store.User),
		messages: make(map[string]*store.Message),
	}
	for _, u := range users {
		fs.users[u.ID] = u
	}
	return fs
}

func (f *fakeStore) CreateUser(_ context.Context, username, passwordHash, fullName string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &store.User{ID: int64(len(f.users) + 1), Username: username, PasswordHash: passwordHash, FullName: fullName}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeStore) CreateMessage(_ context.Context, msg *store.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *msg
	f.messages[msg.ID] = &cp
	return nil
}

func (f *fakeStore) MarkMessageRead(_ context.Context, messageID string, receiverID int64) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok || msg.ReceiverID != receiverID {
		return nil, store.ErrMessageNotFound
	}
	msg.IsRead = true
	cp := *msg
	return &cp, nil
}

func (f *fakeStore) DeleteMessagesBetween(_ context.Context, userA, userB int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, msg := range f.messages {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			delete(f.messages, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) ListMessagesBetween(_ context.Context, userA, userB int64, _ int) ([]*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Message
	for _, msg := range f.messages {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) ListConversations(_ context.Context, _ int64) ([]*store.ConversationSummary, error) {
	return nil, nil
}

func (f *fakeStore) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeStore) message(id string) *store.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil
	}
	cp := *msg
	return &cp
}

// startTestHub runs a hub over the fake store and returns it with a
// cancel for cleanup.
func startTestHub(t *testing.T, fs *fakeStore) *Hub {
	t.Helper()

	h := New(fs, fs, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

var sessionSeq int

// joinedSession attaches a session authenticated as userID, joins it
// and waits for the registration to land.
func joinedSession(t *testing.T, h *Hub, userID int64) *Session {
	t.Helper()

	sessionSeq++
	s := NewSession(fmt.Sprintf("s%d", sessionSeq), userID)
	h.Attach(s)

	before := h.SessionCount(context.Background(), userID)
	s.Commands <- &Command{Kind: CommandJoin, UserID: userID}
	waitSessions(t, h, userID, before+1)
	return s
}

// waitSessions blocks until the user has at least n live sessions.
func waitSessions(t *testing.T, h *Hub, userID int64, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.SessionCount(context.Background(), userID) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %d never reached %d sessions", userID, n)
}
