package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gossips-social/gossips-hub/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUsers(t *testing.T, s *SQLiteStore, names ...string) []*store.User {
	t.Helper()

	ctx := context.Background()
	users := make([]*store.User, 0, len(names))
	for _, name := range names {
		u, err := s.CreateUser(ctx, name, "hash", "")
		if err != nil {
			t.Fatalf("failed to create user %s: %v", name, err)
		}
		users = append(users, u)
	}
	return users
}

func newMessage(sender, receiver *store.User, content string, at time.Time) *store.Message {
	return &store.Message{
		ID:               uuid.NewString(),
		SenderID:         sender.ID,
		ReceiverID:       receiver.ID,
		SenderUsername:   sender.Username,
		ReceiverUsername: receiver.Username,
		Content:          content,
		CreatedAt:        at,
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUserByID(context.Background(), 42)
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateMessageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	users := seedUsers(t, s, "alice", "bob")
	ctx := context.Background()

	msg := newMessage(users[0], users[1], "hi", time.Now().UTC())
	msg.Media = []store.MessageMedia{
		{Kind: store.MediaKindImage, URL: "https://cdn.example/a.png"},
		{Kind: store.MediaKindGif, URL: "https://cdn.example/b.gif"},
	}

	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("create message: %v", err)
	}

	got, err := s.ListMessagesBetween(ctx, users[0].ID, users[1].ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one message, got %d", len(got))
	}
	if got[0].ID != msg.ID || got[0].Content != "hi" || got[0].IsRead {
		t.Fatalf("unexpected message: %+v", got[0])
	}
	if len(got[0].Media) != 2 || got[0].Media[0].Kind != store.MediaKindImage {
		t.Fatalf("media did not survive the round trip: %+v", got[0].Media)
	}
	if got[0].SenderUsername != "alice" || got[0].ReceiverUsername != "bob" {
		t.Fatalf("expected username snapshots: %+v", got[0])
	}
}

func TestMarkMessageRead(t *testing.T) {
	s := newTestStore(t)
	users := seedUsers(t, s, "alice", "bob")
	ctx := context.Background()

	msg := newMessage(users[0], users[1], "hi", time.Now().UTC())
	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("create message: %v", err)
	}

	// Wrong receiver must not flip the flag.
	if _, err := s.MarkMessageRead(ctx, msg.ID, users[0].ID); !errors.Is(err, store.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound for wrong receiver, got %v", err)
	}

	got, err := s.MarkMessageRead(ctx, msg.ID, users[1].ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !got.IsRead {
		t.Fatal("expected read flag set")
	}

	// Idempotent: second call succeeds and the flag stays true.
	got, err = s.MarkMessageRead(ctx, msg.ID, users[1].ID)
	if err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	if !got.IsRead {
		t.Fatal("read flag must stay true")
	}

	if _, err := s.MarkMessageRead(ctx, "no-such-id", users[1].ID); !errors.Is(err, store.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestDeleteMessagesBetweenIsSymmetric(t *testing.T) {
	s := newTestStore(t)
	users := seedUsers(t, s, "alice", "bob", "carol")
	ctx := context.Background()

	now := time.Now().UTC()
	for _, msg := range []*store.Message{
		newMessage(users[0], users[1], "a to b", now),
		newMessage(users[1], users[0], "b to a", now.Add(time.Second)),
		newMessage(users[0], users[2], "a to c", now.Add(2*time.Second)),
	} {
		if err := s.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	deleted, err := s.DeleteMessagesBetween(ctx, users[1].ID, users[0].ID)
	if err != nil {
		t.Fatalf("delete messages: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	left, err := s.ListMessagesBetween(ctx, users[0].ID, users[1].ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected empty thread, got %d", len(left))
	}

	// The unrelated thread survives.
	other, err := s.ListMessagesBetween(ctx, users[0].ID, users[2].ID, 0)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(other) != 1 {
		t.Fatalf("expected carol's thread intact, got %d", len(other))
	}
}

func TestListConversationsOneRowPerCounterpart(t *testing.T) {
	s := newTestStore(t)
	users := seedUsers(t, s, "alice", "bob", "carol")
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for _, msg := range []*store.Message{
		newMessage(users[0], users[1], "first", now),
		newMessage(users[1], users[0], "latest with bob", now.Add(2*time.Second)),
		newMessage(users[2], users[0], "from carol", now.Add(time.Second)),
	} {
		if err := s.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	summaries, err := s.ListConversations(ctx, users[0].ID)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(summaries))
	}

	// Newest conversation first.
	if summaries[0].CounterpartID != users[1].ID || summaries[0].LastMessage.Content != "latest with bob" {
		t.Fatalf("unexpected first summary: %+v", summaries[0])
	}
	if summaries[1].CounterpartID != users[2].ID || summaries[1].CounterpartUsername != "carol" {
		t.Fatalf("unexpected second summary: %+v", summaries[1])
	}
}

func TestFollowLifecycle(t *testing.T) {
	s := newTestStore(t)
	users := seedUsers(t, s, "alice", "bob")
	ctx := context.Background()

	if _, err := s.GetFollow(ctx, users[0].ID, users[1].ID); !errors.Is(err, store.ErrFollowNotFound) {
		t.Fatalf("expected ErrFollowNotFound, got %v", err)
	}

	follow, err := s.CreateFollow(ctx, users[0].ID, users[1].ID)
	if err != nil {
		t.Fatalf("create follow: %v", err)
	}
	if follow.Status != store.FollowStatusRequested {
		t.Fatalf("expected requested status, got %q", follow.Status)
	}

	// A pending request is not a follow yet.
	following, err := s.IsFollowing(ctx, users[0].ID, users[1].ID)
	if err != nil || following {
		t.Fatalf("expected pending request to not count, got %v %v", following, err)
	}

	follow, err = s.AcceptFollow(ctx, users[0].ID, users[1].ID)
	if err != nil {
		t.Fatalf("accept follow: %v", err)
	}
	if follow.Status != store.FollowStatusAccepted {
		t.Fatalf("expected accepted status, got %q", follow.Status)
	}
	following, err = s.IsFollowing(ctx, users[0].ID, users[1].ID)
	if err != nil || !following {
		t.Fatalf("expected follow edge, got %v %v", following, err)
	}

	// Re-requesting an accepted edge must not demote it.
	follow, err = s.CreateFollow(ctx, users[0].ID, users[1].ID)
	if err != nil || follow.Status != store.FollowStatusAccepted {
		t.Fatalf("duplicate follow changed status: %+v %v", follow, err)
	}

	// Direction matters.
	reverse, err := s.IsFollowing(ctx, users[1].ID, users[0].ID)
	if err != nil || reverse {
		t.Fatalf("expected no reverse edge, got %v %v", reverse, err)
	}

	deleted, err := s.DeleteFollow(ctx, users[0].ID, users[1].ID)
	if err != nil || !deleted {
		t.Fatalf("delete follow: %v %v", deleted, err)
	}
	following, _ = s.IsFollowing(ctx, users[0].ID, users[1].ID)
	if following {
		t.Fatal("expected edge removed")
	}

	// Deleting again reports that nothing existed.
	deleted, err = s.DeleteFollow(ctx, users[0].ID, users[1].ID)
	if err != nil || deleted {
		t.Fatalf("expected no-op delete, got %v %v", deleted, err)
	}
}

func TestAcceptFollowWithoutRequest(t *testing.T) {
	s := newTestStore(t)
	users := seedUsers(t, s, "alice", "bob")
	ctx := context.Background()

	if _, err := s.AcceptFollow(ctx, users[0].ID, users[1].ID); !errors.Is(err, store.ErrFollowNotFound) {
		t.Fatalf("expected ErrFollowNotFound, got %v", err)
	}
}
