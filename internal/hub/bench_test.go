package hub

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gossips-social/gossips-hub/internal/store"
)

func benchmarkMessageFanOut(b *testing.B, receiverSessions int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fs := newFakeStore(
		&store.User{ID: 1, Username: "sender"},
		&store.User{ID: 2, Username: "receiver"},
	)
	h := New(fs, fs, nil)
	go h.Run(ctx)

	sender := NewSession("sender", 1)
	h.Attach(sender)
	sender.Commands <- &Command{Kind: CommandJoin, UserID: 1}

	sessions := make([]*Session, 0, receiverSessions)
	for i := range receiverSessions {
		s := NewSession(fmt.Sprintf("r%d", i), 2)
		h.Attach(s)
		s.Commands <- &Command{Kind: CommandJoin, UserID: 2}
		sessions = append(sessions, s)
	}

	for h.SessionCount(ctx, 2) < receiverSessions {
		time.Sleep(time.Millisecond)
	}

	// Drain events for all but the first receiver session to avoid
	// channel backpressure.
	target := sessions[0]
	for _, s := range sessions[1:] {
		go func(sess *Session) {
			for range sess.Events {
			}
		}(s)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{
			Kind:       CommandSendMessage,
			ReceiverID: 2,
			Content:    "payload",
		}
		<-target.Events
	}
}

func BenchmarkMessageFanOut_1(b *testing.B)   { benchmarkMessageFanOut(b, 1) }
func BenchmarkMessageFanOut_10(b *testing.B)  { benchmarkMessageFanOut(b, 10) }
func BenchmarkMessageFanOut_100(b *testing.B) { benchmarkMessageFanOut(b, 100) }
