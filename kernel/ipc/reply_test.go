package ipc

import (
	"testing"

	"github.com/roscopeco/anos/kernel/sched"
)

func TestReplyReturnsFalseForUnknownMessage(t *testing.T) {
	replier := newTestTask(1)
	if Reply(&fakeCPU{}, replier, 0xBAD, 1) {
		t.Fatal("expected false for an unknown message cookie")
	}
}

func TestReplySetsResultAndWakesTheWaiter(t *testing.T) {
	waiter := newTestTask(1)
	waiter.State = sched.Blocked

	msg := &Message{Cookie: 5, Waiter: waiter}
	insertInFlight(msg)

	replier := newTestTask(2)
	if !Reply(&fakeCPU{}, replier, 5, 0xABCD) {
		t.Fatal("expected Reply to succeed for a known in-flight message")
	}
	if msg.Reply != 0xABCD {
		t.Fatalf("expected reply value 0xABCD; got 0x%X", msg.Reply)
	}
	if waiter.State != sched.Ready {
		t.Fatalf("expected the waiter to be woken (Ready); got state %v", waiter.State)
	}
}

func TestReplyRemovesMessageFromInFlightTable(t *testing.T) {
	waiter := newTestTask(1)
	msg := &Message{Cookie: 6, Waiter: waiter}
	insertInFlight(msg)

	replier := newTestTask(2)
	Reply(&fakeCPU{}, replier, 6, 0)

	if removeInFlight(6) != nil {
		t.Fatal("expected the message to already be gone from the in-flight table after Reply")
	}
}

func TestReplyClearsReplierPendingUnmap(t *testing.T) {
	replier := newTestTask(1)
	replier.PendingUnmapSpace = nil // nothing pending; must not panic

	msg := &Message{Cookie: 7, Waiter: newTestTask(2)}
	insertInFlight(msg)

	Reply(&fakeCPU{}, replier, 7, 0)
}
