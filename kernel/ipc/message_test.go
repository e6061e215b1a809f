package ipc

import "testing"

func TestNewMessageInitialisesFields(t *testing.T) {
	installFakePool(t)

	waiter := newTestTask(1)
	m := newMessage(7, 0x1000, 42, waiter)

	if m == nil {
		t.Fatal("expected a message")
	}
	if m.Cookie == 0 {
		t.Fatal("expected a non-zero message cookie")
	}
	if m.Tag != 7 || m.ArgBufSize != 42 || m.Waiter != waiter {
		t.Fatalf("expected fields to be recorded as given; got %+v", m)
	}
	if m.Handled {
		t.Fatal("expected a fresh message to start unhandled")
	}
	if m.Reply != 0 {
		t.Fatal("expected a fresh message to start with a zero reply")
	}
}

func TestNewMessageReturnsNilWhenPoolExhausted(t *testing.T) {
	pool = exhaustedPool{}
	t.Cleanup(func() { pool = nil })

	if m := newMessage(1, 0, 0, nil); m != nil {
		t.Fatal("expected nil when the pool is exhausted")
	}
}
