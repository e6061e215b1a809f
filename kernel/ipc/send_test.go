package ipc

import (
	"testing"

	"github.com/roscopeco/anos/kernel/mem"
	"github.com/roscopeco/anos/kernel/sched"
)

func TestSendReturnsZeroForUnknownChannel(t *testing.T) {
	installFakePool(t)

	sender := newTestTask(1)
	if r := Send(&fakeCPU{}, sender, 0xBAD, 7, 0, 0); r != 0 {
		t.Fatalf("expected 0 for an unknown channel; got %d", r)
	}
}

func TestSendReturnsZeroForOversizedBuffer(t *testing.T) {
	installFakePool(t)

	c := ChannelCreate(nil)
	sender := newTestTask(1)

	if r := Send(&fakeCPU{}, sender, c, 7, 0, uint32(mem.PageSize)+1); r != 0 {
		t.Fatalf("expected 0 for an oversized buffer; got %d", r)
	}
}

func TestSendWakesAnAlreadyWaitingReceiver(t *testing.T) {
	installFakePool(t)

	c := ChannelCreate(nil)
	ch := lookupChannel(c)

	receiver := &sched.Task{ID: 1}
	ch.enqueueReceiver(receiver)

	sender := newTestTask(2)
	Send(&fakeCPU{}, sender, c, 7, 0, 0)

	if receiver.State != sched.Ready {
		t.Fatal("expected the waiting receiver to be woken by Send")
	}
}

func TestSendReturnsZeroWhenNeverHandled(t *testing.T) {
	installFakePool(t)

	c := ChannelCreate(nil)
	sender := newTestTask(1)

	// onSchedule does nothing: nobody ever dequeues/replies to the
	// message, modelling the channel being torn down while queued.
	if r := Send(&fakeCPU{}, sender, c, 7, 0, 0); r != 0 {
		t.Fatalf("expected 0 when the message was never handled; got %d", r)
	}
}

func TestSendReturnsTheDeliveredReply(t *testing.T) {
	installFakePool(t)

	c := ChannelCreate(nil)
	ch := lookupChannel(c)
	sender := newTestTask(1)

	fc := &fakeCPU{}
	fc.onSchedule = func() {
		msg := ch.dequeueMessage()
		if msg == nil {
			t.Fatal("expected Send to have queued a message before blocking")
		}
		msg.Handled = true
		msg.Reply = 0xCAFE
	}

	if r := Send(fc, sender, c, 7, 0, 0); r != 0xCAFE {
		t.Fatalf("expected the reply value 0xCAFE; got 0x%X", r)
	}
}
