// Package ipc implements cookie-addressed message channels: synchronous
// send/reply between tasks, asynchronous receive, and page-granular
// payload transfer through the VMM. Channels and messages are carved from
// a shared 64-byte slab pool rather than the Go heap, same as every other
// allocator layer below the scheduler.
package ipc

import (
	"github.com/roscopeco/anos/kernel"
	"github.com/roscopeco/anos/kernel/sync"
)

// blockSource is the shape kernel/mem/slab.Pool already exposes; ipc
// depends on the interface rather than the concrete type so tests can
// substitute an in-memory fake.
type blockSource interface {
	AllocBlock() (uintptr, *kernel.Error)
	Free(uintptr)
}

var pool blockSource

// Init wires the slab pool channels and messages are carved from. Must be
// called once during kernel startup before any ChannelCreate/Send/Recv.
func Init(p blockSource) {
	pool = p
}

var (
	channelTableLock sync.Spinlock
	channelTable     = make(map[uint64]*Channel)

	inFlightTableLock sync.Spinlock
	inFlightTable     = make(map[uint64]*Message)
)

func lookupChannel(cookie uint64) *Channel {
	channelTableLock.Acquire()
	ch := channelTable[cookie]
	channelTableLock.Release()
	return ch
}

func insertChannel(ch *Channel) {
	channelTableLock.Acquire()
	channelTable[ch.Cookie] = ch
	channelTableLock.Release()
}

// removeChannel atomically removes and returns the channel for cookie, or
// nil if it was never there (or already destroyed).
func removeChannel(cookie uint64) *Channel {
	channelTableLock.Acquire()
	ch := channelTable[cookie]
	delete(channelTable, cookie)
	channelTableLock.Release()
	return ch
}

func insertInFlight(m *Message) {
	inFlightTableLock.Acquire()
	inFlightTable[m.Cookie] = m
	inFlightTableLock.Release()
}

func removeInFlight(cookie uint64) *Message {
	inFlightTableLock.Acquire()
	m := inFlightTable[cookie]
	delete(inFlightTable, cookie)
	inFlightTableLock.Release()
	return m
}
