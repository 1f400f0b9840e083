// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

// Package ringbuffer provides a lock-free, multi-producer / multi-consumer
// ring buffer (a "disruptor") that sequences events through a fixed
// capacity array of cache-line-aligned slots.
//
// # Protocol
//
// Producers ("publishers") claim a sequence number from a shared write
// cursor, write their payload into the corresponding slot, and commit the
// sequence in strict claim order, advancing a shared published cursor.
// Consumers ("entry processors") register to obtain a cursor slot, wait
// for the published cursor to advance, read every newly published
// sequence, and release up to the highest sequence they have finished
// reading. A publisher never claims a sequence that would lap the
// slowest registered consumer by more than the buffer's capacity.
//
// # Thread-Safety Guarantees
//
//   - Any number of goroutines may act as publishers concurrently.
//   - Any number of goroutines may act as consumers concurrently, each
//     after registering its own ConsumerBarrier.
//   - No operation takes a lock; blocking variants spin with a
//     pause-then-yield backoff, non-blocking variants return immediately.
//
// # Usage Example
//
//	rb, err := ringbuffer.New[int](64, 4) // capacity 64, up to 4 consumers
//	if err != nil {
//		panic(err)
//	}
//
//	pub := ringbuffer.NewPublisherPort(rb)
//	con := ringbuffer.NewConsumerBarrier(rb)
//	defer con.Close()
//
//	go func() {
//		for i := 0; i < 100; i++ {
//			seq := pub.ClaimNext()
//			*pub.Acquire(seq) = i
//			pub.Commit(seq)
//		}
//	}()
//
//	for read := 0; read < 100; {
//		upTo := con.WaitForPublished()
//		for seq := con.NextToRead(); seq <= upTo; seq++ {
//			_ = *con.GetEntry(seq)
//			read++
//		}
//		con.Release(upTo)
//	}
package ringbuffer

import (
	"errors"
	"sync/atomic"
)

// DefaultCacheLineSize is the padding unit assumed for per-cursor and
// per-slot alignment when the host's actual cache line size is unknown.
// It is a compile-time constant with no runtime override; the protocol's
// correctness does not depend on this value, only its throughput.
const DefaultCacheLineSize = 64

// DefaultPageSize is the alignment unit the original C implementation
// used for the whole aggregate. Go's allocator does not expose a portable
// way to request page-aligned heap allocations, so this constant is
// retained for documentation and tuning parity rather than enforced.
const DefaultPageSize = 4096

const cacheLinePad = DefaultCacheLineSize

// vacant is the sentinel stored in a consumer cursor slot that is not
// currently held by any registered consumer.
const vacant = ^uint64(0)

// ErrMisconfiguredCapacity is returned by New when capacity is not a
// power of two, or is less than 2.
var ErrMisconfiguredCapacity = errors.New("ringbuffer: capacity must be a power of two and at least 2")

// ErrTooFewConsumerSlots is returned by New when maxConsumers is 0.
var ErrTooFewConsumerSlots = errors.New("ringbuffer: maxConsumers must be at least 1")

// paddedCursor is a 64-bit atomic counter padded to a full cache line to
// prevent false sharing between adjacent cursors.
type paddedCursor struct {
	value atomic.Uint64
	_     [cacheLinePad - 8]byte
}

// RingBuffer is a multi-producer / multi-consumer ring buffer over payload
// type T. Capacity is fixed at construction and must be a power of two.
//
// A RingBuffer has no hidden per-instance state outside its own value: it
// may be embedded on the stack, held as a package-level variable, or
// heap-allocated via New without any behavioral difference, provided Init
// (performed automatically by New) has run exactly once before use.
type RingBuffer[T any] struct {
	// reducedSize is capacity-1, used as the index mask since capacity
	// is a power of two: seq & reducedSize == seq % capacity.
	reducedSize uint64

	slots []Slot[T]

	// writeCursor is the most recently claimed sequence number; the
	// next claim by any publisher takes writeCursor+1. Advanced only by fetch-add (blocking claim) or CAS
	// (non-blocking claim).
	writeCursor paddedCursor

	// publishedCursor is the highest sequence number safe for any
	// consumer to read. Advanced by exactly one committing publisher
	// at a time, strictly in claim order.
	publishedCursor paddedCursor

	// slowestConsumer caches the most recently computed minimum
	// consumer cursor. Every claim attempt writes it; Register does not
	// read it (a new consumer starts from the published cursor).
	// Advisory only: publishers recompute the true minimum on every
	// claim.
	slowestConsumer paddedCursor

	// consumerCursors holds one entry per possible registered
	// consumer. A slot holds vacant when unregistered, or the sequence
	// the consumer has released through (inclusive) otherwise.
	consumerCursors []paddedCursor
}

// New allocates and initializes a RingBuffer with the given capacity
// (which must be a power of two, at least 2) and maxConsumers (the fixed
// size of the consumer registry, at least 1).
func New[T any](capacity uint64, maxConsumers uint64) (*RingBuffer[T], error) {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return nil, ErrMisconfiguredCapacity
	}
	if maxConsumers < 1 {
		return nil, ErrTooFewConsumerSlots
	}

	rb := &RingBuffer[T]{
		slots:           make([]Slot[T], capacity),
		consumerCursors: make([]paddedCursor, maxConsumers),
	}
	rb.Init()

	return rb, nil
}

// Init resets a RingBuffer to its freshly-allocated state: all consumer
// cursors are marked vacant, the write/published cursors are zeroed, the
// cached slowest-consumer value is set to vacant, and reducedSize is (re)computed from the slot array's
// length, which must already be sized and must be a power of two.
//
// Init must be called before first use of a RingBuffer not constructed
// via New (e.g. a zero-value package-level or stack-allocated instance
// whose slots/consumerCursors fields were populated directly). Calling
// Init again on a RingBuffer already in use discards all in-flight claims
// and consumer registrations; callers must ensure no publisher or
// consumer is concurrently active.
func (rb *RingBuffer[T]) Init() {
	rb.writeCursor.value.Store(0)
	rb.publishedCursor.value.Store(0)
	rb.slowestConsumer.value.Store(vacant)

	for i := range rb.consumerCursors {
		rb.consumerCursors[i].value.Store(vacant)
	}

	// reducedSize is written last, and its visibility to every
	// publisher/consumer that subsequently touches this RingBuffer is
	// required before any other cursor read is meaningful.
	atomic.StoreUint64(&rb.reducedSize, uint64(len(rb.slots))-1)
}

// Capacity returns the fixed number of slots in the ring buffer.
func (rb *RingBuffer[T]) Capacity() uint64 {
	return uint64(len(rb.slots))
}

// Mask returns capacity-1, used to index a slot via seq & Mask() instead
// of the slower seq % Capacity().
func (rb *RingBuffer[T]) Mask() uint64 {
	return atomic.LoadUint64(&rb.reducedSize)
}

// MaxConsumers returns the fixed size of the consumer registry.
func (rb *RingBuffer[T]) MaxConsumers() uint64 {
	return uint64(len(rb.consumerCursors))
}

// Show returns a read-only view of the slot holding sequence seq. Callers
// must only call Show for sequences they know to be published (that is,
// seq <= the upper bound most recently returned by a ConsumerBarrier's
// WaitForPublished); the ring buffer does not itself check this.
func (rb *RingBuffer[T]) Show(seq uint64) *T {
	return &rb.slots[seq&rb.Mask()].content
}

// Acquire returns a mutable view of the slot holding sequence seq.
// Exclusive write access is a protocol guarantee, not a lock: only the
// publisher that claimed seq may call Acquire for it, and only between
// its claim and its commit of seq.
func (rb *RingBuffer[T]) Acquire(seq uint64) *T {
	return &rb.slots[seq&rb.Mask()].content
}
