// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package ringbuffer

// PublisherPort is a stateless handle used to claim sequences from and
// commit sequences to a RingBuffer. It carries no per-call state of its
// own between calls; any number of goroutines may share one
// PublisherPort, or each may construct its own — both are equivalent.
type PublisherPort[T any] struct {
	rb *RingBuffer[T]
}

// NewPublisherPort returns a PublisherPort bound to rb.
func NewPublisherPort[T any](rb *RingBuffer[T]) *PublisherPort[T] {
	return &PublisherPort[T]{rb: rb}
}

// slowestConsumer scans every consumer registry slot and returns the
// minimum released sequence among non-vacant entries, along with whether
// any consumer is currently registered at all.
func (p *PublisherPort[T]) slowestConsumer() (min uint64, anyConsumer bool) {
	min = vacant
	for i := range p.rb.consumerCursors {
		seq := p.rb.consumerCursors[i].value.Load()
		if seq < min {
			min = seq
		}
	}
	return min, min != vacant
}

// ClaimNext blocks until it can safely claim the next sequence number,
// spinning with a pause-then-yield backoff against back-pressure from the
// slowest registered consumer. With zero registered consumers the
// back-pressure check always passes, so ClaimNext never blocks however
// far the write cursor runs ahead.
//
// Acquire(claimed) may be called to obtain a mutable view of the claimed
// slot immediately after ClaimNext returns.
func (p *PublisherPort[T]) ClaimNext() uint64 {
	claimed := p.rb.writeCursor.value.Add(1)

	for {
		slowest, anyConsumer := p.slowestConsumer()
		if !anyConsumer {
			slowest = claimed - (claimed & p.rb.Mask())
		}
		p.rb.slowestConsumer.value.Store(slowest)

		if claimed-slowest <= p.rb.Mask() {
			return claimed
		}
		pauseThenYield()
	}
}

// TryClaimNext attempts to claim the next sequence number without
// blocking. It computes a candidate sequence from a relaxed load of the
// write cursor, applies the same back-pressure check as ClaimNext, and
// only then attempts a single compare-and-swap of the write cursor.
// Reports ok=false if back-pressure forbids claiming or if a concurrent
// claim won the race; callers are expected to retry.
func (p *PublisherPort[T]) TryClaimNext() (claimed uint64, ok bool) {
	current := p.rb.writeCursor.value.Load()
	candidate := current + 1

	slowest, anyConsumer := p.slowestConsumer()
	if !anyConsumer {
		slowest = candidate - (candidate & p.rb.Mask())
	}
	p.rb.slowestConsumer.value.Store(slowest)

	if candidate-slowest > p.rb.Mask() {
		return 0, false
	}

	if !p.rb.writeCursor.value.CompareAndSwap(current, candidate) {
		return 0, false
	}
	return candidate, true
}

// Acquire returns a mutable view of the slot claimed for seq. Must only
// be called by the publisher holding seq, between ClaimNext/TryClaimNext
// and the matching Commit/TryCommit.
func (p *PublisherPort[T]) Acquire(seq uint64) *T {
	return p.rb.Acquire(seq)
}

// Commit blocks until every sequence before claimed has been committed
// (strict in-order commit), then advances the published cursor to
// claimed. This serialization is what prevents a consumer from ever
// observing a slot whose payload write has not completed: the
// commit-order gate ensures the publisher of claimed-1 has already
// returned from its own Commit (and therefore finished its slot write)
// before this call's release-store of the published cursor executes.
func (p *PublisherPort[T]) Commit(claimed uint64) {
	required := claimed - 1
	for p.rb.publishedCursor.value.Load() != required {
		pauseThenYield()
	}
	p.rb.publishedCursor.value.Add(1)
}

// TryCommit attempts to commit claimed without blocking. It reports
// ok=false if claimed is not yet next in commit order; callers are
// expected to retry until the publisher ahead of them commits.
func (p *PublisherPort[T]) TryCommit(claimed uint64) (ok bool) {
	required := claimed - 1
	if p.rb.publishedCursor.value.Load() != required {
		return false
	}
	p.rb.publishedCursor.value.Add(1)
	return true
}
