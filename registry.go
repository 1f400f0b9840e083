// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package ringbuffer

import "runtime"

// Register scans the consumer registry for a vacant slot and claims it
// via compare-and-swap from vacant to the ring buffer's current published
// cursor. If no slot is free after a full scan, it retries indefinitely:
// the registry is expected to be sized to the caller's maximum concurrent
// consumer count, so contention for a slot is rare and short-lived.
//
// The returned starting sequence is always >= 1: a freshly registered
// consumer that observed a published cursor of 0 (nothing produced yet)
// has its stored cursor coerced to 1 via a second compare-and-swap, so
// that value is visible to publishers computing the slowest consumer.
//
// Register must not be called twice for the same logical consumer
// without an intervening Unregister.
func (rb *RingBuffer[T]) Register() (slotIndex uint64, startSequence uint64) {
	for {
		for i := range rb.consumerCursors {
			current := vacant
			candidate := rb.publishedCursor.value.Load()
			if rb.consumerCursors[i].value.CompareAndSwap(current, candidate) {
				if candidate == 0 {
					// Coerce for visibility: sequence 0 means "no
					// entry produced yet" and is never delivered.
					if rb.consumerCursors[i].value.CompareAndSwap(0, 1) {
						candidate = 1
					} else {
						candidate = rb.consumerCursors[i].value.Load()
					}
				}
				return uint64(i), candidate
			}
		}
		runtime.Gosched()
	}
}

// TryRegister attempts a single scan of the consumer registry for a
// vacant slot. It reports ok=false if every slot is currently held,
// rather than retrying indefinitely as Register does.
func (rb *RingBuffer[T]) TryRegister() (slotIndex uint64, startSequence uint64, ok bool) {
	for i := range rb.consumerCursors {
		current := vacant
		candidate := rb.publishedCursor.value.Load()
		if rb.consumerCursors[i].value.CompareAndSwap(current, candidate) {
			if candidate == 0 {
				if rb.consumerCursors[i].value.CompareAndSwap(0, 1) {
					candidate = 1
				} else {
					candidate = rb.consumerCursors[i].value.Load()
				}
			}
			return uint64(i), candidate, true
		}
	}
	return 0, 0, false
}

// Unregister releases slotIndex back to the registry, marking it vacant.
// slotIndex must currently be held by the caller; unregistering a slot
// the caller does not hold is a contract violation with undefined
// behavior, per the core protocol's error-handling design.
func (rb *RingBuffer[T]) Unregister(slotIndex uint64) {
	rb.consumerCursors[slotIndex].value.Store(vacant)
}
