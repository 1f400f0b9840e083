// Copyright (c) 2025 Joshua Skootsky
//
// Licensed under the Business Source License 1.1
// You may use this file only in compliance with one of:
// 1. BSL-1.1 (non-production use is free)
// 2. Commercial License (contact for pricing)
//
// After 4 years (2029-01-01), this becomes Apache-2.0

package ringbuffer

import (
	"errors"
	"testing"
)

func TestNew_RejectsNonPowerOfTwoCapacity(t *testing.T) {
	if _, err := New[int](3, 1); !errors.Is(err, ErrMisconfiguredCapacity) {
		t.Fatalf("expected ErrMisconfiguredCapacity, got %v", err)
	}
}

func TestNew_RejectsTooSmallCapacity(t *testing.T) {
	if _, err := New[int](1, 1); !errors.Is(err, ErrMisconfiguredCapacity) {
		t.Fatalf("expected ErrMisconfiguredCapacity, got %v", err)
	}
}

func TestNew_RejectsZeroConsumers(t *testing.T) {
	if _, err := New[int](16, 0); !errors.Is(err, ErrTooFewConsumerSlots) {
		t.Fatalf("expected ErrTooFewConsumerSlots, got %v", err)
	}
}

func TestNew_CapacityAndMask(t *testing.T) {
	rb, err := New[int](64, 4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if rb.Capacity() != 64 {
		t.Fatalf("expected capacity 64, got %d", rb.Capacity())
	}
	if rb.Mask() != 63 {
		t.Fatalf("expected mask 63, got %d", rb.Mask())
	}
	if rb.MaxConsumers() != 4 {
		t.Fatalf("expected 4 max consumers, got %d", rb.MaxConsumers())
	}
}

func TestNew_ConsumerCursorsStartVacant(t *testing.T) {
	rb, err := New[int](16, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for i := range rb.consumerCursors {
		if got := rb.consumerCursors[i].value.Load(); got != vacant {
			t.Fatalf("consumer slot %d: expected vacant, got %d", i, got)
		}
	}
}

func TestInit_Idempotent(t *testing.T) {
	rb, err := New[int](16, 2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	pub := NewPublisherPort(rb)
	for i := 0; i < 4; i++ {
		seq := pub.ClaimNext()
		*pub.Acquire(seq) = i
		pub.Commit(seq)
	}

	rb.Init()

	if got := rb.writeCursor.value.Load(); got != 0 {
		t.Fatalf("expected write cursor 0 after Init, got %d", got)
	}
	if got := rb.publishedCursor.value.Load(); got != 0 {
		t.Fatalf("expected published cursor 0 after Init, got %d", got)
	}
	for i := range rb.consumerCursors {
		if got := rb.consumerCursors[i].value.Load(); got != vacant {
			t.Fatalf("consumer slot %d: expected vacant after Init, got %d", i, got)
		}
	}
	if rb.Mask() != 15 {
		t.Fatalf("expected mask 15 after Init, got %d", rb.Mask())
	}
}

func TestShowAcquire_SameIndex(t *testing.T) {
	rb, err := New[int](8, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	pub := NewPublisherPort(rb)
	seq := pub.ClaimNext()
	*pub.Acquire(seq) = 42
	pub.Commit(seq)

	if got := *rb.Show(seq); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}
