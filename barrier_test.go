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
	"sync"
	"testing"
)

func TestConsumerBarrier_TryWaitForPublished_EmptyBuffer(t *testing.T) {
	rb, err := New[int](16, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	con := NewConsumerBarrier(rb)
	defer con.Close()

	if _, ok := con.TryWaitForPublished(); ok {
		t.Fatal("expected no data to be published yet")
	}
}

func TestConsumerBarrier_WaitForPublished_BlocksUntilPublish(t *testing.T) {
	rb, err := New[int](16, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	con := NewConsumerBarrier(rb)
	defer con.Close()

	pub := NewPublisherPort(rb)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		seq := pub.ClaimNext()
		*pub.Acquire(seq) = 7
		pub.Commit(seq)
	}()

	upTo := con.WaitForPublished()
	wg.Wait()
	if upTo != 1 {
		t.Fatalf("expected published cursor 1, got %d", upTo)
	}
	if got := *con.GetEntry(1); got != 7 {
		t.Fatalf("expected entry 7, got %d", got)
	}
}

func TestConsumerBarrier_Release_AdvancesNextToRead(t *testing.T) {
	rb, err := New[int](16, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	con := NewConsumerBarrier(rb)
	defer con.Close()

	pub := NewPublisherPort(rb)
	for i := 0; i < 3; i++ {
		seq := pub.ClaimNext()
		*pub.Acquire(seq) = i
		pub.Commit(seq)
	}

	upTo := con.WaitForPublished()
	for seq := con.NextToRead(); seq <= upTo; seq++ {
		_ = con.GetEntry(seq)
	}
	con.Release(upTo)

	if con.NextToRead() != upTo+1 {
		t.Fatalf("expected NextToRead %d, got %d", upTo+1, con.NextToRead())
	}
	if got := rb.consumerCursors[con.slotIndex].value.Load(); got != upTo {
		t.Fatalf("expected released cursor %d, got %d", upTo, got)
	}
}

func TestConsumerBarrier_BatchRead(t *testing.T) {
	rb, err := New[int](64, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	con := NewConsumerBarrier(rb)
	defer con.Close()

	pub := NewPublisherPort(rb)
	const n = 20
	for i := 0; i < n; i++ {
		seq := pub.ClaimNext()
		*pub.Acquire(seq) = i
		pub.Commit(seq)
	}

	upTo := con.WaitForPublished()
	if upTo != n {
		t.Fatalf("expected published cursor %d, got %d", n, upTo)
	}

	var read []int
	for seq := con.NextToRead(); seq <= upTo; seq++ {
		read = append(read, *con.GetEntry(seq))
	}
	con.Release(upTo)

	if len(read) != n {
		t.Fatalf("expected %d entries, got %d", n, len(read))
	}
	for i, v := range read {
		if v != i {
			t.Fatalf("entry %d: expected %d, got %d", i, i, v)
		}
	}
}
