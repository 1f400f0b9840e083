// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

// Command disruptor-demo exercises the ringbuffer package end to end:
// it spins up a configurable number of publisher and consumer
// goroutines against a single RingBuffer, runs them for a fixed event
// count per publisher, and reports throughput.
package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	ringbuffer "github.com/JoshuaSkootsky/disruptor-ringbuffer"
)

var (
	capacity    uint64
	publishers  uint64
	consumers   uint64
	eventsEach  uint64
	useNonBlock bool
	developLog  bool
)

var rootCmd = &cobra.Command{
	Use:   "disruptor-demo",
	Short: "drive the ringbuffer disruptor with synthetic publishers and consumers",
	Long: "disruptor-demo spawns --publishers publisher goroutines and --consumers\n" +
		"consumer goroutines against a single capacity-sized RingBuffer, has each\n" +
		"publisher claim/commit --events sequences, and reports elapsed time and\n" +
		"throughput once every consumer has drained its sentinel.",
	RunE: runDemo,
}

func init() {
	rootCmd.Flags().Uint64Var(&capacity, "capacity", 4096, "ring buffer capacity (power of two)")
	rootCmd.Flags().Uint64Var(&publishers, "publishers", 2, "number of concurrent publisher goroutines")
	rootCmd.Flags().Uint64Var(&consumers, "consumers", 2, "number of concurrent consumer goroutines")
	rootCmd.Flags().Uint64Var(&eventsEach, "events", 500000, "events committed by each publisher")
	rootCmd.Flags().BoolVar(&useNonBlock, "non-blocking", false, "use TryClaimNext/TryCommit instead of the blocking variants")
	rootCmd.Flags().BoolVar(&developLog, "development-log", false, "use zap's development logging config instead of production")
}

func newLogger() (*zap.Logger, error) {
	if developLog {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

const sentinel = ^uint64(0)

func runDemo(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("construct logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	rb, err := ringbuffer.New[uint64](capacity, consumers)
	if err != nil {
		return fmt.Errorf("construct ring buffer: %w", err)
	}

	logger.Info("starting run",
		zap.Uint64("capacity", capacity),
		zap.Uint64("publishers", publishers),
		zap.Uint64("consumers", consumers),
		zap.Uint64("events_each", eventsEach),
		zap.Bool("non_blocking", useNonBlock),
	)

	var totalRead atomic.Uint64
	var pubWG, conWG sync.WaitGroup

	start := time.Now()

	conWG.Add(int(consumers))
	for i := uint64(0); i < consumers; i++ {
		id := i
		go func() {
			defer conWG.Done()
			runConsumer(logger, rb, id, publishers, &totalRead)
		}()
	}

	pubWG.Add(int(publishers))
	for i := uint64(0); i < publishers; i++ {
		id := i
		go func() {
			defer pubWG.Done()
			runPublisher(logger, rb, id, eventsEach, useNonBlock)
		}()
	}

	pubWG.Wait()
	conWG.Wait()

	elapsed := time.Since(start)
	total := publishers * eventsEach
	rate := float64(total) / elapsed.Seconds()

	logger.Info("run complete",
		zap.Duration("elapsed", elapsed),
		zap.Uint64("total_events", total),
		zap.Uint64("total_read_per_consumer_sum", totalRead.Load()),
		zap.Float64("events_per_second", rate),
	)
	fmt.Printf("published %d events across %d publishers in %s (%.0f events/sec)\n",
		total, publishers, elapsed, rate)

	return nil
}

// runPublisher commits eventsEach sequenced entries followed by a single
// sentinel entry, so every consumer observes exactly one sentinel per
// publisher.
func runPublisher(logger *zap.Logger, rb *ringbuffer.RingBuffer[uint64], id, eventsEach uint64, nonBlocking bool) {
	pub := ringbuffer.NewPublisherPort(rb)

	claim := pub.ClaimNext
	commit := pub.Commit
	if nonBlocking {
		claim = func() uint64 {
			for {
				if seq, ok := pub.TryClaimNext(); ok {
					return seq
				}
			}
		}
		commit = func(seq uint64) {
			for !pub.TryCommit(seq) {
			}
		}
	}

	for i := uint64(0); i < eventsEach; i++ {
		seq := claim()
		*pub.Acquire(seq) = seq
		commit(seq)
	}

	seq := claim()
	*pub.Acquire(seq) = sentinel
	commit(seq)

	logger.Debug("publisher done", zap.Uint64("publisher_id", id), zap.Uint64("committed", eventsEach))
}

// runConsumer reads until it has observed one sentinel per publisher,
// since every publisher writes exactly one sentinel when it finishes.
func runConsumer(logger *zap.Logger, rb *ringbuffer.RingBuffer[uint64], id, expectedSentinels uint64, totalRead *atomic.Uint64) {
	con := ringbuffer.NewConsumerBarrier(rb)
	defer con.Close()

	var read uint64
	var sentinels uint64

	for sentinels < expectedSentinels {
		upTo := con.WaitForPublished()
		for seq := con.NextToRead(); seq <= upTo; seq++ {
			if v := *con.GetEntry(seq); v == sentinel {
				sentinels++
			} else {
				read++
			}
		}
		con.Release(upTo)
	}

	totalRead.Add(read)
	logger.Debug("consumer done", zap.Uint64("consumer_id", id), zap.Uint64("read", read))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		panic(err)
	}
}
