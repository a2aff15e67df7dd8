// Package batcher implements the generic bounded-queue, background-flush
// primitive shared by the analytics and inference telemetry paths: a
// non-blocking best-effort producer side and a single flusher goroutine
// that drains the queue on a size or time trigger.
package batcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Laisky/zap"

	"github.com/opengw/llmgateway/common/logger"
)

// Store is the batch-insert destination a Batcher flushes to.
type Store[T any] interface {
	BatchInsert(ctx context.Context, records []T) error
}

// Batcher accumulates records of type T and flushes them to a Store either
// when BatchSize is reached or FlushInterval elapses, whichever comes first.
type Batcher[T any] struct {
	queue         chan T
	store         Store[T]
	batchSize     int
	flushInterval time.Duration

	dropped atomic.Int64
	wg      sync.WaitGroup
	done    chan struct{}
}

// New builds a Batcher with the given queue capacity, batch size, and flush
// interval, and starts its background flusher goroutine.
func New[T any](store Store[T], capacity, batchSize int, flushInterval time.Duration) *Batcher[T] {
	b := &Batcher[T]{
		queue:         make(chan T, capacity),
		store:         store,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// Enqueue attempts a non-blocking send on the hot path; on a full queue it
// logs a drop and returns false rather than blocking the caller.
func (b *Batcher[T]) Enqueue(record T) bool {
	select {
	case b.queue <- record:
		return true
	default:
		b.dropped.Add(1)
		logger.Logger.Warn("batcher queue full, dropping record")
		return false
	}
}

// Dropped returns the number of records dropped due to a full queue.
func (b *Batcher[T]) Dropped() int64 { return b.dropped.Load() }

// Close stops the flusher after draining whatever is currently queued.
func (b *Batcher[T]) Close() {
	close(b.done)
	b.wg.Wait()
}

func (b *Batcher[T]) run() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	batch := make([]T, 0, b.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := b.store.BatchInsert(ctx, batch); err != nil {
			// Analytics/inference are best-effort telemetry: log and drop,
			// never retry.
			logger.Logger.Error("batch insert failed, dropping batch", zap.Int("size", len(batch)), zap.Error(err))
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case <-b.done:
			b.drainRemaining(&batch)
			flush()
			return
		case rec := <-b.queue:
			batch = append(batch, rec)
			if len(batch) >= b.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// drainRemaining pulls any records still sitting in the channel at shutdown
// so Close() does not lose a burst that arrived just before the stop signal.
func (b *Batcher[T]) drainRemaining(batch *[]T) {
	for {
		select {
		case rec := <-b.queue:
			*batch = append(*batch, rec)
		default:
			return
		}
	}
}
