package batcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu      sync.Mutex
	batches [][]int
}

func (s *recordingStore) BatchInsert(_ context.Context, records []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]int(nil), records...)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *recordingStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestBatcherFlushesOnSize(t *testing.T) {
	store := &recordingStore{}
	b := New[int](store, 10, 3, time.Hour)
	defer b.Close()

	require.True(t, b.Enqueue(1))
	require.True(t, b.Enqueue(2))
	require.True(t, b.Enqueue(3))

	require.Eventually(t, func() bool { return store.total() == 3 }, time.Second, time.Millisecond)
}

func TestBatcherFlushesOnTimer(t *testing.T) {
	store := &recordingStore{}
	b := New[int](store, 10, 100, 20*time.Millisecond)
	defer b.Close()

	b.Enqueue(42)
	require.Eventually(t, func() bool { return store.total() == 1 }, time.Second, time.Millisecond)
}

func TestBatcherDropsOnFullQueue(t *testing.T) {
	store := &recordingStore{}
	b := New[int](store, 1, 1000, time.Hour)
	defer b.Close()

	ok := true
	for i := 0; i < 10000 && ok; i++ {
		ok = b.Enqueue(i)
	}
	assert.GreaterOrEqual(t, b.Dropped(), int64(1))
}

func TestBatcherDrainsRemainingOnClose(t *testing.T) {
	store := &recordingStore{}
	b := New[int](store, 10, 1000, time.Hour)
	b.Enqueue(1)
	b.Enqueue(2)
	b.Close()
	assert.Equal(t, 2, store.total())
}
