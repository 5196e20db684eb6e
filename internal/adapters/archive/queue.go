package archive

import (
	"sync"

	"github.com/hsfl/aeris-sees-software/internal/domain"
)

// rowQueue is a bounded FIFO buffer between the ingest loop and the
// flusher goroutine. It preserves arrival order.
type rowQueue struct {
	mu   sync.Mutex
	data []domain.Sample
	cap  int
}

func newRowQueue(capacity int) *rowQueue {
	return &rowQueue{
		data: make([]domain.Sample, 0, capacity),
		cap:  capacity,
	}
}

func (q *rowQueue) enqueue(s domain.Sample) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, s)
	return true
}

// enqueueEvict appends s, dropping the oldest row when full. It
// reports whether an eviction happened.
func (q *rowQueue) enqueueEvict(s domain.Sample) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	evicted := false
	if len(q.data) >= q.cap {
		q.data = append(q.data[:0], q.data[1:]...)
		evicted = true
	}
	q.data = append(q.data, s)
	return evicted
}

func (q *rowQueue) dequeueBatch(max int) []domain.Sample {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]domain.Sample, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *rowQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}
