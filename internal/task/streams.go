package task

import (
	"sync"

	"github.com/Workiva/go-datastructures/queue"

	"github.com/noahpeltier/backgroundworker/pkg/contracts"
)

// StreamBuffer is one of a task's three ordered, thread-safe, drainable
// stream queues (spec §3, §4.2). It is backed by
// github.com/Workiva/go-datastructures/queue.Queue, a lock-free FIFO; an
// outer mutex makes the "peek without removing" (keep=true) path atomic
// relative to concurrent writers, since the underlying queue only exposes
// destructive Get.
type StreamBuffer struct {
	mu sync.Mutex
	q  *queue.Queue
}

// NewStreamBuffer creates an empty, unbounded stream buffer.
func NewStreamBuffer() *StreamBuffer {
	return &StreamBuffer{q: queue.New(16)}
}

// Append adds an item to the end of the buffer, preserving emission order.
func (b *StreamBuffer) Append(item interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.q.Put(item)
}

// Receive returns an ordered snapshot of the buffer's contents. If keep is
// false the items are drained atomically and never re-delivered; if keep is
// true they remain for the next Receive (spec §4.2, invariant 4 in §8).
func (b *StreamBuffer) Receive(keep bool) []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.q.Len()
	if n == 0 {
		return nil
	}
	items, err := b.q.Get(n)
	if err != nil {
		return nil
	}
	if keep {
		_ = b.q.Put(items...)
	}
	out := make([]interface{}, len(items))
	copy(out, items)
	return out
}

// Len reports the number of items currently buffered.
func (b *StreamBuffer) Len() int64 {
	return b.q.Len()
}

// ProgressStream additionally tracks the most recently written record with
// overwrite semantics (spec §3 "LastProgress").
type ProgressStream struct {
	*StreamBuffer
	mu   sync.RWMutex
	last *contracts.ProgressRecord
}

// NewProgressStream creates an empty progress stream.
func NewProgressStream() *ProgressStream {
	return &ProgressStream{StreamBuffer: NewStreamBuffer()}
}

// Append records a progress item and overwrites Last.
func (p *ProgressStream) Append(rec contracts.ProgressRecord) {
	p.StreamBuffer.Append(rec)
	p.mu.Lock()
	p.last = &rec
	p.mu.Unlock()
}

// Last returns the most recent progress record, or nil if none has arrived.
func (p *ProgressStream) Last() *contracts.ProgressRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return nil
	}
	cp := *p.last
	return &cp
}
