package journal

import "sync"

// entryQueue is an unbounded FIFO of entries waiting to be written.
// Observers enqueue from the dispatching goroutine; the recorder's Run
// loop is the only consumer.
type entryQueue struct {
	mu      sync.Mutex
	entries []Entry
	closed  bool
	signal  chan struct{} // buffered, size 1; closed on Close
}

func newEntryQueue() *entryQueue {
	return &entryQueue{
		entries: make([]Entry, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds e to the back. It returns false once the queue is closed.
func (q *entryQueue) Enqueue(e Entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.entries = append(q.entries, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front entry without blocking.
func (q *entryQueue) TryDequeue() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, false
	}
	e := q.entries[0]
	q.entries[0] = Entry{} // release the payload
	if len(q.entries) == 1 {
		q.entries = q.entries[:0]
	} else {
		q.entries = q.entries[1:]
	}
	return e, true
}

// Wait signals that entries may be available. The channel is closed when
// the queue closes.
func (q *entryQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *entryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Close stops further enqueues and wakes the consumer.
func (q *entryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
