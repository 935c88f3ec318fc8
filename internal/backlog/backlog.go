// Package backlog holds texts received from web clients that the local user
// has not consumed yet.
package backlog

// Queue is a FIFO of text entries backed by a growable ring buffer.
//
// A Queue with a positive capacity evicts its oldest entry to make room for
// a new one; capacity 0 means unbounded. Queue is not safe for concurrent
// use.
type Queue struct {
	buf      []string
	head     int
	n        int
	capacity int
}

// New returns an empty Queue. capacity <= 0 means unbounded.
func New(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{capacity: capacity}
}

// Push appends text. It reports whether the oldest entry was evicted to
// respect the capacity.
func (q *Queue) Push(text string) (evicted bool) {
	if q.capacity > 0 && q.n == q.capacity {
		q.buf[q.head] = ""
		q.head = (q.head + 1) % len(q.buf)
		q.n--
		evicted = true
	}
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = text
	q.n++
	return evicted
}

// Pop removes and returns the oldest entry. ok is false when the queue is
// empty.
func (q *Queue) Pop() (text string, ok bool) {
	if q.n == 0 {
		return "", false
	}
	text = q.buf[q.head]
	q.buf[q.head] = ""
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return text, true
}

// Len returns the number of queued entries.
func (q *Queue) Len() int { return q.n }

// Cap returns the configured capacity; 0 means unbounded.
func (q *Queue) Cap() int { return q.capacity }

func (q *Queue) grow() {
	size := 2 * len(q.buf)
	if size == 0 {
		size = 8
	}
	if q.capacity > 0 && size > q.capacity {
		size = q.capacity
	}
	buf := make([]string, size)
	for i := 0; i < q.n; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
