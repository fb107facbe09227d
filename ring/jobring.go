// Package ring provides the bounded job queue the arbitration core uses to
// hold requests that arrive while it is busy servicing another. It is a
// direct port of the enqueue/dequeue scheme in the source's spi_manager.c:
// a fixed-capacity slice with head/tail indices and one permanently unused
// slot, trading one cell of capacity for branch-free empty/full detection.
package ring

// JobRing is a single-producer, single-consumer (by construction: both
// sides run inside the same task's handler, never concurrently) bounded
// FIFO of *T pointers. Capacity n yields n-1 usable slots — the wasted
// slot is what lets Enqueue/Dequeue tell "empty" and "full" apart without
// a separate counter, exactly as in the source it is grounded on.
type JobRing[T any] struct {
	buf  []*T
	head int // next slot Enqueue will write to
	tail int // next slot Dequeue will read from
}

// New allocates a ring of the given capacity. capacity must be at least 2;
// one slot is always left unused (see the package doc).
func New[T any](capacity int) *JobRing[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &JobRing[T]{buf: make([]*T, capacity)}
}

// Enqueue stores job in the head slot, behind every job already queued.
// It reports false, leaving
// the ring unchanged, if the queue is full.
func (r *JobRing[T]) Enqueue(job *T) bool {
	next := r.head + 1
	if next == len(r.buf) {
		next = 0
	}
	if next == r.tail {
		return false // full
	}
	r.buf[r.head] = job
	r.head = next
	return true
}

// Dequeue removes and returns the oldest job (the one in the tail slot),
// or nil if the queue is empty.
func (r *JobRing[T]) Dequeue() *T {
	if r.head == r.tail {
		return nil // empty
	}
	job := r.buf[r.tail]
	r.buf[r.tail] = nil
	next := r.tail + 1
	if next == len(r.buf) {
		next = 0
	}
	r.tail = next
	return job
}

// Empty reports whether the queue currently holds no jobs.
func (r *JobRing[T]) Empty() bool { return r.head == r.tail }

// Full reports whether the queue has no room for another Enqueue.
func (r *JobRing[T]) Full() bool {
	next := r.head + 1
	if next == len(r.buf) {
		next = 0
	}
	return next == r.tail
}

// Len reports the number of jobs currently queued.
func (r *JobRing[T]) Len() int {
	if r.head >= r.tail {
		return r.head - r.tail
	}
	return len(r.buf) - r.tail + r.head
}

// Cap reports the usable capacity (one less than the backing slice length).
func (r *JobRing[T]) Cap() int { return len(r.buf) - 1 }
