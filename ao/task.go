package ao

import "context"

// Handler processes one Event to completion. It must not block, sleep, or
// wait on anything other than values already in hand: all waiting belongs
// to the dispatch loop (the select in run), never inside a Handler body.
type Handler func(t *Task, e Event)

// Task is one active object: a name, a priority (diagnostic only, not
// consulted by the scheduler), a bounded input queue, and an init/run
// handler pair. Construct with NewTask, then Start it exactly once.
type Task struct {
	Name     string
	Priority int

	queue chan Event
	init  Handler
	run   Handler

	done chan struct{}
}

// NewTask constructs a task. queueLen is the bounded pointer buffer size
// for its input queue; init runs once against the Start initial event,
// run processes every subsequent event.
func NewTask(name string, priority, queueLen int, init, run Handler) *Task {
	if queueLen <= 0 {
		queueLen = 1
	}
	return &Task{
		Name:     name,
		Priority: priority,
		queue:    make(chan Event, queueLen),
		init:     init,
		run:      run,
		done:     make(chan struct{}),
	}
}

// Start launches the task's single consuming goroutine: init runs once
// against initial, then the task loops, dispatching one event at a time to
// run until ctx is cancelled. Each dispatch is a synchronous call — the
// Go expression of "runs to completion with no internal suspension".
func (t *Task) Start(ctx context.Context, initial Event) {
	go func() {
		defer close(t.done)
		if t.init != nil {
			t.init(t, initial)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-t.queue:
				t.run(t, e)
			}
		}
	}()
}

// Done reports when the task's goroutine has exited (context cancelled).
func (t *Task) Done() <-chan struct{} { return t.done }

// Post enqueues an event for this task without blocking. It returns false
// if the queue is full — callers decide whether that is benign (drop a
// stale poll) or fatal (a contract violation); ao itself has no opinion,
// matching the source's separation between the kernel primitive and the
// policy layered on top of it by each task.
func (t *Task) Post(e Event) bool {
	select {
	case t.queue <- e:
		return true
	default:
		return false
	}
}

// QueueLen reports how many events are currently queued, for tests and
// diagnostics only.
func (t *Task) QueueLen() int { return len(t.queue) }
