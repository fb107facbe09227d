// Package ao is the dispatch kernel contract: single-priority, cooperative,
// run-to-completion active objects. Each Task owns exactly one goroutine
// consuming exactly one input queue; a handler runs to completion with no
// internal suspension, and all asynchrony between tasks is expressed as
// posted Events. This is the Go realisation of an external kernel
// collaborator; what the kernel contract actually buys the rest of this
// module is the single-writer-per-task-state guarantee, which holds here
// for the same reason it held in the source: state is touched only
// inside the owning handler. There is no separate priority scheduler
// because every Task already runs on its own goroutine.
package ao

// Signal is a comparable, allocation-free event tag.
type Signal string

// Event is the tagged-variant event carried on a Task's queue: a Signal
// plus an optional pointer payload. This is strategy (b) of the simulated
// inheritance design note — a tagged variant rather than an upcast struct
// embedding — since Go has no safe implicit downcast.
type Event struct {
	Sig     Signal
	Payload any
}
