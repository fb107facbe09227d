// Package spimgr is the SPI arbitration core: the single serialisation
// point that owns a spihw.SPI bus, accepts
// transaction requests from any number of requester tasks, queues them in
// FIFO order, drives chip-select, enforces per-transaction timeouts, and
// reports completion or timeout back to the originating requester. It is
// the only component permitted to touch the physical bus.
package spimgr

import (
	"context"

	"spimux-go/ao"
	"spimux-go/fault"
	"spimux-go/ring"
	"spimux-go/spihw"
)

type state int

const (
	stateReady state = iota
	stateBusy
)

// DefaultFIFOSize is the design constant N (typical N=16); effective
// queued capacity is N-1 (one slot is intentionally always unused so
// empty/full can be told apart without a separate counter).
const DefaultFIFOSize = 16

// Manager is the arbitrator. One Manager owns exactly one physical bus:
// a second bus needs a second Manager over a second spihw.SPI, never a
// shared one.
//
// Manager's state (current job, FIFO, BUSY/READY, timeout timer) is
// mutated only from inside its own dispatch handler, which runs on the
// single goroutine owned by its embedded *ao.Task — the arbitrator's
// state is never touched from any other goroutine.
type Manager struct {
	task *ao.Task
	hw   spihw.SPI
	fifo *ring.JobRing[Job]

	st      state
	current *Job
	timer   *ao.TimeEvent
	seq     uint64
}

// NewManager constructs a Manager over hw with a job backlog of fifoSize
// slots. priority and queueLen tune the underlying ao.Task; queueLen only
// needs to hold control signals (REQUEST/COMPLETE/TIMEOUT) since the job
// backlog itself lives in the ring, not the task queue.
func NewManager(name string, priority, queueLen int, hw spihw.SPI, fifoSize int) *Manager {
	if fifoSize < 2 {
		fifoSize = DefaultFIFOSize
	}
	m := &Manager{
		hw:   hw,
		fifo: ring.New[Job](fifoSize),
		st:   stateReady,
	}
	m.task = ao.NewTask(name, priority, queueLen, nil, m.dispatch)
	m.timer = ao.NewTimeEvent(SigTimeout, m.task)
	return m
}

// Start launches the arbitrator's dispatch goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.task.Start(ctx, ao.Event{})
}

// Task exposes the Manager's own active object for diagnostics (e.g.
// reporting its control-queue depth); arbitration state itself stays
// private to Manager.
func (m *Manager) Task() *ao.Task { return m.task }

// PostRequest is the arbitrator's public contract: callable from any task
// context, it enforces the stated preconditions and guarantees in-order
// delivery of exactly one terminal response (completion or timeout) to
// requester.
func (m *Manager) PostRequest(requester *ao.Task, job *Job) {
	fault.Assert(job != nil, fault.CodeInvalidJob, "spimgr.PostRequest", "nil job")
	fault.Assert(requester != nil, fault.CodeInvalidJob, "spimgr.PostRequest", "nil requester")
	fault.Assert(job.Len > 0, fault.CodeInvalidJob, "spimgr.PostRequest", "len must be > 0")
	fault.Assert(len(job.Tx) >= job.Len, fault.CodeInvalidJob, "spimgr.PostRequest", "tx shorter than len")
	fault.Assert(len(job.Rx) >= job.Len, fault.CodeInvalidJob, "spimgr.PostRequest", "rx shorter than len")
	fault.Assert(job.CS != nil, fault.CodeInvalidJob, "spimgr.PostRequest", "nil chip-select")
	job.Requester = requester

	ok := m.task.Post(ao.Event{Sig: SigRequest, Payload: &RequestEvent{Job: job}})
	fault.Assert(ok, fault.CodeQueueOverflow, "spimgr.PostRequest", "manager control queue full")
}

// dispatch is the Manager's run handler: exactly one event in, processed
// to completion with no suspension.
func (m *Manager) dispatch(_ *ao.Task, e ao.Event) {
	switch e.Sig {
	case SigRequest:
		m.onRequest(e.Payload.(*RequestEvent).Job)
	case SigComplete:
		m.onComplete(e.Payload.(completeMsg))
	case SigTimeout:
		m.onTimeout()
	default:
		fault.Assertf(false, fault.CodeUnexpectedEvent, "spimgr.dispatch", "unknown signal %q", e.Sig)
	}
}

// onRequest: start immediately if READY, else enqueue; a full FIFO at
// this point is a fatal capacity misconfiguration.
func (m *Manager) onRequest(job *Job) {
	switch m.st {
	case stateReady:
		m.beginTransfer(job)
	case stateBusy:
		ok := m.fifo.Enqueue(job)
		fault.Assert(ok, fault.CodeQueueOverflow, "spimgr.onRequest", "job fifo full")
	default:
		fault.Assertf(false, fault.CodeUnexpectedEvent, "spimgr.onRequest", "unknown state %d", m.st)
	}
}

// beginTransfer asserts chip-select low, hands the transfer to hw, and
// arms the one-shot timeout. It is also the continuation used by
// serviceNextOrIdle to start the next queued job without returning to
// READY in between.
func (m *Manager) beginTransfer(job *Job) {
	m.st = stateBusy
	m.current = job
	m.seq++
	seq := m.seq

	job.CS.Low()
	err := m.hw.TransferNonBlocking(job.Tx[:job.Len], job.Rx[:job.Len], func(doneErr error) {
		m.task.Post(ao.Event{Sig: SigComplete, Payload: completeMsg{seq: seq, err: doneErr}})
	})
	fault.Assert(err == nil, fault.CodeHardwareSubmit, "spimgr.beginTransfer", "TransferNonBlocking rejected submit")
	m.timer.Arm(job.Timeout, 0)
}

// onComplete handles a hardware completion while BUSY. A completion
// whose seq does not match the currently in-flight transfer is a stale
// post from a transfer already superseded by a timeout/abort racing its
// own onDone callback; it is silently dropped rather than treated as a
// contract violation.
func (m *Manager) onComplete(msg completeMsg) {
	if msg.seq != m.seq {
		return
	}
	fault.Assert(m.st == stateBusy, fault.CodeUnexpectedEvent, "spimgr.onComplete", "COMPLETE received while READY")

	finished := m.current
	m.timer.Disarm()
	finished.CS.High()
	m.current = nil
	finished.Requester.Post(ao.Event{Sig: SigComplete, Payload: finished})

	m.serviceNextOrIdle()
}

// onTimeout aborts the in-flight transfer, reports timeout to the
// requester, and sets state to READY — unlike onComplete, it does not
// drain the backlog. Any jobs left queued sit until the next REQUEST
// arrives and finds the arbitrator READY, at which point it is serviced
// ahead of them; this asymmetry with onComplete is intentional, not an
// oversight (see DESIGN.md). Chip-select is also deliberately NOT raised
// before Abort; see DESIGN.md.
func (m *Manager) onTimeout() {
	fault.Assert(m.st == stateBusy, fault.CodeUnexpectedEvent, "spimgr.onTimeout", "TIMEOUT received while READY")

	timedOut := m.current
	m.current = nil
	m.seq++ // invalidate any onDone already in flight from the aborted transfer
	_ = m.hw.Abort()
	timedOut.Requester.Post(ao.Event{Sig: SigTimeout, Payload: timedOut})

	m.st = stateReady
}

// serviceNextOrIdle is used only on completion: the bus is free, so a
// backlog queued while BUSY is serviced immediately rather than waiting
// for an unrelated new REQUEST to arrive and jump ahead of it.
func (m *Manager) serviceNextOrIdle() {
	if next := m.fifo.Dequeue(); next != nil {
		m.beginTransfer(next)
		return
	}
	m.st = stateReady
}
