package spimgr

import (
	"time"

	"spimux-go/ao"
	"spimux-go/spihw"
)

// Job is the descriptor a requester builds and owns for the duration of
// exactly one transaction. The invariant holds by convention, not by the
// type system: while a Job is queued in or executing under a Manager, the
// requester must not mutate Tx, Rx, Len or Timeout. Tx/Rx are the
// requester's own storage, handed to the bus and read back in place —
// never copied — mirroring the reused wbuf/rbuf of
// services/hal/internal/devices/ltc4015/adaptor.go and the sensor
// driver's own embedded 16-byte buffers.
type Job struct {
	Tx        []byte
	Rx        []byte
	Len       int
	CS        spihw.ChipSelect
	Timeout   time.Duration
	Requester *ao.Task
}

// RequestEvent is the small event a requester posts to ask the arbitrator
// to run Job: a signal tag plus a pointer, nothing else. The arbitrator
// only ever reads Job's fields through it.
type RequestEvent struct {
	Job *Job
}

// completeMsg is the Manager's own internal bookkeeping between a hardware
// completion callback (running on some other goroutine) and the Manager's
// run handler. seq lets a stale completion racing an already-issued abort
// be dropped rather than mistaken for a contract violation — see
// Manager.onComplete.
type completeMsg struct {
	seq uint64
	err error
}
