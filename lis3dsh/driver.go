// Package lis3dsh is the initialise/verify/poll state machine for the
// LIS3DSH 3-axis accelerometer. It issues every transaction through a
// spimgr.Manager, handles verification failure with bounded retry, and
// maintains the most-recent sample vector for downstream consumers via
// GetSample.
package lis3dsh

import (
	"context"
	"time"

	"spimux-go/ao"
	"spimux-go/fault"
	"spimux-go/spihw"
	"spimux-go/spimgr"
)

// SigPoll is the SENSOR_POLL signal: the periodic time-event that drives
// IDLE → READING.
const SigPoll ao.Signal = "SENSOR_POLL"

const (
	maxInitAttempts = 3

	// pollPeriod is the poll timer's period, picked from the 5-10ms band
	// the device's polling rate is expected to sit in.
	pollPeriod = 8 * time.Millisecond

	// transferTimeout bounds every transaction this driver issues,
	// comfortably above pollPeriod so a slow bus doesn't self-induce
	// spurious timeouts during ordinary polling.
	transferTimeout = 10 * time.Millisecond
)

type driverState int

const (
	stateInitialising driverState = iota
	stateIdle
	stateReading
	stateFault
)

// Driver is the sensor's active object: one *ao.Task, its own init
// sub-stage, an embedded job descriptor with its tx/rx buffers, and the
// published Sample. Construct with NewDriver, then Start it exactly once.
type Driver struct {
	task *ao.Task
	arb  *spimgr.Manager
	cs   spihw.ChipSelect

	state        driverState
	initSubstage int
	initAttempts int
	desiredCTRL4 byte

	sample sampleBox

	// faultReason records why the driver entered FAULT, for diagnostics
	// (e.g. cmd/simulate logging it); it is informational, not itself a
	// fault.Assert — verification mismatch and transfer timeout are
	// reportable, not fatal, outcomes at this layer.
	faultReason fault.Code

	pollTimer *ao.TimeEvent

	job   spimgr.Job
	txBuf [16]byte
	rxBuf [16]byte
}

// NewDriver binds the driver to arb and the device's chip-select
// identifier. The driver enters INITIALISING as soon as Start runs.
func NewDriver(name string, priority int, arb *spimgr.Manager, cs spihw.ChipSelect) *Driver {
	d := &Driver{
		arb:          arb,
		cs:           cs,
		desiredCTRL4: ctrl4Default,
	}
	d.task = ao.NewTask(name, priority, 4, d.onInit, d.onEvent)
	d.pollTimer = ao.NewTimeEvent(SigPoll, d.task)
	return d
}

// Start launches the driver's dispatch goroutine.
func (d *Driver) Start(ctx context.Context) {
	d.task.Start(ctx, ao.Event{})
}

// Task exposes the driver's own active object, e.g. so another component
// can post it a shutdown signal; state itself stays private.
func (d *Driver) Task() *ao.Task { return d.task }

// GetSample returns a by-value snapshot of the latest reading; it is not
// protected against tearing across axes.
func (d *Driver) GetSample() Sample { return d.sample.load() }

// FaultReason reports why the driver entered FAULT. It is the zero Code
// until (and unless) the driver ever faults.
func (d *Driver) FaultReason() fault.Code { return d.faultReason }

func (d *Driver) onInit(_ *ao.Task, _ ao.Event) {
	d.enterInitialising()
}

func (d *Driver) enterInitialising() {
	d.state = stateInitialising
	d.initAttempts = 0
	d.issueCTRL4Write()
}

// issueCTRL4Write is init stage 0: write the desired CTRL4 value.
func (d *Driver) issueCTRL4Write() {
	d.txBuf[0] = regCTRL4
	d.txBuf[1] = d.desiredCTRL4
	d.job = spimgr.Job{
		Tx:      d.txBuf[:2],
		Rx:      d.rxBuf[:2],
		Len:     2,
		CS:      d.cs,
		Timeout: transferTimeout,
	}
	d.arb.PostRequest(d.task, &d.job)
	d.initSubstage = 1
}

// issueCTRL4Readback is init stage 1: read CTRL4 back to verify it stuck.
func (d *Driver) issueCTRL4Readback() {
	d.txBuf[0] = readBit | regCTRL4
	d.job = spimgr.Job{
		Tx:      d.txBuf[:2],
		Rx:      d.rxBuf[:2],
		Len:     2,
		CS:      d.cs,
		Timeout: transferTimeout,
	}
	d.arb.PostRequest(d.task, &d.job)
	d.initSubstage = 2
}

// issuePollRead issues the 7-byte transaction that clocks out all six
// axis registers starting at OUT_X_L; byte 0 is the read-mode address,
// the remaining six are don't-care writes.
func (d *Driver) issuePollRead() {
	d.txBuf[0] = readBit | regOutXL
	for i := 1; i < 7; i++ {
		d.txBuf[i] = 0
	}
	d.job = spimgr.Job{
		Tx:      d.txBuf[:7],
		Rx:      d.rxBuf[:7],
		Len:     7,
		CS:      d.cs,
		Timeout: transferTimeout,
	}
	d.arb.PostRequest(d.task, &d.job)
	d.state = stateReading
}

func (d *Driver) enterIdle() {
	d.state = stateIdle
	d.pollTimer.Arm(time.Millisecond, pollPeriod)
}

func (d *Driver) enterFault(reason fault.Code) {
	d.state = stateFault
	d.faultReason = reason
	d.sample.store(0, 0, 0)
	d.pollTimer.Disarm()
}

// onEvent is the driver's run handler: one event in, processed to
// completion, dispatched by current state
// (INITIALISING/IDLE/READING/FAULT).
func (d *Driver) onEvent(_ *ao.Task, e ao.Event) {
	switch d.state {
	case stateInitialising:
		d.onInitEvent(e)
	case stateIdle:
		d.onIdleEvent(e)
	case stateReading:
		d.onReadingEvent(e)
	case stateFault:
		// FAULT is absorbing: ignore all further events, post nothing.
	default:
		fault.Assertf(false, fault.CodeUnexpectedEvent, "lis3dsh.onEvent", "unknown driver state %d", d.state)
	}
}

func (d *Driver) onInitEvent(e ao.Event) {
	switch e.Sig {
	case spimgr.SigComplete:
		d.onInitComplete()
	case spimgr.SigTimeout:
		d.enterFault(fault.CodeTransferTimeout)
	case SigPoll:
		// A stale poll from a previous life of the poll timer; the poll
		// timer is only armed once INITIALISING completes, so this is
		// a benign, expected race rather than a contract violation.
	default:
		fault.Assertf(false, fault.CodeUnexpectedEvent, "lis3dsh.onInitEvent", "signal %q invalid during init", e.Sig)
	}
}

func (d *Driver) onInitComplete() {
	switch d.initSubstage {
	case 1:
		d.issueCTRL4Readback()
	case 2:
		if d.rxBuf[1] == d.desiredCTRL4 {
			d.enterIdle()
			return
		}
		d.initAttempts++
		if d.initAttempts >= maxInitAttempts {
			d.enterFault(fault.CodeVerificationFault)
			return
		}
		d.issueCTRL4Write()
	default:
		fault.Assertf(false, fault.CodeUnexpectedEvent, "lis3dsh.onInitComplete", "unexpected init substage %d", d.initSubstage)
	}
}

func (d *Driver) onIdleEvent(e ao.Event) {
	switch e.Sig {
	case SigPoll:
		d.issuePollRead()
	case spimgr.SigComplete:
		// A completion for a transaction already resolved before IDLE was
		// re-entered; benign, ignore.
	case spimgr.SigTimeout:
		d.enterFault(fault.CodeTransferTimeout)
	default:
		fault.Assertf(false, fault.CodeUnexpectedEvent, "lis3dsh.onIdleEvent", "signal %q invalid while idle", e.Sig)
	}
}

func (d *Driver) onReadingEvent(e ao.Event) {
	switch e.Sig {
	case spimgr.SigComplete:
		x := int16(uint16(d.rxBuf[1]) | uint16(d.rxBuf[2])<<8)
		y := int16(uint16(d.rxBuf[3]) | uint16(d.rxBuf[4])<<8)
		z := int16(uint16(d.rxBuf[5]) | uint16(d.rxBuf[6])<<8)
		d.sample.store(x, y, z)
		d.state = stateIdle
	case spimgr.SigTimeout:
		d.enterFault(fault.CodeTransferTimeout)
	case SigPoll:
		// The previous transaction is still outstanding and the buffers
		// are reserved for it; drop this poll rather than issuing a
		// second overlapping transfer.
	default:
		fault.Assertf(false, fault.CodeUnexpectedEvent, "lis3dsh.onReadingEvent", "signal %q invalid while reading", e.Sig)
	}
}
