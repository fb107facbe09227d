// Package spihw is the hardware boundary the arbitration core drives: a
// chip-select line and a non-blocking SPI transfer, modelled as a small
// interface compatible with tinygo.org/x/drivers, so the same code
// targets a host simulation or a microcontroller build without change
// (services/hal/internal/halcore's GPIOPin/I2C split is the grounding
// for this file's shape).
package spihw

// ChipSelect is the active-low select line driven low before a transfer
// and high on completion (and, faithfully, NOT on timeout — see
// DESIGN.md's chip-select-on-timeout note).
type ChipSelect interface {
	Low()
	High()
}

// SPI is the non-blocking transfer contract the arbitration core drives.
// TransferNonBlocking must return promptly, later invoking onDone once —
// from any goroutine — with the transfer's outcome. Abort cancels an
// in-flight transfer, whose onDone is then not invoked; it must be safe
// to call even if the transfer has
// already completed or was never started.
//
// This mirrors halcore.Adaptor's split-phase Trigger/Collect: the same
// "don't block the caller, signal completion asynchronously" shape, here
// collapsed to a single submit-plus-callback call because SPI completion
// is a single hardware event rather than a retry loop.
type SPI interface {
	TransferNonBlocking(tx, rx []byte, onDone func(err error)) error
	Abort() error
}
