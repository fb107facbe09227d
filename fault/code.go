// Package fault implements the contract-violation / fatal-assertion policy
// described for this system: capacity and invariant violations are not
// propagated as errors through event boundaries, they crash the dispatch
// loop immediately and loudly.
package fault

// Code is a stable, comparable identifier for a class of fatal violation.
// It is a string newtype, allocation-free, and implements error so a Code
// can be compared, logged, or returned as an error interchangeably.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes. Each corresponds to one row of the error taxonomy.
const (
	CodeQueueOverflow     Code = "queue_overflow"     // arbitrator FIFO full
	CodeUnexpectedEvent   Code = "unexpected_event"   // signal invalid for current state
	CodeHardwareSubmit    Code = "hardware_submit"    // non-OK return from the transfer call
	CodeInvalidJob        Code = "invalid_job"        // post_request precondition violated
	CodeVerificationFault Code = "verification_fault" // informational: entered FAULT after retries (not itself fatal)
	CodeTransferTimeout   Code = "transfer_timeout"   // informational: entered FAULT after a transaction timeout (not itself fatal)
)

// Of extracts a Code from an error, defaulting to "" (not a fault.Code at all).
func Of(err error) (Code, bool) {
	if err == nil {
		return "", false
	}
	c, ok := err.(Code)
	return c, ok
}
