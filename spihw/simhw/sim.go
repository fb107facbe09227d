// Package simhw hosts a simulated SPI transport: wrap a
// tinygo.org/x/drivers-shaped blocking bus in a small adaptor, so the
// arbitration core drives the same spihw.SPI contract whether it sits on
// real silicon or this goroutine. The LTC4015 host simulator's
// driver_host.go is the direct model: a struct satisfying the narrow
// interface the rest of the system depends on, with no chip-specific
// driver imports.
package simhw

import (
	"sync"

	"tinygo.org/x/drivers"
)

// Bus adapts a blocking tinygo.org/x/drivers.SPI into spihw.SPI's
// non-blocking, callback-completed contract by running the blocking Tx
// call on its own goroutine. This is the asynchronous half of the split
// that halcore.Adaptor expresses as Trigger/Collect; here it collapses
// into "submit, then call back" because the underlying operation is a
// single register transfer, not a multi-step measurement cycle.
type Bus struct {
	spi drivers.SPI

	mu      sync.Mutex
	current *transfer
}

type transfer struct {
	abort chan struct{}
	done  chan struct{}
}

// NewBus wraps spi for use as a spihw.SPI.
func NewBus(spi drivers.SPI) *Bus {
	return &Bus{spi: spi}
}

// TransferNonBlocking starts tx/rx on a dedicated goroutine and invokes
// onDone once it finishes, unless Abort was called first.
func (b *Bus) TransferNonBlocking(tx, rx []byte, onDone func(err error)) error {
	t := &transfer{abort: make(chan struct{}), done: make(chan struct{})}

	b.mu.Lock()
	b.current = t
	b.mu.Unlock()

	go func() {
		defer close(t.done)
		err := b.spi.Tx(tx, rx)
		select {
		case <-t.abort:
			return // aborted: drop this outcome without calling onDone
		default:
		}
		onDone(err)
	}()
	return nil
}

// Abort cancels whatever transfer is currently in flight, if any: the
// blocking Tx call still runs to its end, but its result is dropped and
// onDone is not invoked.
// Safe to call when nothing is in flight.
func (b *Bus) Abort() error {
	b.mu.Lock()
	t := b.current
	b.mu.Unlock()
	if t == nil {
		return nil
	}
	select {
	case <-t.done:
		return nil // already finished naturally, nothing to abort
	default:
	}
	close(t.abort)
	return nil
}

// GPIOChipSelect adapts a single tinygo.org/x/drivers-shaped GPIO pin into
// spihw.ChipSelect.
type GPIOChipSelect struct {
	Pin interface{ Set(bool) }
}

func (g GPIOChipSelect) Low()  { g.Pin.Set(false) }
func (g GPIOChipSelect) High() { g.Pin.Set(true) }
