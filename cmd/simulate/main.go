// Command simulate wires a spimgr.Manager and a lis3dsh.Driver over a
// host-simulated bus and prints sampled axis readings as an end-to-end
// demonstration harness. A handful of unrelated
// "noise" requesters also contend for the bus so the arbitrator's
// FIFO-ordered servicing is actually exercised, not just the sensor's own
// traffic.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"spimux-go/ao"
	"spimux-go/fault"
	"spimux-go/lis3dsh"
	"spimux-go/pool"
	"spimux-go/spihw/simhw"
	"spimux-go/spimgr"
	"spimux-go/x/fmtx"
)

type noopPin struct{}

func (noopPin) Set(bool) {}

func main() {
	fifoSize := flag.Int("fifo", spimgr.DefaultFIFOSize, "arbitrator job backlog size")
	latency := flag.Duration("latency", 2*time.Millisecond, "simulated transfer latency")
	jobTimeout := flag.Duration("timeout", 10*time.Millisecond, "timeout handed to every noise-requester job")
	run := flag.Duration("run", 2*time.Second, "how long to run the simulation before exiting")
	noise := flag.Int("noise-requesters", 2, "number of unrelated tasks also contending for the bus")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *run)
	defer cancel()

	fault.Guard(func(v fault.Violation) {
		fmtx.Printf("FATAL: %s\n", v.Error())
	}, func() {
		runSimulation(ctx, *fifoSize, *latency, *jobTimeout, *noise)
	})
}

func runSimulation(ctx context.Context, fifoSize int, latency, jobTimeout time.Duration, noiseCount int) {
	dev := simhw.NewFake()
	dev.Latency = latency
	dev.SetRegister(0x20, 0x67) // CTRL4 preloaded so init succeeds on the first attempt

	mgr := spimgr.NewManager("spi0", 0, 4, dev, fifoSize)
	mgr.Start(ctx)

	drv := lis3dsh.NewDriver("accel", 1, mgr, simhw.GPIOChipSelect{Pin: noopPin{}})
	drv.Start(ctx)

	for i := 0; i < noiseCount; i++ {
		startNoiseRequester(ctx, mgr, jobTimeout, i)
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := drv.GetSample()
			if reason := drv.FaultReason(); reason != "" {
				fmtx.Printf("sensor in FAULT: %s\n", reason)
				continue
			}
			fmtx.Printf("sample x=%d y=%d z=%d\n", s.X, s.Y, s.Z)
		}
	}
}

// startNoiseRequester runs a trivial task that repeatedly reads an
// unrelated register through the same Manager, preallocating its single
// Job from a pool.FreeList rather than the bus heap-allocating one per
// request — a non-dynamic-allocation usage pattern, where a one-block
// pool stands in for the fixed job-descriptor storage a real firmware
// task would embed.
func startNoiseRequester(ctx context.Context, mgr *spimgr.Manager, timeout time.Duration, idx int) {
	jobs := pool.NewFreeList[spimgr.Job](1)
	job, _ := jobs.Acquire()
	tx := []byte{0x80 | 0x0f, 0x00} // a harmless read-only probe register
	rx := make([]byte, 2)
	cs := simhw.GPIOChipSelect{Pin: noopPin{}}

	var task *ao.Task
	issue := func() {
		*job = spimgr.Job{Tx: tx, Rx: rx, Len: 2, CS: cs, Timeout: timeout}
		mgr.PostRequest(task, job)
	}
	task = ao.NewTask(fmt.Sprintf("noise-%d", idx), 2, 4,
		func(*ao.Task, ao.Event) { issue() },
		func(_ *ao.Task, e ao.Event) {
			if e.Sig != spimgr.SigComplete && e.Sig != spimgr.SigTimeout {
				return
			}
			time.AfterFunc(7*time.Millisecond, func() {
				select {
				case <-ctx.Done():
				default:
					issue()
				}
			})
		})
	task.Start(ctx, ao.Event{})
}
