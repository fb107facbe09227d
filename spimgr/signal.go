package spimgr

import "spimux-go/ao"

// The three SPI-related signals. SPI_TXRX_COMPLETE and SPI_TIMEOUT are
// used both as the signals the Manager itself receives (from the hardware
// completion callback and the timeout time-event, respectively) and as
// the signals it posts back to a job's requester — the same logical
// event, retransmitted one hop further.
const (
	SigRequest  ao.Signal = "SPI_TXRX_REQUEST"
	SigComplete ao.Signal = "SPI_TXRX_COMPLETE"
	SigTimeout  ao.Signal = "SPI_TIMEOUT"
)
