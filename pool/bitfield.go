// Package pool implements two fixed-block allocators for code that must
// never call into the Go heap on a hot path: Bitfield, a direct port of
// the source's devnt.c (a single
// machine word tracks up to 32 free blocks via bit-scan), and FreeList, a
// generic reimplementation of mempool.c's intrusive linked free list using
// an index stack over a preallocated slice instead of pointer-threading
// raw memory, since Go has no pointer arithmetic to thread through.
package pool

import (
	"math/bits"
	"sync"
)

// Bitfield is a fixed-block pool of up to 32 blocks, each identified by
// its index. It hands out and reclaims indices in O(1) via a highest-set
// -bit scan, mirroring devnt_pool_get's use of CLZ. Unlike the source,
// which shifts a uint32_t by numBlocks and silently overflows when
// numBlocks == 32, the construction here saturates instead: Go's
// untyped-constant shift rules don't let the identical bug reproduce, so
// the saturation is made explicit rather than left to accident.
type Bitfield struct {
	mu       sync.Mutex
	freeMask uint32
	size     int
}

// NewBitfield constructs a pool of numBlocks blocks, all initially free.
// numBlocks must be in [1, 32].
func NewBitfield(numBlocks int) *Bitfield {
	if numBlocks < 1 {
		numBlocks = 1
	}
	if numBlocks > 32 {
		numBlocks = 32
	}
	var mask uint32
	if numBlocks == 32 {
		mask = ^uint32(0) // saturate rather than overflow a 1<<32 shift
	} else {
		mask = (uint32(1) << uint(numBlocks)) - 1
	}
	return &Bitfield{freeMask: mask, size: numBlocks}
}

// Acquire reserves and returns the index of a free block, and true. If no
// block is free it returns (0, false).
func (b *Bitfield) Acquire() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.freeMask == 0 {
		return 0, false
	}
	idx := 31 - bits.LeadingZeros32(b.freeMask)
	b.freeMask &^= uint32(1) << uint(idx)
	return idx, true
}

// Release returns block idx to the pool. Releasing an index that is
// already free, or one outside [0, size), is a programmer error the
// caller must not make; Bitfield itself stays silent about it, leaving
// contract enforcement to fault.Assert at the call site the same way the
// source leaves it to its caller's discipline.
func (b *Bitfield) Release(idx int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.freeMask |= uint32(1) << uint(idx)
}

// Size reports the pool's total block count.
func (b *Bitfield) Size() int { return b.size }

// Available reports how many blocks are currently free.
func (b *Bitfield) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bits.OnesCount32(b.freeMask)
}
