package lis3dsh

import "sync/atomic"

// Sample is the latest x/y/z reading.
type Sample struct {
	X, Y, Z int16
}

// sampleBox publishes Sample through three independent atomic.Int32
// fields rather than a plain struct behind no synchronisation at all. A
// torn read across axes is accepted by design — components may come from
// different completions — but an honest-to-goroutines data race on a
// shared struct is not: Go's memory model makes that undefined behaviour,
// not merely "stale on a cache-coherent single core" the way it would be
// on a single-threaded microcontroller target. Three atomics give the
// intended tear (each component is internally consistent; the three may
// disagree with each other) without a genuine race.
type sampleBox struct {
	x, y, z atomic.Int32
}

func (s *sampleBox) store(x, y, z int16) {
	s.x.Store(int32(x))
	s.y.Store(int32(y))
	s.z.Store(int32(z))
}

func (s *sampleBox) load() Sample {
	return Sample{
		X: int16(s.x.Load()),
		Y: int16(s.y.Load()),
		Z: int16(s.z.Load()),
	}
}
