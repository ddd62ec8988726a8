// pkg/wal/allocator.go
package wal

import "sync/atomic"

// LogPositionAllocator hands out the next log slot, skipping allocation-map
// slots (positions that are multiples of AMPageStep). State is a single
// atomic counter; Next is lock-free and wait-free (spec §4.E, §5.1, §9).
type LogPositionAllocator struct {
	pageStep    uint32
	extendSize  uint32
	extendCount uint32

	counter atomic.Uint32
}

// NewLogPositionAllocator builds an allocator for the given AM geometry,
// initialized to just below the first slot CalcInitLogPositionID selects
// for lastPageID.
func NewLogPositionAllocator(pageStep, extendSize, extendCount uint32, lastPageID uint32) *LogPositionAllocator {
	a := &LogPositionAllocator{pageStep: pageStep, extendSize: extendSize, extendCount: extendCount}
	a.Reset(lastPageID)
	return a
}

// CalcInitLogPositionID computes the counter value one below the first slot
// of the extend two extends past lastPageID's own extend, reserving room for
// in-flight growth of the data region (spec §4.E). Uses int64 internally so
// a fresh file's lastPageID=0 (no data pages beyond the header/AM page
// itself) doesn't underflow the "lastPageID - 1" term.
func CalcInitLogPositionID(lastPageID, pageStep, extendSize, extendCount uint32) uint32 {
	g := int64(lastPageID) / int64(pageStep)
	e := (int64(lastPageID) - 1 - g*int64(pageStep)) / int64(extendSize)
	ePrime := ((e + 2) % int64(extendCount) + int64(extendCount)) % int64(extendCount)
	gPrime := g
	if e+2 >= int64(extendCount) {
		gPrime = g + 1
	}
	return uint32(gPrime*int64(pageStep) + ePrime*int64(extendSize) + 1 - 1)
}

// Reset reinitializes the counter for a fresh CalcInitLogPositionID(lastPageID).
// Used both at construction and after a checkpoint (spec §4.I).
func (a *LogPositionAllocator) Reset(lastPageID uint32) {
	a.counter.Store(CalcInitLogPositionID(lastPageID, a.pageStep, a.extendSize, a.extendCount))
}

// Next atomically pre-increments the counter; if the result lands on an
// allocation-map slot, it pre-increments again. Returns the issued slot.
func (a *LogPositionAllocator) Next() uint32 {
	v := a.counter.Add(1)
	if v%a.pageStep == 0 {
		v = a.counter.Add(1)
	}
	return v
}

// Current returns the counter's present value without advancing it; the
// checkpoint uses it as the end of the log region.
func (a *LogPositionAllocator) Current() uint32 {
	return a.counter.Load()
}
