// pkg/wal/executor.go
package wal

import (
	"tur/pkg/pager"

	"go.uber.org/zap"
)

// Executor drives a checkpoint Plan against disk and cache, then resets the
// allocator, journal, WAL index, and confirmed-transaction set (spec §4.I).
type Executor struct {
	disk      DiskService
	cache     PageCache
	memory    MemoryFactory
	allocator *LogPositionAllocator
	journal   *Journal
	walIndex  WALIndex
	log       *zap.Logger
}

// NewExecutor builds an Executor over the given collaborators.
func NewExecutor(disk DiskService, cache PageCache, memory MemoryFactory, allocator *LogPositionAllocator, journal *Journal, walIndex WALIndex, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{disk: disk, cache: cache, memory: memory, allocator: allocator, journal: journal, walIndex: walIndex, log: log}
}

// acquire obtains the page buffer for positionID, preferring the cache
// (which hands over ownership) and falling back to a fresh buffer read
// from disk.
func (e *Executor) acquire(positionID uint32) (*pager.Page, error) {
	if p, ok := e.cache.TryRemove(positionID); ok {
		return p, nil
	}
	p, err := e.memory.AllocateNewPage(0)
	if err != nil {
		return nil, WrapAllocationFailure(err, "checkpoint acquire")
	}
	if err := e.disk.ReadPageAsync(p.Data(), positionID); err != nil {
		e.memory.DeallocatePage(p)
		return nil, err
	}
	p.DecodeHeader()
	return p, nil
}

// release hands p to the cache if addToCache and the cache accepts it,
// otherwise deallocates it. If the cache already held a page at p's new
// position, that stale entry is removed and deallocated first, and the
// occurrence is logged rather than asserted: the source this is adapted
// from calls it unreachable but unproven (spec §9 open question).
func (e *Executor) release(p *pager.Page, addToCache bool) {
	if stale, ok := e.cache.TryRemove(p.PositionID()); ok {
		e.log.Warn("cache held a stale page at checkpoint target position",
			zap.Uint32("position_id", p.PositionID()))
		e.memory.DeallocatePage(stale)
	}
	if addToCache && e.cache.AddPageInCache(p) {
		return
	}
	e.memory.DeallocatePage(p)
}

// Execute runs actions against disk and cache. lastPageID is the data
// region's boundary after this checkpoint (used to crop or zero the tail and
// to reset the allocator, journal and cache); logPositionID is the end of
// the log region the plan was built from; startTempPositionID and
// tempPagesCount describe how much of the temp region, if any, was used.
// Returns the number of pages actually landed in the data region.
func (e *Executor) Execute(actions []Action, lastPageID, logPositionID, startTempPositionID uint32, tempPagesCount int, crop, addToCache bool) (int, error) {
	var dataPagesWritten int

	for _, a := range actions {
		switch a.Kind {
		case ClearPage:
			if p, ok := e.cache.TryRemove(a.PositionID); ok {
				e.memory.DeallocatePage(p)
			}
			if err := e.disk.WriteEmptyPageAsync(a.PositionID); err != nil {
				return dataPagesWritten, err
			}

		case CopyToDataFile:
			p, err := e.acquire(a.PositionID)
			if err != nil {
				return dataPagesWritten, err
			}
			p.SetPageNo(a.TargetPositionID)
			p.SetPositionID(a.TargetPositionID)
			p.SetRecoveryPositionID(a.TargetPositionID)
			p.SetTransactionID(0)
			p.SetConfirmed(false)
			p.SetDirty(true)

			if err := e.disk.WritePageAsync(p); err != nil {
				return dataPagesWritten, err
			}
			if a.MustClear {
				if err := e.disk.WriteEmptyPageAsync(a.PositionID); err != nil {
					return dataPagesWritten, err
				}
			}
			e.release(p, addToCache)
			dataPagesWritten++
			e.log.Debug("checkpoint copy to data file",
				zap.Uint32("source", a.PositionID), zap.Uint32("target", a.TargetPositionID))

		case CopyToTempFile:
			p, err := e.acquire(a.PositionID)
			if err != nil {
				return dataPagesWritten, err
			}
			p.SetPositionID(a.TargetPositionID)
			p.SetConfirmed(true)
			p.SetDirty(true)

			if err := e.disk.WritePageAsync(p); err != nil {
				return dataPagesWritten, err
			}
			if a.MustClear {
				if err := e.disk.WriteEmptyPageAsync(a.PositionID); err != nil {
					return dataPagesWritten, err
				}
			}
			e.release(p, addToCache)
			e.log.Debug("checkpoint copy to temp file",
				zap.Uint32("source", a.PositionID), zap.Uint32("target", a.TargetPositionID))
		}
	}

	tailEnd := logPositionID
	if tempPagesCount > 0 {
		// Additive, not multiplicative (spec §9 flagged-bug resolution):
		// the temp region's last used slot is startTempPositionID plus the
		// count of temp entries, minus one.
		tempTail := startTempPositionID + uint32(tempPagesCount) - 1
		if tempTail > tailEnd {
			tailEnd = tempTail
		}
	}

	if crop {
		if err := e.disk.SetLength(lastPageID); err != nil {
			return dataPagesWritten, err
		}
	} else if tailEnd > lastPageID {
		if err := e.disk.WriteEmptyPagesAsync(lastPageID+1, tailEnd); err != nil {
			return dataPagesWritten, err
		}
	}

	e.allocator.Reset(lastPageID)
	e.walIndex.Clear()
	e.journal.Reset(lastPageID)
	e.cache.ClearLogPages(lastPageID)

	return dataPagesWritten, nil
}
