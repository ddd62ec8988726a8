// pkg/wal/core.go
package wal

import (
	"os"

	"tur/pkg/cache"
	"tur/pkg/dbfile"
	"tur/pkg/pager"

	"go.uber.org/zap"
)

// Core wires the log position allocator, journal, writer, planner, and
// executor together against a set of external collaborators (spec §9
// "Dependency injection ... realized as capability parameters given at
// construction; no process-wide state lives in the core").
type Core struct {
	opts Options
	log  *zap.Logger

	disk     DiskService
	memory   MemoryFactory
	pageCache PageCache
	walIndex *MapWALIndex

	allocator *LogPositionAllocator
	journal   *Journal
	writer    *Writer
	planner   *Planner
	executor  *Executor

	lastPageID          uint32
	lastCheckpointPages int
}

// Stats is a point-in-time observability snapshot, grounded on
// cache.MemoryBudgetStats' "stats snapshot struct" shape.
type Stats struct {
	PagesInLog          int
	ConfirmedTxCount     int
	LastCheckpointPages int
}

// NewCore builds a Core over an already-open file, using the default
// FileDisk/PoolMemoryFactory/LRUPageCache/MapWALIndex collaborators. A
// caller that already owns disk/cache/WAL-index services elsewhere in the
// engine should construct those directly and wire them through
// NewCoreWithCollaborators instead.
func NewCore(file *os.File, opts *Options) *Core {
	o := opts.withDefaults()

	disk := NewFileDisk(file, o.PageSize)
	memory := NewPoolMemoryFactory(o.PageSize)
	budget := cache.NewMemoryBudget(o.MemoryLimit)
	pc := NewLRUPageCache(o.CacheSize, o.PageSize, budget, memory)
	idx := NewMapWALIndex()

	return NewCoreWithCollaborators(disk, memory, pc, idx, o)
}

// NewCoreWithCollaborators builds a Core over caller-supplied
// collaborators, e.g. when the engine already owns a DiskService backed by
// dbfile.Database.File().
func NewCoreWithCollaborators(disk DiskService, memory MemoryFactory, pc PageCache, idx *MapWALIndex, o Options) *Core {
	o = o.withDefaults()
	return &Core{
		opts:      o,
		log:       o.Logger,
		disk:      disk,
		memory:    memory,
		pageCache: pc,
		walIndex:  idx,
	}
}

// Initialize sets up the allocator and journal from lastPageID and, if the
// log region is non-empty, re-derives in-memory state by re-reading
// log-region page headers from disk — mirroring the teacher's own
// "if the WAL has frames, recover them" bootstrap. lastPageID is the
// highest logical page ID in the data region as of the last clean
// checkpoint (e.g. dbfile.Database.LastPageID()).
func (c *Core) Initialize(lastPageID uint32) error {
	c.lastPageID = lastPageID
	c.allocator = NewLogPositionAllocator(c.opts.AMPageStep, c.opts.AMExtendSize, c.opts.AMExtendCount, lastPageID)
	c.journal = NewJournal(lastPageID)
	c.writer = NewWriter(c.allocator, c.disk, c.journal, c.memory, c.log)
	c.planner = NewPlanner(c.journal)
	c.executor = NewExecutor(c.disk, c.pageCache, c.memory, c.allocator, c.journal, c.walIndex, c.log)

	return c.recoverLogRegion()
}

// recoverLogRegion re-reads every slot between lastPageID and the disk
// service's recorded file end, skipping AM slots, and re-appends a
// LogPageHeader for any that still carries a page whose PositionID and
// RecoveryPositionID both match its own slot (i.e. it was durably written
// before a crash). A
// fresh, never-written file has no such tail and this is a no-op.
func (c *Core) recoverLogRegion() error {
	end, err := c.disk.GetLastFilePositionID()
	if err != nil {
		return err
	}
	if end <= c.lastPageID {
		return nil
	}

	buf := make([]byte, c.opts.PageSize)
	for pos := c.lastPageID + 1; pos <= end; pos++ {
		if pos%c.opts.AMPageStep == 0 {
			continue
		}
		if err := c.disk.ReadPageAsync(buf, pos); err != nil {
			return err
		}
		p := pager.NewPageWithData(0, buf)
		p.DecodeHeader()
		if p.PositionID() != pos || p.RecoveryPositionID() != pos {
			continue // never-written slot from a pre-extended region
		}
		c.journal.Append(LogPageHeader{
			PositionID:    p.PositionID(),
			PageID:        p.PageNo(),
			TransactionID: p.TransactionID(),
			IsConfirmed:   p.IsConfirmed(),
		})
		buf = make([]byte, c.opts.PageSize)
	}
	return nil
}

// WriteLogPagesAsync appends pages to the log (spec §4.G).
func (c *Core) WriteLogPagesAsync(pages []*pager.Page) error {
	return c.writer.WriteLogPagesAsync(pages)
}

// WriteEmptyLogPagesAsync records logical deletions/resets (spec §4.G).
func (c *Core) WriteEmptyLogPagesAsync(pageIDs []uint32, transactionID uint64, walDirtyPages map[uint32]uint32) error {
	return c.writer.WriteEmptyLogPagesAsync(pageIDs, transactionID, walDirtyPages)
}

// CheckpointAsync is a thin wrapper (spec §4.I): if the journal is empty
// and crop is false, it returns 0 with no disk calls; otherwise it computes
// startTempPositionID, builds a plan, and executes it.
func (c *Core) CheckpointAsync(crop, addToCache bool) (int, error) {
	if c.journal.Len() == 0 && !crop {
		return 0, nil
	}

	logPositionID := c.allocator.Current()
	startTempPositionID := c.lastPageID
	if logPositionID > startTempPositionID {
		startTempPositionID = logPositionID
	}
	startTempPositionID++

	oldLastPageID := c.lastPageID

	tempPages := make(map[uint32]uint32)
	actions := c.planner.Plan(oldLastPageID, startTempPositionID, tempPages)

	// The journal's lastPageID tracks the highest logical PageID ever
	// observed (spec invariant 5); read it before Execute resets the
	// journal, since a checkpoint that materializes a newly grown page
	// into the data region advances the boundary the plan was built
	// against (spec §8 scenario 1: lastPageID becomes the written PageID).
	newLastPageID := c.journal.LastPageID()
	if newLastPageID < oldLastPageID {
		newLastPageID = oldLastPageID
	}

	n, err := c.executor.Execute(actions, newLastPageID, logPositionID, startTempPositionID, len(tempPages), crop, addToCache)
	if err != nil {
		return n, err
	}

	c.lastPageID = newLastPageID
	c.lastCheckpointPages = n

	return n, nil
}

// Stats returns an observability snapshot of the current in-memory state.
func (c *Core) Stats() Stats {
	return Stats{
		PagesInLog:          c.journal.Len(),
		ConfirmedTxCount:    c.journal.ConfirmedCount(),
		LastCheckpointPages: c.lastCheckpointPages,
	}
}

// Dispose is a no-op that returns nil: Core holds no resources of its own
// to release. The underlying file handle is not owned by Core (spec §9 "no
// process-wide state lives in the core") and is left to the caller to close.
func (c *Core) Dispose() error {
	return nil
}

// LastPageID returns the highest logical page ID in the data region as of
// the last checkpoint.
func (c *Core) LastPageID() uint32 {
	return c.lastPageID
}

// DBOptionsFromDatabase derives wal.Options from an already-open
// dbfile.Database, so the AM geometry and page size recorded in the file
// header drive the log core instead of being configured twice.
func DBOptionsFromDatabase(db *dbfile.Database) Options {
	pageStep, extendSize, extendCount := db.AMGeometry()
	return Options{
		PageSize:      db.PageSize(),
		AMPageStep:    pageStep,
		AMExtendSize:  extendSize,
		AMExtendCount: extendCount,
	}
}
