// pkg/wal/journal.go
package wal

import "sync"

// LogPageHeader is the journal's record of one page write: where it landed,
// which logical page it represents, and which transaction owns it.
type LogPageHeader struct {
	PositionID    uint32
	PageID        uint32
	TransactionID uint64
	IsConfirmed   bool
}

// Journal is the in-memory, append-only queue of LogPageHeader entries plus
// the confirmed-transaction set and lastPageID scalar. Per spec §9, these
// are modeled as independent synchronization primitives rather than one
// lock: the queue has its own mutex (Snapshot() holds it only while
// copying, so planning over the copy does not block Append), and the
// confirmed set / lastPageID share a second, briefer one.
type Journal struct {
	queueMu sync.Mutex
	headers []LogPageHeader

	stateMu   sync.Mutex
	confirmed map[uint64]struct{}
	lastPageID uint32
}

// NewJournal builds an empty journal seeded with the lastPageID recorded at
// the previous checkpoint (or 0 for a brand new file).
func NewJournal(lastPageID uint32) *Journal {
	return &Journal{
		confirmed:  make(map[uint64]struct{}),
		lastPageID: lastPageID,
	}
}

// Append records a header. The confirmed-set/lastPageID update happens
// first, under the state mutex, so any observer of the queue entry that
// follows also sees a consistent lastPageID (spec §4.F).
func (j *Journal) Append(h LogPageHeader) {
	j.stateMu.Lock()
	if h.IsConfirmed {
		j.confirmed[h.TransactionID] = struct{}{}
	}
	if h.PageID > j.lastPageID {
		j.lastPageID = h.PageID
	}
	j.stateMu.Unlock()

	j.queueMu.Lock()
	j.headers = append(j.headers, h)
	j.queueMu.Unlock()
}

// Snapshot returns a copy of the current header queue so the planner can
// group entries by PageID without holding the append lock during planning.
func (j *Journal) Snapshot() []LogPageHeader {
	j.queueMu.Lock()
	defer j.queueMu.Unlock()
	out := make([]LogPageHeader, len(j.headers))
	copy(out, j.headers)
	return out
}

// IsConfirmed reports whether txID has at least one confirmed header.
func (j *Journal) IsConfirmed(txID uint64) bool {
	j.stateMu.Lock()
	defer j.stateMu.Unlock()
	_, ok := j.confirmed[txID]
	return ok
}

// LastPageID returns the highest PageID ever observed, on disk or in the log.
func (j *Journal) LastPageID() uint32 {
	j.stateMu.Lock()
	defer j.stateMu.Unlock()
	return j.lastPageID
}

// SetLastPageID overrides the tracked lastPageID. The checkpoint executor
// does not call it; it sets lastPageID through Reset.
func (j *Journal) SetLastPageID(pageID uint32) {
	j.stateMu.Lock()
	defer j.stateMu.Unlock()
	j.lastPageID = pageID
}

// Reset drops every queued header and confirmed transaction; called at
// checkpoint end (spec invariant 3: journal is empty at checkpoint end).
func (j *Journal) Reset(lastPageID uint32) {
	j.queueMu.Lock()
	j.headers = nil
	j.queueMu.Unlock()

	j.stateMu.Lock()
	j.confirmed = make(map[uint64]struct{})
	j.lastPageID = lastPageID
	j.stateMu.Unlock()
}

// Len returns the number of currently queued headers.
func (j *Journal) Len() int {
	j.queueMu.Lock()
	defer j.queueMu.Unlock()
	return len(j.headers)
}

// ConfirmedCount returns the number of distinct confirmed transactions.
func (j *Journal) ConfirmedCount() int {
	j.stateMu.Lock()
	defer j.stateMu.Unlock()
	return len(j.confirmed)
}
