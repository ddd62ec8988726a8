// pkg/wal/walindex.go
package wal

import "github.com/puzpuzpuz/xsync/v3"

// WALIndex is the external collaborator (spec §6) mapping logical PageID to
// current log PositionID. Insertion and lookup belong to other subsystems
// (the query/storage layer that owns page resolution); this core only
// needs to be able to Clear() it at checkpoint end.
type WALIndex interface {
	Clear()
}

// MapWALIndex is the default WALIndex: an xsync.MapOf[uint32, uint32] from
// logical PageID to current log PositionID, letting concurrent writers
// resolve "is this page already in the log, and where" without blocking
// each other.
type MapWALIndex struct {
	m *xsync.MapOf[uint32, uint32]
}

// NewMapWALIndex builds an empty index.
func NewMapWALIndex() *MapWALIndex {
	return &MapWALIndex{m: xsync.NewMapOf[uint32, uint32]()}
}

// Lookup returns the current log position for pageID, if tracked.
func (w *MapWALIndex) Lookup(pageID uint32) (uint32, bool) {
	return w.m.Load(pageID)
}

// Set records pageID's current log position.
func (w *MapWALIndex) Set(pageID, positionID uint32) {
	w.m.Store(pageID, positionID)
}

// Clear replaces the map wholesale, which is cheaper than deleting every
// key and matches the "clearable" contract verbatim.
func (w *MapWALIndex) Clear() {
	w.m = xsync.NewMapOf[uint32, uint32]()
}
