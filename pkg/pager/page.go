// pkg/pager/page.go
package pager

import (
	"encoding/binary"
	"sync"
)

// PageType identifies the type of data stored in a page
type PageType byte

const (
	PageTypeUnknown       PageType = 0x00
	PageTypeBTreeInterior PageType = 0x01
	PageTypeBTreeLeaf     PageType = 0x02
	PageTypeHNSWNode      PageType = 0x10
	PageTypeHNSWMeta      PageType = 0x11
	PageTypeOverflow      PageType = 0x20
	PageTypeFreeList      PageType = 0x30

	// PageTypeEmpty marks a page written to the log as a logical deletion
	// or reset (spec.md §4.G WriteEmptyLogPagesAsync) rather than as a
	// copy of real page content.
	PageTypeEmpty PageType = 0xFF
)

// On-disk header layout within a page's data buffer (spec.md §3:
// "fixed-size buffer with a header exposing PageID/PositionID/
// RecoveryPositionID/TransactionID/IsConfirmed"). PageType occupies byte
// 0 (see Type/SetType); the rest of the header follows it directly.
// Content owned by higher layers starts at HeaderSize.
const (
	headerPageNoOffset             = 1
	headerPositionIDOffset         = 5
	headerRecoveryPositionIDOffset = 9
	headerTransactionIDOffset      = 13
	headerConfirmedOffset          = 21

	// HeaderSize is the number of bytes at the front of every page buffer
	// reserved for its header.
	HeaderSize = 22
)

// Page represents an in-memory database page plus the log/checkpoint
// bookkeeping fields spec.md §3's data model requires: every page carries
// both its logical identity (PageID, its home slot in the data region) and
// the physical slot it currently occupies (PositionID), which diverge while
// the page lives in the log region.
type Page struct {
	mu sync.RWMutex

	pageNo uint32
	data   []byte
	dirty  bool
	pinned int // reference count

	// positionID is the physical slot this page buffer currently occupies.
	// recoveryPositionID is the slot recorded for crash recovery; it is set
	// equal to positionID the moment the page is first written to the log
	// and does not move afterward even if the page is later relocated.
	positionID         uint32
	recoveryPositionID uint32
	transactionID      uint64
	confirmed          bool
}

// NewPage creates a new page with the given page number and size. The
// header is encoded into the buffer immediately so a freshly created page
// is consistent on disk from the start.
func NewPage(pageNo uint32, pageSize int) *Page {
	p := &Page{
		pageNo: pageNo,
		data:   make([]byte, pageSize),
	}
	p.encodeHeaderLocked()
	return p
}

// NewPageWithData creates a page wrapping an existing buffer (for loading
// from disk or handing a caller-owned buffer to the memory factory). It
// does not inspect data's contents: callers that know data already carries
// a serialized header (e.g. just read from disk) must call DecodeHeader
// to populate the struct's fields from it; callers handing over a fresh
// buffer should call EncodeHeader to make the buffer match pageNo.
func NewPageWithData(pageNo uint32, data []byte) *Page {
	return &Page{
		pageNo: pageNo,
		data:   data,
	}
}

// PageNo returns the page number (its logical PageID).
func (p *Page) PageNo() uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pageNo
}

// SetPageNo updates the logical PageID, e.g. when a checkpoint action
// rewrites a log-region copy into its home data-region slot.
func (p *Page) SetPageNo(pageNo uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageNo = pageNo
	p.encodeHeaderLocked()
}

// Data returns the raw page data (caller should hold appropriate lock)
func (p *Page) Data() []byte {
	return p.data
}

// IsDirty returns whether the page has been modified
func (p *Page) IsDirty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dirty
}

// SetDirty marks the page as dirty (modified)
func (p *Page) SetDirty(dirty bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty = dirty
}

// Type returns the page type (stored in first byte)
func (p *Page) Type() PageType {
	if len(p.data) == 0 {
		return PageTypeUnknown
	}
	return PageType(p.data[0])
}

// SetType sets the page type (stored in first byte)
func (p *Page) SetType(t PageType) {
	if len(p.data) > 0 {
		p.data[0] = byte(t)
	}
}

// PositionID returns the physical slot this page buffer currently occupies.
func (p *Page) PositionID() uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.positionID
}

// SetPositionID updates the physical slot.
func (p *Page) SetPositionID(positionID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positionID = positionID
	p.encodeHeaderLocked()
}

// RecoveryPositionID returns the slot recorded for crash recovery.
func (p *Page) RecoveryPositionID() uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.recoveryPositionID
}

// SetRecoveryPositionID updates the crash-recovery slot.
func (p *Page) SetRecoveryPositionID(positionID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recoveryPositionID = positionID
	p.encodeHeaderLocked()
}

// TransactionID returns the owning transaction.
func (p *Page) TransactionID() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transactionID
}

// SetTransactionID sets the owning transaction.
func (p *Page) SetTransactionID(txID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transactionID = txID
	p.encodeHeaderLocked()
}

// IsConfirmed reports whether this is the last page of a committed
// transaction batch.
func (p *Page) IsConfirmed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.confirmed
}

// SetConfirmed marks this page as the commit point of its transaction.
func (p *Page) SetConfirmed(confirmed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = confirmed
	p.encodeHeaderLocked()
}

// EncodeHeader writes the page's current PageID/PositionID/
// RecoveryPositionID/TransactionID/IsConfirmed fields into the header
// prefix of its data buffer (spec.md §3). Every setter above already keeps
// the buffer in sync as fields change; this is for callers that just
// assigned a fresh buffer (e.g. a memory factory handing out a page
// pre-addressed to pageNo) and need the buffer to reflect it immediately.
func (p *Page) EncodeHeader() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.encodeHeaderLocked()
}

// DecodeHeader populates PageID/PositionID/RecoveryPositionID/
// TransactionID/IsConfirmed from the header prefix already present in the
// data buffer — the read-side counterpart of EncodeHeader, used after a
// buffer has just been filled from disk (spec.md invariant 4: the on-disk
// page at header.PositionID carries the matching PageID/TransactionID).
func (p *Page) DecodeHeader() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decodeHeaderLocked()
}

// encodeHeaderLocked assumes the caller already holds p.mu (or owns p
// exclusively, e.g. during construction).
func (p *Page) encodeHeaderLocked() {
	if len(p.data) < HeaderSize {
		return
	}
	binary.LittleEndian.PutUint32(p.data[headerPageNoOffset:], p.pageNo)
	binary.LittleEndian.PutUint32(p.data[headerPositionIDOffset:], p.positionID)
	binary.LittleEndian.PutUint32(p.data[headerRecoveryPositionIDOffset:], p.recoveryPositionID)
	binary.LittleEndian.PutUint64(p.data[headerTransactionIDOffset:], p.transactionID)
	if p.confirmed {
		p.data[headerConfirmedOffset] = 1
	} else {
		p.data[headerConfirmedOffset] = 0
	}
}

// decodeHeaderLocked assumes the caller already holds p.mu.
func (p *Page) decodeHeaderLocked() {
	if len(p.data) < HeaderSize {
		return
	}
	p.pageNo = binary.LittleEndian.Uint32(p.data[headerPageNoOffset:])
	p.positionID = binary.LittleEndian.Uint32(p.data[headerPositionIDOffset:])
	p.recoveryPositionID = binary.LittleEndian.Uint32(p.data[headerRecoveryPositionIDOffset:])
	p.transactionID = binary.LittleEndian.Uint64(p.data[headerTransactionIDOffset:])
	p.confirmed = p.data[headerConfirmedOffset] != 0
}

// Pin increments the reference count
func (p *Page) Pin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pinned++
}

// Unpin decrements the reference count
func (p *Page) Unpin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pinned > 0 {
		p.pinned--
	}
}

// IsPinned returns whether the page is currently in use
func (p *Page) IsPinned() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pinned > 0
}

// Reset clears a page buffer's log/checkpoint bookkeeping fields and
// zeroes its data, so a buffer returned to a memory factory's pool can be
// handed out again as if freshly allocated.
func (p *Page) Reset(pageNo uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageNo = pageNo
	p.positionID = 0
	p.recoveryPositionID = 0
	p.transactionID = 0
	p.confirmed = false
	p.dirty = false
	p.pinned = 0
	for i := range p.data {
		p.data[i] = 0
	}
	p.encodeHeaderLocked()
}
