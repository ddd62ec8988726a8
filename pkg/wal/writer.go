// pkg/wal/writer.go
package wal

import (
	"tur/pkg/pager"

	"go.uber.org/zap"
)

// Writer appends pages (and empty pages) to the log and updates the
// journal (spec §4.G). It holds no transaction-level locking of its own:
// the engine is responsible for owning each logical page from at most one
// concurrent transaction (spec §5 "Ordering guarantees").
type Writer struct {
	allocator *LogPositionAllocator
	disk      DiskService
	journal   *Journal
	memory    MemoryFactory
	log       *zap.Logger
}

// NewWriter builds a Writer over the given collaborators.
func NewWriter(allocator *LogPositionAllocator, disk DiskService, journal *Journal, memory MemoryFactory, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{allocator: allocator, disk: disk, journal: journal, memory: memory, log: log}
}

// WriteLogPagesAsync assigns contiguous log positions to pages in order,
// extends the file to cover the last one, writes each page to disk, and
// appends a LogPageHeader per page (spec §4.G).
func (w *Writer) WriteLogPagesAsync(pages []*pager.Page) error {
	if len(pages) == 0 {
		return nil
	}

	var lastPosition uint32
	for _, p := range pages {
		pos := w.allocator.Next()
		p.SetPositionID(pos)
		p.SetRecoveryPositionID(pos)
		lastPosition = pos
	}

	if err := w.disk.SetLength(lastPosition); err != nil {
		return err
	}

	for _, p := range pages {
		if err := w.disk.WritePageAsync(p); err != nil {
			return err
		}
		header := LogPageHeader{
			PositionID:    p.PositionID(),
			PageID:        p.PageNo(),
			TransactionID: p.TransactionID(),
			IsConfirmed:   p.IsConfirmed(),
		}
		w.journal.Append(header)
		w.log.Debug("wrote log page",
			zap.Uint32("position_id", header.PositionID),
			zap.Uint32("page_id", header.PageID),
			zap.Uint64("tx_id", header.TransactionID),
			zap.Bool("confirmed", header.IsConfirmed),
		)
	}
	return nil
}

// WriteEmptyLogPagesAsync records a logical deletion/reset for each pageID:
// it allocates a position per page, extends the file, borrows one page
// buffer, and writes a PageTypeEmpty header for each mapping in turn
// (spec §4.G). walDirtyPages must be empty on entry and receives
// pageID -> positionID. The caller later marks the transaction's last
// written page as confirmed through a separate commit path.
func (w *Writer) WriteEmptyLogPagesAsync(pageIDs []uint32, transactionID uint64, walDirtyPages map[uint32]uint32) error {
	if len(walDirtyPages) != 0 {
		return NewInvariantViolation("WriteEmptyLogPagesAsync: walDirtyPages must be empty")
	}
	if len(pageIDs) == 0 {
		return nil
	}

	var lastPosition uint32
	for _, pageID := range pageIDs {
		pos := w.allocator.Next()
		walDirtyPages[pageID] = pos
		lastPosition = pos
	}

	if err := w.disk.SetLength(lastPosition); err != nil {
		return err
	}

	buf, err := w.memory.AllocateNewPage(0)
	if err != nil {
		return WrapAllocationFailure(err, "WriteEmptyLogPagesAsync")
	}
	defer w.memory.DeallocatePage(buf)

	for pageID, pos := range walDirtyPages {
		buf.SetPageNo(pageID)
		buf.SetPositionID(pos)
		buf.SetRecoveryPositionID(pos)
		buf.SetTransactionID(transactionID)
		buf.SetType(pager.PageTypeEmpty)
		buf.SetConfirmed(false)
		buf.SetDirty(true)

		if err := w.disk.WritePageAsync(buf); err != nil {
			return err
		}
		header := LogPageHeader{
			PositionID:    pos,
			PageID:        pageID,
			TransactionID: transactionID,
			IsConfirmed:   false,
		}
		w.journal.Append(header)
		w.log.Debug("wrote empty log page",
			zap.Uint32("position_id", header.PositionID),
			zap.Uint32("page_id", header.PageID),
			zap.Uint64("tx_id", transactionID),
		)
	}
	return nil
}
