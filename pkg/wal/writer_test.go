// pkg/wal/writer_test.go
package wal

import (
	"testing"

	"tur/pkg/pager"
)

func newTestWriter(t *testing.T) (*Writer, *Journal, *FileDisk) {
	t.Helper()
	f := openTempFile(t)
	disk := NewFileDisk(f, 4096)
	allocator := NewLogPositionAllocator(8193, 2048, 4, 0)
	journal := NewJournal(0)
	memory := NewPoolMemoryFactory(4096)
	return NewWriter(allocator, disk, journal, memory, nil), journal, disk
}

func TestWriter_WriteLogPagesAsync_AssignsContiguousPositions(t *testing.T) {
	w, j, _ := newTestWriter(t)

	pages := []*pager.Page{
		pager.NewPage(1, 4096),
		pager.NewPage(2, 4096),
		pager.NewPage(3, 4096),
	}
	pages[2].SetConfirmed(true)
	for i, p := range pages {
		p.SetTransactionID(1)
		copy(p.Data(), []byte{byte(i)})
	}

	if err := w.WriteLogPagesAsync(pages); err != nil {
		t.Fatalf("WriteLogPagesAsync() error = %v", err)
	}

	if j.Len() != 3 {
		t.Fatalf("journal Len() = %d, want 3", j.Len())
	}
	if !j.IsConfirmed(1) {
		t.Error("transaction 1 should be confirmed")
	}

	snap := j.Snapshot()
	for i := 1; i < len(snap); i++ {
		if snap[i].PositionID <= snap[i-1].PositionID {
			t.Errorf("positions not strictly increasing: %+v", snap)
		}
	}
}

func TestWriter_WriteEmptyLogPagesAsync(t *testing.T) {
	w, j, disk := newTestWriter(t)

	walDirtyPages := make(map[uint32]uint32)
	if err := w.WriteEmptyLogPagesAsync([]uint32{10, 11}, 5, walDirtyPages); err != nil {
		t.Fatalf("WriteEmptyLogPagesAsync() error = %v", err)
	}

	if len(walDirtyPages) != 2 {
		t.Fatalf("len(walDirtyPages) = %d, want 2", len(walDirtyPages))
	}
	if j.Len() != 2 {
		t.Fatalf("journal Len() = %d, want 2", j.Len())
	}

	for pageID, pos := range walDirtyPages {
		buf := make([]byte, 4096)
		if err := disk.ReadPageAsync(buf, pos); err != nil {
			t.Fatalf("ReadPageAsync() error = %v", err)
		}
		p := pager.NewPageWithData(0, buf)
		if p.Type() != pager.PageTypeEmpty {
			t.Errorf("PageID %d: Type() = %v, want PageTypeEmpty", pageID, p.Type())
		}
	}
}

func TestWriter_WriteEmptyLogPagesAsync_RejectsNonEmptyOutput(t *testing.T) {
	w, _, _ := newTestWriter(t)

	walDirtyPages := map[uint32]uint32{1: 2}
	if err := w.WriteEmptyLogPagesAsync([]uint32{10}, 5, walDirtyPages); err == nil {
		t.Error("expected error when walDirtyPages is not empty on entry")
	}
}
