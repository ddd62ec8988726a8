// pkg/wal/journal_test.go
package wal

import "testing"

func TestJournal_AppendTracksConfirmedAndLastPageID(t *testing.T) {
	j := NewJournal(0)

	j.Append(LogPageHeader{PositionID: 10, PageID: 3, TransactionID: 1, IsConfirmed: false})
	if j.IsConfirmed(1) {
		t.Error("transaction should not be confirmed yet")
	}
	if j.LastPageID() != 3 {
		t.Errorf("LastPageID() = %d, want 3", j.LastPageID())
	}

	j.Append(LogPageHeader{PositionID: 11, PageID: 3, TransactionID: 1, IsConfirmed: true})
	if !j.IsConfirmed(1) {
		t.Error("transaction should be confirmed after a confirmed header")
	}

	j.Append(LogPageHeader{PositionID: 12, PageID: 7, TransactionID: 2, IsConfirmed: false})
	if j.LastPageID() != 7 {
		t.Errorf("LastPageID() = %d, want 7", j.LastPageID())
	}

	if got := j.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestJournal_SnapshotIsACopy(t *testing.T) {
	j := NewJournal(0)
	j.Append(LogPageHeader{PositionID: 1, PageID: 1, TransactionID: 1, IsConfirmed: true})

	snap := j.Snapshot()
	snap[0].PageID = 999

	if got := j.Snapshot()[0].PageID; got != 1 {
		t.Errorf("mutating a snapshot affected the journal: PageID = %d, want 1", got)
	}
}

func TestJournal_Reset(t *testing.T) {
	j := NewJournal(0)
	j.Append(LogPageHeader{PositionID: 1, PageID: 5, TransactionID: 1, IsConfirmed: true})

	j.Reset(5)

	if j.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", j.Len())
	}
	if j.IsConfirmed(1) {
		t.Error("confirmed set should be empty after Reset")
	}
	if j.LastPageID() != 5 {
		t.Errorf("LastPageID() after Reset = %d, want 5", j.LastPageID())
	}
}

func TestJournal_ConfirmedCount(t *testing.T) {
	j := NewJournal(0)
	j.Append(LogPageHeader{PositionID: 1, PageID: 1, TransactionID: 1, IsConfirmed: true})
	j.Append(LogPageHeader{PositionID: 2, PageID: 2, TransactionID: 2, IsConfirmed: true})
	j.Append(LogPageHeader{PositionID: 3, PageID: 3, TransactionID: 1, IsConfirmed: true})

	if got := j.ConfirmedCount(); got != 2 {
		t.Errorf("ConfirmedCount() = %d, want 2", got)
	}
}
