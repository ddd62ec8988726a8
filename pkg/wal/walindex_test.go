// pkg/wal/walindex_test.go
package wal

import "testing"

func TestMapWALIndex_SetLookupClear(t *testing.T) {
	idx := NewMapWALIndex()

	idx.Set(5, 100)
	pos, ok := idx.Lookup(5)
	if !ok || pos != 100 {
		t.Errorf("Lookup(5) = (%d, %v), want (100, true)", pos, ok)
	}

	idx.Clear()
	if _, ok := idx.Lookup(5); ok {
		t.Error("Lookup(5) should fail after Clear()")
	}
}
