// pkg/wal/cache_test.go
package wal

import (
	"testing"

	"tur/pkg/pager"
)

func TestLRUPageCache_AddAndTryRemove(t *testing.T) {
	c := NewLRUPageCache(10, 4096, nil, NewPoolMemoryFactory(4096))

	p := pager.NewPage(3, 4096)
	p.SetPositionID(3)
	if !c.AddPageInCache(p) {
		t.Fatal("AddPageInCache() returned false")
	}

	got, ok := c.TryRemove(3)
	if !ok {
		t.Fatal("TryRemove() did not find the page")
	}
	if got.PageNo() != 3 {
		t.Errorf("PageNo() = %d, want 3", got.PageNo())
	}

	if _, ok := c.TryRemove(3); ok {
		t.Error("TryRemove() should not find the page a second time")
	}
}

func TestLRUPageCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUPageCache(2, 4096, nil, NewPoolMemoryFactory(4096))

	for i := uint32(1); i <= 3; i++ {
		p := pager.NewPage(i, 4096)
		p.SetPositionID(i)
		c.AddPageInCache(p)
	}

	if _, ok := c.TryRemove(1); ok {
		t.Error("expected position 1 to have been evicted")
	}
	if _, ok := c.TryRemove(2); !ok {
		t.Error("expected position 2 to still be cached")
	}
	if _, ok := c.TryRemove(3); !ok {
		t.Error("expected position 3 to still be cached")
	}
}

func TestLRUPageCache_ClearLogPages(t *testing.T) {
	c := NewLRUPageCache(10, 4096, nil, NewPoolMemoryFactory(4096))

	for i := uint32(1); i <= 5; i++ {
		p := pager.NewPage(i, 4096)
		p.SetPositionID(i)
		c.AddPageInCache(p)
	}

	c.ClearLogPages(2)

	if _, ok := c.TryRemove(1); !ok {
		t.Error("position 1 (<= lastPageID) should remain cached")
	}
	if _, ok := c.TryRemove(2); !ok {
		t.Error("position 2 (<= lastPageID) should remain cached")
	}
	for _, pos := range []uint32{3, 4, 5} {
		if _, ok := c.TryRemove(pos); ok {
			t.Errorf("position %d (> lastPageID) should have been cleared", pos)
		}
	}
}
