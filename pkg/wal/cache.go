// pkg/wal/cache.go
package wal

import (
	"container/list"
	"sync"

	"tur/pkg/cache"
	"tur/pkg/pager"

	"github.com/puzpuzpuz/xsync/v3"
)

// PageCache is the external collaborator (spec §6) mapping position ID to
// page buffer. Bounded; can drop log pages on demand at checkpoint end.
type PageCache interface {
	TryRemove(positionID uint32) (*pager.Page, bool)
	AddPageInCache(p *pager.Page) bool
	ClearLogPages(lastPageID uint32)
}

type cacheEntry struct {
	page *pager.Page
	elem *list.Element
}

// LRUPageCache is the default PageCache. It adapts the teacher's
// container/list-based LRU, swapping the lookup map for an
// xsync.MapOf[uint32, *cacheEntry] so concurrent readers don't contend on a
// mutex; the LRU ordering list stays behind a small sync.Mutex since only
// the (exclusive, per spec §5) checkpoint executor evicts. Wired to
// cache.MemoryBudget so eviction also reacts to memory pressure, not just
// slot count.
type LRUPageCache struct {
	maxEntries int
	pageSize   int64
	budget     *cache.MemoryBudget
	memory     MemoryFactory

	entries *xsync.MapOf[uint32, *cacheEntry]

	listMu sync.Mutex
	lru    *list.List // front = most recently used
}

// NewLRUPageCache builds a cache bounded to maxEntries resident pages and
// the given memory budget. A nil budget allocates one sized DefaultMemoryLimit.
// memory is the factory pages not returned to a caller (evicted on
// capacity, or dropped by ClearLogPages) are deallocated through, so a
// page has exactly one owner at any moment (spec §3/§5 resource discipline).
func NewLRUPageCache(maxEntries int, pageSize int, budget *cache.MemoryBudget, memory MemoryFactory) *LRUPageCache {
	if budget == nil {
		budget = cache.NewMemoryBudget(0)
	}
	budget.RegisterComponent("wal-page-cache")
	return &LRUPageCache{
		maxEntries: maxEntries,
		pageSize:   int64(pageSize),
		budget:     budget,
		memory:     memory,
		entries:    xsync.NewMapOf[uint32, *cacheEntry](),
		lru:        list.New(),
	}
}

// TryRemove atomically takes the page at positionID out of the cache, if
// present.
func (c *LRUPageCache) TryRemove(positionID uint32) (*pager.Page, bool) {
	entry, ok := c.entries.LoadAndDelete(positionID)
	if !ok {
		return nil, false
	}

	c.listMu.Lock()
	c.lru.Remove(entry.elem)
	c.listMu.Unlock()

	c.budget.ReleaseItem("wal-page-cache", key(positionID))
	return entry.page, true
}

// AddPageInCache inserts p keyed by its PositionID, evicting the
// least-recently-used entry if the cache is over capacity or its memory
// budget is under pressure. This cache never refuses a page and always
// returns true; the bool result is part of the PageCache interface.
func (c *LRUPageCache) AddPageInCache(p *pager.Page) bool {
	positionID := p.PositionID()

	if existing, ok := c.entries.Load(positionID); ok {
		c.listMu.Lock()
		c.lru.MoveToFront(existing.elem)
		c.listMu.Unlock()
		existing.page = p
		return true
	}

	c.listMu.Lock()
	elem := c.lru.PushFront(positionID)
	var evictPos uint32
	evict := false
	if c.lru.Len() > c.maxEntries || (c.lru.Len() > 1 && c.budget.IsUnderPressure()) {
		back := c.lru.Back()
		if back != nil {
			evictPos = back.Value.(uint32)
			c.lru.Remove(back)
			evict = true
		}
	}
	c.listMu.Unlock()

	if evict {
		if victim, ok := c.entries.LoadAndDelete(evictPos); ok {
			c.memory.DeallocatePage(victim.page)
			c.budget.ReleaseItem("wal-page-cache", key(evictPos))
		}
	}

	c.entries.Store(positionID, &cacheEntry{page: p, elem: elem})
	c.budget.TrackWithPriority("wal-page-cache", key(positionID), c.pageSize, cache.PriorityWarm)
	return true
}

// ClearLogPages drops every cache entry whose PositionID lies in the log
// region (> lastPageID), matching spec §6's ClearLogPages contract and
// spec invariant 7 ("no log page remains in the cache" after checkpoint).
func (c *LRUPageCache) ClearLogPages(lastPageID uint32) {
	var toEvict []uint32
	c.entries.Range(func(positionID uint32, entry *cacheEntry) bool {
		if positionID > lastPageID {
			toEvict = append(toEvict, positionID)
		}
		return true
	})
	for _, pos := range toEvict {
		if p, ok := c.TryRemove(pos); ok {
			c.memory.DeallocatePage(p)
		}
	}
}

func key(positionID uint32) string {
	buf := make([]byte, 4)
	buf[0] = byte(positionID)
	buf[1] = byte(positionID >> 8)
	buf[2] = byte(positionID >> 16)
	buf[3] = byte(positionID >> 24)
	return string(buf)
}
