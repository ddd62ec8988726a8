// pkg/wal/memory.go
package wal

import (
	"sync"

	"tur/pkg/pager"
)

// MemoryFactory is the external collaborator (spec §6) responsible for
// allocating and deallocating page buffers. Pages have exactly one owner at
// any moment (spec §5 "Resource discipline"); AllocateNewPage/DeallocatePage
// are the only handoff points that create or destroy that ownership.
type MemoryFactory interface {
	AllocateNewPage(pageNo uint32) (*pager.Page, error)
	DeallocatePage(p *pager.Page)
}

// PoolMemoryFactory is the default MemoryFactory, backed by a sync.Pool of
// page-sized byte slices. This is the one ambient concern implemented on
// the standard library alone: no third-party pooling allocator appears
// anywhere in the retrieved corpus, and sync.Pool is exactly what the
// teacher's own pager used for buffer reuse.
type PoolMemoryFactory struct {
	pageSize int
	pool     sync.Pool
}

// NewPoolMemoryFactory builds a factory handing out pageSize-byte buffers.
func NewPoolMemoryFactory(pageSize int) *PoolMemoryFactory {
	f := &PoolMemoryFactory{pageSize: pageSize}
	f.pool.New = func() any {
		return make([]byte, f.pageSize)
	}
	return f
}

// AllocateNewPage takes a buffer from the pool (or allocates fresh), zeroes
// it, and wraps it in a *pager.Page reset to pageNo.
func (f *PoolMemoryFactory) AllocateNewPage(pageNo uint32) (*pager.Page, error) {
	buf, _ := f.pool.Get().([]byte)
	if len(buf) != f.pageSize {
		buf = make([]byte, f.pageSize)
	} else {
		for i := range buf {
			buf[i] = 0
		}
	}
	p := pager.NewPageWithData(pageNo, buf)
	p.EncodeHeader()
	return p, nil
}

// DeallocatePage returns p's backing buffer to the pool.
func (f *PoolMemoryFactory) DeallocatePage(p *pager.Page) {
	if p == nil {
		return
	}
	f.pool.Put(p.Data())
}
