// pkg/wal/options.go
package wal

import (
	"tur/pkg/dbfile"

	"go.uber.org/zap"
)

// Options configures a Core. Zero-value fields fall back to defaults,
// following the same Options-struct convention as dbfile.Options.
type Options struct {
	// PageSize is the fixed size, in bytes, of every page slot. Defaults to
	// dbfile.DefaultPageSize.
	PageSize int

	// AMPageStep, AMExtendSize, AMExtendCount describe the allocation-map
	// geometry. Defaults to dbfile.DefaultAMPageStep /
	// dbfile.DefaultAMExtendCount, with AMExtendSize derived.
	AMPageStep    uint32
	AMExtendSize  uint32
	AMExtendCount uint32

	// CacheSize bounds the number of resident pages the default page cache
	// keeps before evicting. Defaults to DefaultCacheSize.
	CacheSize int

	// MemoryLimit bounds the default page cache's memory budget in bytes.
	// Zero uses cache.DefaultMemoryLimit.
	MemoryLimit int64

	// Logger receives structured diagnostics. Defaults to zap.NewNop().
	Logger *zap.Logger
}

// DefaultCacheSize is the default maximum resident page count for
// LRUPageCache.
const DefaultCacheSize = 1000

func (o *Options) withDefaults() Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.PageSize <= 0 {
		out.PageSize = dbfile.DefaultPageSize
	}
	if out.AMPageStep == 0 {
		out.AMPageStep = dbfile.DefaultAMPageStep
		out.AMExtendCount = dbfile.DefaultAMExtendCount
		out.AMExtendSize = (out.AMPageStep - 1) / out.AMExtendCount
	}
	if out.AMExtendCount == 0 {
		out.AMExtendCount = dbfile.DefaultAMExtendCount
	}
	if out.AMExtendSize == 0 {
		out.AMExtendSize = (out.AMPageStep - 1) / out.AMExtendCount
	}
	if out.CacheSize <= 0 {
		out.CacheSize = DefaultCacheSize
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}
