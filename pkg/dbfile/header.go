// pkg/dbfile/header.go
// Package dbfile implements the on-disk header of a TurDB database file:
// a single fixed-size header page (page 0) carrying the format magic,
// page geometry, the allocation-map extend geometry, and the bookkeeping
// the log/checkpoint core needs to resume after a restart (lastPageID,
// logPositionID).
package dbfile

import (
	"encoding/binary"
	"errors"
)

const (
	// HeaderSize is the size of the database file header in bytes.
	// The first 100 bytes of page 0 contain the file header.
	HeaderSize = 100

	// MagicString identifies a valid TurDB database file.
	// It must be exactly 16 bytes.
	MagicString = "TurDB format 1\x00\x00"

	// DefaultPageSize is the default page size in bytes.
	DefaultPageSize = 4096

	// DefaultAMPageStep is the default allocation-map group size in slots:
	// one AM page followed by DefaultAMExtendCount extends of equal size.
	// 8192 itself doesn't divide evenly into 4 extends after reserving the
	// AM page (8191 is prime), so the group is sized 8193 to keep the
	// extend arithmetic exact while staying within a slot of the "typically
	// 8192" figure.
	DefaultAMPageStep = 8193

	// DefaultAMExtendCount is the default number of extends per AM group.
	DefaultAMExtendCount = 4
)

// Header field offsets.
const (
	offsetMagic              = 0  // 16 bytes: magic string
	offsetPageSize           = 16 // 2 bytes: page size
	offsetFormatWriteVersion = 18 // 1 byte: file format write version
	offsetFormatReadVersion  = 19 // 1 byte: file format read version
	offsetReservedPerPage    = 20 // 1 byte: reserved bytes at end of each page
	offsetChangeCounter      = 24 // 4 bytes: file change counter
	offsetPageCount          = 28 // 4 bytes: size of database in pages
	offsetLastPageID         = 32 // 4 bytes: highest logical page ID in the data region
	offsetLogPositionID      = 36 // 4 bytes: log position allocator cursor at last checkpoint
	offsetAMPageStep         = 40 // 4 bytes: allocation-map group size, in slots
	offsetAMExtendSize       = 44 // 4 bytes: slots per extend
	offsetAMExtendCount      = 48 // 4 bytes: extends per AM group
	offsetApplicationID      = 68 // 4 bytes: application ID
	offsetReserved           = 72 // 20 bytes: reserved for expansion
	offsetVersionValidFor    = 92 // 4 bytes: version-valid-for number
	offsetTurDBVersion       = 96 // 4 bytes: TurDB version number that created this DB
)

// Errors
var (
	ErrInvalidMagic    = errors.New("invalid magic string: not a TurDB database")
	ErrHeaderTooShort  = errors.New("header data too short")
	ErrInvalidPageSize = errors.New("invalid page size")
)

// Header represents the 100-byte database file header.
type Header struct {
	PageSize           uint16 // Page size in bytes (power of 2 between 512 and 32768)
	FormatWriteVersion uint8  // File format write version
	FormatReadVersion  uint8  // File format read version
	ReservedPerPage    uint8  // Reserved bytes at end of each page
	ChangeCounter      uint32 // Incremented on each change
	PageCount          uint32 // Total number of pages in the database (incl. log region)

	// LastPageID and LogPositionID are the log/checkpoint core's resume
	// point: the highest logical page ID in the data region, and the log
	// position allocator's cursor as of the last clean checkpoint.
	LastPageID    uint32
	LogPositionID uint32

	// Allocation-map geometry (spec.md §3). AMExtendSize is stored in the
	// header alongside the other two fields; ValidateHeader checks that
	// AMExtendSize*AMExtendCount+1 == AMPageStep.
	AMPageStep    uint32
	AMExtendSize  uint32
	AMExtendCount uint32

	ApplicationID   uint32 // Application ID
	VersionValidFor uint32 // Change counter at time of version number
	TurDBVersion    uint32 // TurDB version number that created this DB
}

// NewHeader creates a new header with default values.
func NewHeader() *Header {
	extendSize := uint32(DefaultAMPageStep-1) / DefaultAMExtendCount
	return &Header{
		PageSize:           DefaultPageSize,
		FormatWriteVersion: 1,
		FormatReadVersion:  1,
		ReservedPerPage:    0,
		ChangeCounter:      0,
		PageCount:          1, // Header page itself
		LastPageID:         0,
		LogPositionID:      0,
		AMPageStep:         DefaultAMPageStep,
		AMExtendSize:       extendSize,
		AMExtendCount:      DefaultAMExtendCount,
		ApplicationID:      0,
		VersionValidFor:    0,
		TurDBVersion:       1,
	}
}

// Encode serializes the header to a 100-byte slice.
func (h *Header) Encode() []byte {
	data := make([]byte, HeaderSize)

	copy(data[offsetMagic:], MagicString)

	binary.LittleEndian.PutUint16(data[offsetPageSize:], h.PageSize)

	data[offsetFormatWriteVersion] = h.FormatWriteVersion
	data[offsetFormatReadVersion] = h.FormatReadVersion
	data[offsetReservedPerPage] = h.ReservedPerPage

	binary.LittleEndian.PutUint32(data[offsetChangeCounter:], h.ChangeCounter)
	binary.LittleEndian.PutUint32(data[offsetPageCount:], h.PageCount)
	binary.LittleEndian.PutUint32(data[offsetLastPageID:], h.LastPageID)
	binary.LittleEndian.PutUint32(data[offsetLogPositionID:], h.LogPositionID)
	binary.LittleEndian.PutUint32(data[offsetAMPageStep:], h.AMPageStep)
	binary.LittleEndian.PutUint32(data[offsetAMExtendSize:], h.AMExtendSize)
	binary.LittleEndian.PutUint32(data[offsetAMExtendCount:], h.AMExtendCount)
	binary.LittleEndian.PutUint32(data[offsetApplicationID:], h.ApplicationID)
	// Reserved bytes (72-91) are left as zeros
	binary.LittleEndian.PutUint32(data[offsetVersionValidFor:], h.VersionValidFor)
	binary.LittleEndian.PutUint32(data[offsetTurDBVersion:], h.TurDBVersion)

	return data
}

// DecodeHeader deserializes a header from a byte slice.
func DecodeHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrHeaderTooShort
	}

	if string(data[offsetMagic:offsetMagic+16]) != MagicString {
		return nil, ErrInvalidMagic
	}

	h := &Header{
		PageSize:           binary.LittleEndian.Uint16(data[offsetPageSize:]),
		FormatWriteVersion: data[offsetFormatWriteVersion],
		FormatReadVersion:  data[offsetFormatReadVersion],
		ReservedPerPage:    data[offsetReservedPerPage],
		ChangeCounter:      binary.LittleEndian.Uint32(data[offsetChangeCounter:]),
		PageCount:          binary.LittleEndian.Uint32(data[offsetPageCount:]),
		LastPageID:         binary.LittleEndian.Uint32(data[offsetLastPageID:]),
		LogPositionID:      binary.LittleEndian.Uint32(data[offsetLogPositionID:]),
		AMPageStep:         binary.LittleEndian.Uint32(data[offsetAMPageStep:]),
		AMExtendSize:       binary.LittleEndian.Uint32(data[offsetAMExtendSize:]),
		AMExtendCount:      binary.LittleEndian.Uint32(data[offsetAMExtendCount:]),
		ApplicationID:      binary.LittleEndian.Uint32(data[offsetApplicationID:]),
		VersionValidFor:    binary.LittleEndian.Uint32(data[offsetVersionValidFor:]),
		TurDBVersion:       binary.LittleEndian.Uint32(data[offsetTurDBVersion:]),
	}

	return h, nil
}
