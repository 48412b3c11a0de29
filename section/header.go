package section

import (
	"bytes"
	"fmt"

	"github.com/sjsbench/boxfile/endian"
	"github.com/sjsbench/boxfile/errs"
	"github.com/sjsbench/boxfile/format"
)

// FileHeader is the fixed 72-byte header at the start of every SJSBOX
// relation file. All multi-byte fields are little-endian.
//
// Layout:
//
//	offset  0: magic            (8 bytes, "SJSBOX\0\0")
//	offset  8: format version   (u32, must be 1)
//	offset 12: dim              (u32, d > 0)
//	offset 16: scalar bits      (u32, 32 or 64)
//	offset 20: flags            (u32, bit 0 half-open, bit 1 has ids)
//	offset 24: row count        (u64)
//	offset 32: endian marker    (u64, 0x0102030405060708)
//	offset 40: reserved         (4 x u64, zero)
//
// The header is followed by a u32 name length and that many bytes of UTF-8
// name text, then the row records.
type FileHeader struct {
	Version    uint32
	Dim        uint32
	ScalarBits uint32
	Flags      uint32
	RowCount   uint64
	Reserved   [ReservedWords]uint64
}

// NewFileHeader creates a header for a relation with the given geometry.
// The version and endianness marker fields are implied; Bytes fills them in.
func NewFileHeader(dim uint32, width format.ScalarWidth, rowCount uint64, halfOpen, hasIDs bool) *FileHeader {
	var flags uint32
	if halfOpen {
		flags |= FlagHalfOpen
	}
	if hasIDs {
		flags |= FlagHasIDs
	}

	return &FileHeader{
		Version:    FormatVersion,
		Dim:        dim,
		ScalarBits: uint32(width),
		Flags:      flags,
		RowCount:   rowCount,
	}
}

// HalfOpen reports whether the half-open flag bit is set.
func (h *FileHeader) HalfOpen() bool {
	return h.Flags&FlagHalfOpen != 0
}

// HasExplicitIDs reports whether records carry an explicit u32 identifier.
func (h *FileHeader) HasExplicitIDs() bool {
	return h.Flags&FlagHasIDs != 0
}

// ScalarWidth returns the scalar width declared by the header.
func (h *FileHeader) ScalarWidth() format.ScalarWidth {
	return format.ScalarWidth(h.ScalarBits)
}

// RecordSize returns the byte size of one row record under this header:
// 2*dim scalars plus the optional identifier.
func (h *FileHeader) RecordSize() int {
	size := 2 * int(h.Dim) * h.ScalarWidth().Bytes()
	if h.HasExplicitIDs() {
		size += IDSize
	}

	return size
}

// ReservedZero reports whether all reserved words are zero. Decoders ignore
// non-zero reserved words unless strict reading is requested.
func (h *FileHeader) ReservedZero() bool {
	for _, w := range h.Reserved {
		if w != 0 {
			return false
		}
	}

	return true
}

// Bytes serializes the header into a fresh HeaderSize-byte slice.
func (h *FileHeader) Bytes() []byte {
	engine := endian.GetLittleEndianEngine()

	b := make([]byte, HeaderSize)
	copy(b[0:8], Magic[:])
	engine.PutUint32(b[8:12], h.Version)
	engine.PutUint32(b[12:16], h.Dim)
	engine.PutUint32(b[16:20], h.ScalarBits)
	engine.PutUint32(b[20:24], h.Flags)
	engine.PutUint64(b[24:32], h.RowCount)
	engine.PutUint64(b[32:40], EndianMarker)
	for i, w := range h.Reserved {
		engine.PutUint64(b[40+8*i:48+8*i], w)
	}

	return b
}

// Parse parses and validates a header from data, which must hold at least
// HeaderSize bytes. Validation order: magic, endianness marker, version,
// scalar width, dimension.
func (h *FileHeader) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	if !bytes.Equal(data[0:8], Magic[:]) {
		return fmt.Errorf("%w: bad magic %q", errs.ErrFormatMismatch, data[0:8])
	}

	engine := endian.GetLittleEndianEngine()

	if marker := engine.Uint64(data[32:40]); marker != EndianMarker {
		return fmt.Errorf("%w: marker 0x%016x, want 0x%016x", errs.ErrEndianMismatch, marker, EndianMarker)
	}

	h.Version = engine.Uint32(data[8:12])
	if h.Version != FormatVersion {
		return fmt.Errorf("%w: version %d", errs.ErrFormatMismatch, h.Version)
	}

	h.Dim = engine.Uint32(data[12:16])
	h.ScalarBits = engine.Uint32(data[16:20])
	h.Flags = engine.Uint32(data[20:24])
	h.RowCount = engine.Uint64(data[24:32])
	for i := range h.Reserved {
		h.Reserved[i] = engine.Uint64(data[40+8*i : 48+8*i])
	}

	if !h.ScalarWidth().Valid() {
		return fmt.Errorf("%w: scalar_bits=%d", errs.ErrUnsupportedPrecision, h.ScalarBits)
	}
	if h.Dim == 0 {
		return fmt.Errorf("%w: dim=0", errs.ErrFormatMismatch)
	}

	return nil
}

// ParseFileHeader parses a FileHeader from a byte slice.
func ParseFileHeader(data []byte) (FileHeader, error) {
	h := FileHeader{}
	if err := h.Parse(data); err != nil {
		return FileHeader{}, err
	}

	return h, nil
}
