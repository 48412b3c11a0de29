// Package errs defines the sentinel errors returned by the boxfile codec.
//
// All validation failures are reported through these sentinels, usually
// wrapped with additional context via fmt.Errorf and the %w verb. Callers
// should match them with errors.Is:
//
//	if errors.Is(err, errs.ErrShapeMismatch) { ... }
package errs

import "errors"

// Encoder validation errors. These are detected before any byte is written,
// so a failed encode never creates an output file.
var (
	// ErrShapeMismatch indicates the lower/upper coordinate matrices are not
	// two-dimensional, are not rectangular, differ in shape, or have
	// dimension d <= 0.
	ErrShapeMismatch = errors.New("lower/upper coordinate matrices have mismatched shape")

	// ErrIDCountMismatch indicates an explicit id slice whose length differs
	// from the relation's row count.
	ErrIDCountMismatch = errors.New("explicit id count does not match row count")

	// ErrUnsupportedPrecision indicates a scalar width other than 32 or 64 bits.
	ErrUnsupportedPrecision = errors.New("scalar width must be 32 or 64 bits")

	// ErrNameTooLarge indicates a relation name whose UTF-8 encoding does not
	// fit the 32-bit length field.
	ErrNameTooLarge = errors.New("relation name exceeds 32-bit length field")
)

// Decoder errors.
var (
	// ErrInvalidHeaderSize indicates the input ended before a complete
	// 72-byte file header could be read.
	ErrInvalidHeaderSize = errors.New("incomplete file header")

	// ErrFormatMismatch indicates the magic tag is not SJSBOX or the format
	// version is not recognized.
	ErrFormatMismatch = errors.New("unrecognized magic or format version")

	// ErrEndianMismatch indicates the endianness marker read from the file
	// does not match the expected constant. The file was likely produced on
	// a host with a different byte order; boxfile refuses to reinterpret it.
	ErrEndianMismatch = errors.New("endianness marker mismatch")

	// ErrTruncatedFile indicates fewer payload bytes than the header's
	// declared row count requires.
	ErrTruncatedFile = errors.New("payload shorter than declared row count")

	// ErrOversizedFile indicates trailing bytes beyond the declared row
	// count. The format is sequential and exact; excess is never ignored.
	ErrOversizedFile = errors.New("payload longer than declared row count")

	// ErrReservedNotZero indicates non-zero reserved header words. Only
	// reported when strict reading is requested; reserved words are ignored
	// by default for forward compatibility.
	ErrReservedNotZero = errors.New("reserved header words are not zero")
)
