package section

const (
	// HeaderSize is the fixed byte size of the SJSBOX file header:
	// 8-byte magic, four u32 fields, u64 row count, u64 endianness marker
	// and four reserved u64 words.
	HeaderSize = 8 + 4*4 + 8 + 8 + 8*ReservedWords

	// NameLenSize is the size of the u32 name length field that immediately
	// follows the header.
	NameLenSize = 4

	// IDSize is the size of the optional per-record u32 identifier.
	IDSize = 4

	// ReservedWords is the number of reserved u64 header words.
	ReservedWords = 4

	// FormatVersion is the only format revision this codec reads and writes.
	// Unknown versions are rejected on decode.
	FormatVersion = 1

	// EndianMarker is written verbatim into every file. A reader on a
	// mismatched host sees the byte-swapped value and must fail rather than
	// misinterpret scalars.
	EndianMarker uint64 = 0x0102030405060708
)

// Header flag bits.
const (
	// FlagHalfOpen marks intervals as closed-lower/open-upper. The flag is
	// carried through the codec but never interpreted by it.
	FlagHalfOpen uint32 = 1 << 0

	// FlagHasIDs marks the record layout that appends an explicit u32
	// identifier to each row.
	FlagHasIDs uint32 = 1 << 1
)

// Magic is the 8-byte tag identifying the SJSBOX format family and its
// major revision: "SJSBOX\0\0".
var Magic = [8]byte{'S', 'J', 'S', 'B', 'O', 'X', 0, 0}
