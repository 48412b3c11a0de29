// Package relation implements the SJSBOX v1 relation codec: a compact
// binary interchange format for named collections of d-dimensional
// axis-aligned boxes, written once and read sequentially in bulk.
//
// A file is a fixed 72-byte header, a length-prefixed UTF-8 relation name,
// and n fixed-width row records. Two record layouts exist, selected by one
// header flag bit: the default layout interleaves each row's d lower and d
// upper coordinates; the id-bearing layout appends a u32 identifier per row.
// Scalars are IEEE 754 binary32 or binary64, little-endian.
//
// The Encoder writes rows in bounded-size batches purely to cap peak
// memory; the resulting byte stream is identical for every batch size. The
// Decoder validates the header (magic, version, endianness marker), then
// requires the payload to match the declared row count exactly; truncated
// or oversized files are rejected, never partially read. When a file
// carries no ids, the decoder can synthesize sequential ids 0..n-1 in file
// order.
//
// The codec checks only the structural shape of its input. It does not
// enforce lower <= upper, does not compress, and does not support append or
// random access.
package relation
