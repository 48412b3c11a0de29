// Package endian provides byte order utilities for the boxfile binary codec.
//
// The SJSBOX format is defined as little-endian on disk. This package wraps
// Go's standard encoding/binary byte orders behind a single EndianEngine
// interface and adds a host byte-order probe used to interpret the format's
// endianness marker: a decoder running on a mismatched host reads the marker
// as a byte-swapped constant and can fail cleanly instead of silently
// misinterpreting scalars.
//
// All functions and returned engines are immutable, stateless and safe for
// concurrent use.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines the ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single interface. It is satisfied by
// binary.LittleEndian and binary.BigEndian, so an engine can be compared
// against either or handed to any code expecting the standard interfaces.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness probes the host's native byte order with a fixed
// integer value.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. A little-endian host places the LSB (0x00) first,
	// a big-endian host places the MSB (0x01) first.
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// GetLittleEndianEngine returns the little-endian engine, the on-disk byte
// order of every SJSBOX file.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
