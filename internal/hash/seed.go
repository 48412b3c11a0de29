// Package hash derives deterministic 64-bit values from strings.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// SubSeed derives a per-relation seed from a base seed and a name, so that
// relations generated under one dataset seed draw from independent streams
// while remaining reproducible.
func SubSeed(base uint64, name string) uint64 {
	return base ^ xxhash.Sum64String(name)
}
