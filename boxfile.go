// Package boxfile implements a binary interchange format for named
// relations of d-dimensional axis-aligned boxes, used to move synthetic
// spatial-join datasets between generators and engines.
//
// A relation file carries a fixed little-endian header (dimension, scalar
// precision, flags, row count), a length-prefixed relation name and a dense
// block of fixed-width records: the d lower coordinates, the d upper
// coordinates and, optionally, a 32-bit row identifier. Files without
// stored identifiers decode with sequential ids synthesized.
//
// # Core Features
//
//   - Exact byte-level file contract: identical inputs produce identical
//     files regardless of chunking
//   - Bounded-memory streaming encode and decode (default 1M rows per
//     chunk)
//   - float32 and float64 coordinate precision
//   - Strict decode validation: wrong magic, byte order, version,
//     precision, truncation and trailing bytes all fail loudly
//   - Debug CSV text mirrors, a deterministic dataset generator and a
//     JSON report sidecar around the core codec
//
// # Basic Usage
//
// Writing a relation:
//
//	import "github.com/sjsbench/boxfile"
//
//	rel := &boxfile.Relation{
//	    Name:     "R",
//	    Dim:      2,
//	    HalfOpen: true,
//	    Lower:    [][]float64{{0, 0}},
//	    Upper:    [][]float64{{1, 1}},
//	}
//	err := boxfile.WriteRelation("r.sjsbox", rel)
//
// Reading it back:
//
//	rel, info, err := boxfile.ReadRelation("r.sjsbox")
//
// This package provides convenient top-level wrappers around the relation
// package. For scalar width, id and chunking control, use the relation
// package directly.
package boxfile

import (
	"io"

	"github.com/sjsbench/boxfile/relation"
)

// Relation is an in-memory named set of boxes. See the relation package.
type Relation = relation.Relation

// FileInfo describes a decoded file's header fields.
type FileInfo = relation.FileInfo

// WriteRelation encodes rel to path with the default settings: float32
// scalars, half-open boxes, no stored ids.
func WriteRelation(path string, rel *Relation) error {
	enc, err := relation.NewEncoder()
	if err != nil {
		return err
	}

	return enc.WriteFile(path, rel)
}

// ReadRelation decodes the relation file at path with the default
// settings, synthesizing sequential ids when the file stores none.
func ReadRelation(path string) (*Relation, *FileInfo, error) {
	dec, err := relation.NewDecoder()
	if err != nil {
		return nil, nil, err
	}

	return dec.ReadFile(path)
}

// EncodeRelation streams rel to w with the default settings.
func EncodeRelation(w io.Writer, rel *Relation) error {
	enc, err := relation.NewEncoder()
	if err != nil {
		return err
	}

	return enc.Encode(w, rel)
}

// DecodeRelation reads one relation from r with the default settings.
func DecodeRelation(r io.Reader) (*Relation, *FileInfo, error) {
	dec, err := relation.NewDecoder()
	if err != nil {
		return nil, nil, err
	}

	return dec.Decode(r)
}
