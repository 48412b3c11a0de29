package relation

import (
	"fmt"

	"github.com/sjsbench/boxfile/errs"
)

// Relation is a named, ordered collection of axis-aligned boxes in dimension
// Dim. Lower and Upper are logical (n, d) coordinate matrices; row order is
// significant and preserved exactly across encode/decode. IDs is nil unless
// the relation carries explicit per-row identifiers.
//
// A Relation is a transient value: it is produced once by a generator or a
// Decoder and consumed once by an Encoder. The codec keeps no state across
// relations.
type Relation struct {
	Name     string
	Dim      int
	HalfOpen bool
	Lower    [][]float64
	Upper    [][]float64
	IDs      []uint32
}

// RowCount returns the number of boxes in the relation.
func (r *Relation) RowCount() int {
	return len(r.Lower)
}

// ValidateShape checks the only structural invariant the format enforces:
// Dim > 0 and Lower/Upper are rectangular matrices of identical shape
// (n, Dim). It does not check lower <= upper componentwise; the codec stores
// whatever geometry it is given.
func (r *Relation) ValidateShape() error {
	if r.Dim <= 0 {
		return fmt.Errorf("%w: dimension %d must be > 0", errs.ErrShapeMismatch, r.Dim)
	}
	if len(r.Lower) != len(r.Upper) {
		return fmt.Errorf("%w: %d lower rows vs %d upper rows",
			errs.ErrShapeMismatch, len(r.Lower), len(r.Upper))
	}

	for i := range r.Lower {
		if len(r.Lower[i]) != r.Dim {
			return fmt.Errorf("%w: lower row %d has %d coordinates, want %d",
				errs.ErrShapeMismatch, i, len(r.Lower[i]), r.Dim)
		}
		if len(r.Upper[i]) != r.Dim {
			return fmt.Errorf("%w: upper row %d has %d coordinates, want %d",
				errs.ErrShapeMismatch, i, len(r.Upper[i]), r.Dim)
		}
	}

	return nil
}

// RemoveEmpty drops rows whose box is empty, i.e. lower >= upper on any
// axis. Explicit ids, when present, are dropped alongside their rows so the
// remaining ids keep referring to the same boxes. Returns the number of rows
// removed.
func (r *Relation) RemoveEmpty() int {
	kept := 0
	for i := range r.Lower {
		if boxEmpty(r.Lower[i], r.Upper[i]) {
			continue
		}

		r.Lower[kept] = r.Lower[i]
		r.Upper[kept] = r.Upper[i]
		if r.IDs != nil {
			r.IDs[kept] = r.IDs[i]
		}
		kept++
	}

	removed := len(r.Lower) - kept
	r.Lower = r.Lower[:kept]
	r.Upper = r.Upper[:kept]
	if r.IDs != nil {
		r.IDs = r.IDs[:kept]
	}

	return removed
}

func boxEmpty(lo, hi []float64) bool {
	for k := range lo {
		if lo[k] >= hi[k] {
			return true
		}
	}

	return false
}
