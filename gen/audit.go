package gen

import (
	"fmt"
	"math/rand/v2"

	"github.com/sjsbench/boxfile/relation"
)

// AuditResult holds the realized density estimate from pair sampling.
type AuditResult struct {
	// PHat is the fraction of sampled (r, s) pairs that intersect.
	PHat float64
	// AlphaHat is the implied output density, PHat * nR * nS / (nR + nS).
	AlphaHat float64
	// Pairs is the number of pairs actually sampled.
	Pairs int
	// Seed is the sampling seed, recorded for reproducibility.
	Seed uint64
}

// AuditAlpha estimates the realized output density of the pair (r, s) by
// sampling numPairs uniform box pairs and testing half-open intersection.
// The estimate converges on the exact join density as numPairs grows; it
// exists so that generation quality can be checked without running the
// full join.
func AuditAlpha(r, s *relation.Relation, numPairs int, seed uint64) (AuditResult, error) {
	if err := r.ValidateShape(); err != nil {
		return AuditResult{}, fmt.Errorf("relation %s: %w", r.Name, err)
	}
	if err := s.ValidateShape(); err != nil {
		return AuditResult{}, fmt.Errorf("relation %s: %w", s.Name, err)
	}
	if r.Dim != s.Dim {
		return AuditResult{}, fmt.Errorf("dimension mismatch: %d vs %d", r.Dim, s.Dim)
	}
	if numPairs <= 0 {
		return AuditResult{}, fmt.Errorf("pair count must be > 0, got %d", numPairs)
	}

	nR := r.RowCount()
	nS := s.RowCount()
	if nR == 0 || nS == 0 {
		return AuditResult{Pairs: numPairs, Seed: seed}, nil
	}

	rng := rand.New(rand.NewPCG(seed, seed^0xA0D17A0D17))

	hits := 0
	for t := 0; t < numPairs; t++ {
		i := rng.IntN(nR)
		j := rng.IntN(nS)
		if intersects(r.Lower[i], r.Upper[i], s.Lower[j], s.Upper[j]) {
			hits++
		}
	}

	pHat := float64(hits) / float64(numPairs)

	return AuditResult{
		PHat:     pHat,
		AlphaHat: alphaFromPairProb(pHat, nR, nS),
		Pairs:    numPairs,
		Seed:     seed,
	}, nil
}

// intersects tests half-open overlap on every axis: boxes touching only at
// a boundary do not intersect.
func intersects(aLo, aHi, bLo, bHi []float64) bool {
	for k := range aLo {
		if aLo[k] >= bHi[k] || bLo[k] >= aHi[k] {
			return false
		}
	}

	return true
}
