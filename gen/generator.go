// Package gen produces synthetic axis-aligned hyper-rectangle datasets with
// a controllable output density for spatial-join experiments.
//
// A dataset is a pair of relations R and S drawn over the unit universe
// [0,1)^d. Box volumes follow a fixed or normal distribution, per-axis
// aspect ratios follow a log-normal shape distribution, and a global scale
// factor is tuned so that the expected output density
//
//	alpha = E[|R join S|] / (|R| + |S|)
//
// matches the requested target within a relative tolerance. Generation is
// deterministic for a given parameter set: each relation draws from an
// independent stream sub-seeded from the base seed and the relation name.
//
// Coordinates are narrowed to float32 before being returned, matching the
// precision the binary exporter writes by default, so encoded files
// round-trip bit-exactly.
package gen

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sjsbench/boxfile/internal/hash"
	"github.com/sjsbench/boxfile/relation"
)

// VolumeDist selects the per-box volume distribution.
type VolumeDist uint8

const (
	// VolumeFixed gives every box the same volume.
	VolumeFixed VolumeDist = iota
	// VolumeNormal draws volume factors from a normal distribution with the
	// configured coefficient of variation, clamped away from zero.
	VolumeNormal
)

func (v VolumeDist) String() string {
	switch v {
	case VolumeFixed:
		return "fixed"
	case VolumeNormal:
		return "normal"
	default:
		return "Unknown"
	}
}

// ParseVolumeDist parses "fixed" or "normal".
func ParseVolumeDist(s string) (VolumeDist, error) {
	switch s {
	case "fixed":
		return VolumeFixed, nil
	case "normal":
		return VolumeNormal, nil
	default:
		return 0, fmt.Errorf("unknown volume distribution %q", s)
	}
}

// Params controls one dataset generation.
type Params struct {
	NR       int     // |R|, must be > 0
	NS       int     // |S|, must be > 0
	Dim      int     // dimension d, must be > 0
	AlphaOut float64 // target output density, must be >= 0
	Seed     uint64  // base PRNG seed

	VolumeDist VolumeDist
	VolumeCV   float64 // coefficient of variation for VolumeNormal
	ShapeSigma float64 // log-normal sigma of per-axis aspect ratios
	TuneTolRel float64 // relative tolerance of the alpha tuning loop
}

// DefaultParams returns the fixed parameterization used by the sweep
// presets: normal volumes with CV 0.25, shape sigma 0.5, 1% tuning
// tolerance.
func DefaultParams() Params {
	return Params{
		Seed:       1,
		VolumeDist: VolumeNormal,
		VolumeCV:   0.25,
		ShapeSigma: 0.5,
		TuneTolRel: 0.01,
	}
}

// Info carries the generation quality audit figures. They describe the
// model expectation, not the realized dataset; use pair sampling for a
// realized estimate.
type Info struct {
	// AlphaExpectedEst is the expected output density under the tuned scale.
	AlphaExpectedEst float64
	// Coverage estimates the fraction of the universe covered by at least
	// one box of either relation.
	Coverage float64
	// PairIntersectionProbEst is the modeled probability that one uniformly
	// chosen (r, s) pair intersects.
	PairIntersectionProbEst float64
	// Scale is the tuned global extent scale factor.
	Scale float64
}

// tuneSampleBoxes bounds the number of boxes per side used by the tuning
// estimate, and tunePairs the number of (r, s) extent pairs averaged.
const (
	tuneSampleBoxes = 2048
	tunePairs       = 20000
	tuneMaxIter     = 100
)

func (p Params) validate() error {
	if p.NR <= 0 || p.NS <= 0 {
		return fmt.Errorf("relation sizes must be > 0, got nR=%d nS=%d", p.NR, p.NS)
	}
	if p.Dim <= 0 {
		return fmt.Errorf("dimension must be > 0, got %d", p.Dim)
	}
	if p.AlphaOut < 0 || math.IsNaN(p.AlphaOut) {
		return fmt.Errorf("alpha target must be >= 0, got %v", p.AlphaOut)
	}
	if p.TuneTolRel <= 0 {
		return fmt.Errorf("tuning tolerance must be > 0, got %v", p.TuneTolRel)
	}

	return nil
}

// MakeRelationPair generates relations R and S under params.
func MakeRelationPair(params Params) (r, s *relation.Relation, info Info, err error) {
	if err := params.validate(); err != nil {
		return nil, nil, Info{}, err
	}

	rngR := newRNG(params.Seed, "R")
	rngS := newRNG(params.Seed, "S")

	// Per-box, per-axis extent multipliers with the scale factor divided
	// out: extents[i][k] = scale * mult[i][k].
	multR := extentMultipliers(rngR, params, params.NR)
	multS := extentMultipliers(rngS, params, params.NS)

	scale, pEst := tuneScale(params, multR, multS)

	r = materialize("R", rngR, multR, scale, params.Dim)
	s = materialize("S", rngS, multS, scale, params.Dim)

	info = Info{
		PairIntersectionProbEst: pEst,
		AlphaExpectedEst:        alphaFromPairProb(pEst, params.NR, params.NS),
		Coverage:                coverageEstimate(multR, multS, scale, params.Dim),
		Scale:                   scale,
	}

	return r, s, info, nil
}

func newRNG(seed uint64, name string) *rand.Rand {
	sub := hash.SubSeed(seed, name)
	return rand.New(rand.NewPCG(sub, sub^0x9E3779B97F4A7C15))
}

// extentMultipliers draws the shape of every box: per-axis multipliers
// whose product equals the box's volume factor. The global scale is applied
// later, once tuned.
func extentMultipliers(rng *rand.Rand, params Params, n int) [][]float64 {
	d := params.Dim
	mult := make([][]float64, n)

	for i := 0; i < n; i++ {
		row := make([]float64, d)

		// Log-normal aspect ratios, normalized to product 1 so volume is
		// controlled independently of shape.
		logSum := 0.0
		for k := 0; k < d; k++ {
			row[k] = params.ShapeSigma * rng.NormFloat64()
			logSum += row[k]
		}
		logMean := logSum / float64(d)
		for k := 0; k < d; k++ {
			row[k] = math.Exp(row[k] - logMean)
		}

		if params.VolumeDist == VolumeNormal {
			v := 1.0 + params.VolumeCV*rng.NormFloat64()
			if v < 0.05 {
				v = 0.05
			}
			factor := math.Pow(v, 1.0/float64(d))
			for k := 0; k < d; k++ {
				row[k] *= factor
			}
		}

		mult[i] = row
	}

	return mult
}

// tuneScale bisects the global extent scale until the expected alpha is
// within TuneTolRel of the target. A zero target needs no intersections and
// gets a vanishing scale directly.
func tuneScale(params Params, multR, multS [][]float64) (scale, pEst float64) {
	target := params.AlphaOut
	if target == 0 {
		scale = 1e-9
		return scale, pairProbAtScale(scale, params, multR, multS)
	}

	sampleR := multR[:min(len(multR), tuneSampleBoxes)]
	sampleS := multS[:min(len(multS), tuneSampleBoxes)]

	alphaAt := func(s float64) float64 {
		return alphaFromPairProb(pairProbSampled(s, params, sampleR, sampleS), params.NR, params.NS)
	}

	// Bracket the target. At scale 1 every extent saturates the universe
	// and alpha is maximal; if even that undershoots, return the cap.
	lo, hi := 0.0, 1.0
	if alphaAt(hi) < target {
		return hi, pairProbSampled(hi, params, sampleR, sampleS)
	}

	mid := 0.5
	for iter := 0; iter < tuneMaxIter; iter++ {
		mid = 0.5 * (lo + hi)
		got := alphaAt(mid)
		if math.Abs(got-target) <= params.TuneTolRel*target {
			break
		}
		if got < target {
			lo = mid
		} else {
			hi = mid
		}
	}

	return mid, pairProbSampled(mid, params, sampleR, sampleS)
}

func pairProbAtScale(scale float64, params Params, multR, multS [][]float64) float64 {
	sampleR := multR[:min(len(multR), tuneSampleBoxes)]
	sampleS := multS[:min(len(multS), tuneSampleBoxes)]

	return pairProbSampled(scale, params, sampleR, sampleS)
}

// pairProbSampled estimates the probability that a uniformly chosen pair of
// boxes intersects, averaging the per-axis overlap model min(1, a+b) over a
// deterministic grid of sampled extent pairs.
func pairProbSampled(scale float64, params Params, sampleR, sampleS [][]float64) float64 {
	nR := len(sampleR)
	nS := len(sampleS)
	pairs := min(tunePairs, nR*nS)

	// Deterministic pair stream, independent of the tuning iteration.
	rng := rand.New(rand.NewPCG(0x5EED5EED, uint64(pairs)))

	sum := 0.0
	for t := 0; t < pairs; t++ {
		a := sampleR[rng.IntN(nR)]
		b := sampleS[rng.IntN(nS)]

		p := 1.0
		for k := 0; k < params.Dim; k++ {
			overlap := scale * (a[k] + b[k])
			if overlap > 1 {
				overlap = 1
			}
			p *= overlap
		}
		sum += p
	}

	return sum / float64(pairs)
}

func alphaFromPairProb(p float64, nR, nS int) float64 {
	return p * float64(nR) * float64(nS) / float64(nR+nS)
}

// coverageEstimate approximates the probability that a uniform point lies
// inside at least one box, from the mean box volume of both relations.
func coverageEstimate(multR, multS [][]float64, scale float64, d int) float64 {
	total := 0.0
	count := 0
	for _, rows := range [][][]float64{multR, multS} {
		for _, row := range rows {
			vol := 1.0
			for k := 0; k < d; k++ {
				e := scale * row[k]
				if e > 1 {
					e = 1
				}
				vol *= e
			}
			total += vol
			count++
		}
	}

	meanVol := total / float64(count)

	return 1.0 - math.Exp(-meanVol*float64(count))
}

// materialize places boxes with the tuned extents at uniform positions
// inside the unit universe and narrows all coordinates to float32.
func materialize(name string, rng *rand.Rand, mult [][]float64, scale float64, d int) *relation.Relation {
	n := len(mult)
	rel := &relation.Relation{
		Name:     name,
		Dim:      d,
		HalfOpen: true,
		Lower:    make([][]float64, n),
		Upper:    make([][]float64, n),
	}

	for i := 0; i < n; i++ {
		lo := make([]float64, d)
		hi := make([]float64, d)
		for k := 0; k < d; k++ {
			extent := scale * mult[i][k]
			if extent > 1 {
				extent = 1
			}
			pos := rng.Float64() * (1 - extent)
			lo[k] = float64(float32(pos))
			hi[k] = float64(float32(pos + extent))
		}
		rel.Lower[i] = lo
		rel.Upper[i] = hi
	}

	return rel
}
