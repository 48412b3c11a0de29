// Package report assembles and writes the JSON sidecar that accompanies a
// generated dataset. The sidecar records the generation parameters, the
// model-expected and sampled quality figures, the output paths and the
// per-phase timings, so a dataset directory is self-describing.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Paths lists the artifacts written for one dataset. Empty entries mean the
// artifact was not produced.
type Paths struct {
	OutR string `json:"out_r"`
	OutS string `json:"out_s"`
	CSVR string `json:"csv_r,omitempty"`
	CSVS string `json:"csv_s,omitempty"`
}

// Timings holds per-phase wall-clock seconds.
type Timings struct {
	Generation float64 `json:"generation"`
	Audit      float64 `json:"audit"`
	BinaryIO   float64 `json:"binary_io"`
	CSVIO      float64 `json:"csv_io"`
}

// FixedParams records the generator knobs that are held constant across a
// parameter sweep.
type FixedParams struct {
	VolumeDist string  `json:"volume_dist"`
	VolumeCV   float64 `json:"volume_cv"`
	ShapeSigma float64 `json:"shape_sigma"`
	TuneTolRel float64 `json:"tune_tol_rel"`
}

// Report is the sidecar document.
type Report struct {
	Generator string `json:"generator"`
	Dataset   string `json:"dataset"`

	Dim         int     `json:"dim"`
	NR          int     `json:"n_r"`
	NS          int     `json:"n_s"`
	AlphaTarget float64 `json:"alpha_target"`
	Seed        uint64  `json:"seed"`

	AlphaExpectedEst        float64 `json:"alpha_expected_est"`
	Coverage                float64 `json:"coverage"`
	PairIntersectionProbEst float64 `json:"pair_intersection_prob_est"`

	AuditNumPairs int     `json:"audit_num_pairs"`
	AuditSeed     uint64  `json:"audit_seed"`
	AlphaHatEst   float64 `json:"alpha_hat_est"`
	PHatEst       float64 `json:"p_hat_est"`
	// EpsilonAlpha is the relative error of the realized density against
	// the target, |alpha_hat - alpha_target| / alpha_target, or 0 for a
	// zero target.
	EpsilonAlpha float64 `json:"epsilon_alpha"`

	FixedParams FixedParams `json:"fixed_params"`
	Paths       Paths       `json:"paths"`
	TimingSec   Timings     `json:"timing_sec"`
}

// GeneratorName identifies the producing tool inside sidecars.
const GeneratorName = "boxgen"

// ComputeEpsilonAlpha fills EpsilonAlpha from the target and sampled
// densities already present in the report.
func (r *Report) ComputeEpsilonAlpha() {
	if r.AlphaTarget == 0 {
		r.EpsilonAlpha = 0
		return
	}
	eps := (r.AlphaHatEst - r.AlphaTarget) / r.AlphaTarget
	if eps < 0 {
		eps = -eps
	}
	r.EpsilonAlpha = eps
}

// Write marshals the report as indented JSON and writes it to path,
// creating parent directories on demand.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// ReadFile loads a sidecar back into memory.
func ReadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &r, nil
}
