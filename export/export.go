// Package export runs one dataset export end to end: generate the R and S
// relations, encode both binary files concurrently, optionally mirror them
// as text, audit the realized output density and write the JSON report
// sidecar. Per-phase wall-clock timings are captured into the report.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sjsbench/boxfile/blobstore"
	"github.com/sjsbench/boxfile/format"
	"github.com/sjsbench/boxfile/gen"
	"github.com/sjsbench/boxfile/relation"
	"github.com/sjsbench/boxfile/report"
	"github.com/sjsbench/boxfile/textio"
)

// Config describes one export run.
type Config struct {
	// Params drives generation of the relation pair.
	Params gen.Params
	// Dataset names the experiment in the report sidecar.
	Dataset string

	// OutR and OutS are the binary output paths. Both are required.
	OutR string
	OutS string
	// ReportPath receives the JSON sidecar; empty skips it.
	ReportPath string

	// Width selects the binary scalar precision. Zero means float32.
	Width format.ScalarWidth
	// WriteIDs stores explicit per-row identifiers in the binary files.
	WriteIDs bool

	// WriteCSV enables the debug text mirrors next to the binary outputs.
	WriteCSV bool
	// CSVSep is the mirror separator; empty means comma.
	CSVSep string
	// CSVCompression optionally compresses the mirrors.
	CSVCompression format.CompressionType

	// AuditPairs is the number of sampled pairs for the density audit;
	// zero skips the audit.
	AuditPairs int
	// AuditSeed seeds the audit sampling.
	AuditSeed uint64

	// Uploader, when set, publishes all produced artifacts under
	// UploadPrefix after the report is written.
	Uploader     *blobstore.Uploader
	UploadPrefix string

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Result reports what an export produced.
type Result struct {
	R, S   *relation.Relation
	Report *report.Report
	// Paths lists the artifacts actually written.
	Paths report.Paths
}

func (c *Config) validate() error {
	if c.OutR == "" || c.OutS == "" {
		return fmt.Errorf("both binary output paths are required")
	}
	if c.Width == 0 {
		c.Width = format.Width32
	}
	if c.CSVSep == "" {
		c.CSVSep = ","
	}
	if c.CSVCompression == 0 {
		c.CSVCompression = format.CompressionNone
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}

	return nil
}

// Run executes the export. The context bounds the gaps between relation
// writes and the upload phase; a single relation write is not cancelable.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger

	log.Info("generating relation pair",
		"dataset", cfg.Dataset,
		"n_r", cfg.Params.NR, "n_s", cfg.Params.NS,
		"dim", cfg.Params.Dim, "alpha", cfg.Params.AlphaOut,
		"seed", cfg.Params.Seed)

	genStart := time.Now()
	r, s, info, err := gen.MakeRelationPair(cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	genSec := time.Since(genStart).Seconds()

	log.Info("generated relation pair",
		"alpha_expected", info.AlphaExpectedEst,
		"coverage", info.Coverage,
		"seconds", genSec)

	rep := &report.Report{
		Generator:               report.GeneratorName,
		Dataset:                 cfg.Dataset,
		Dim:                     cfg.Params.Dim,
		NR:                      cfg.Params.NR,
		NS:                      cfg.Params.NS,
		AlphaTarget:             cfg.Params.AlphaOut,
		Seed:                    cfg.Params.Seed,
		AlphaExpectedEst:        info.AlphaExpectedEst,
		Coverage:                info.Coverage,
		PairIntersectionProbEst: info.PairIntersectionProbEst,
		FixedParams: report.FixedParams{
			VolumeDist: cfg.Params.VolumeDist.String(),
			VolumeCV:   cfg.Params.VolumeCV,
			ShapeSigma: cfg.Params.ShapeSigma,
			TuneTolRel: cfg.Params.TuneTolRel,
		},
	}
	rep.TimingSec.Generation = genSec

	if cfg.AuditPairs > 0 {
		auditStart := time.Now()
		audit, err := gen.AuditAlpha(r, s, cfg.AuditPairs, cfg.AuditSeed)
		if err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		rep.TimingSec.Audit = time.Since(auditStart).Seconds()
		rep.AuditNumPairs = audit.Pairs
		rep.AuditSeed = audit.Seed
		rep.AlphaHatEst = audit.AlphaHat
		rep.PHatEst = audit.PHat
		rep.ComputeEpsilonAlpha()

		log.Info("audited output density",
			"alpha_hat", audit.AlphaHat, "p_hat", audit.PHat,
			"pairs", audit.Pairs, "epsilon_alpha", rep.EpsilonAlpha)
	}

	paths := report.Paths{OutR: cfg.OutR, OutS: cfg.OutS}

	binStart := time.Now()
	if err := writeBinaryPair(ctx, cfg, r, s); err != nil {
		return nil, err
	}
	rep.TimingSec.BinaryIO = time.Since(binStart).Seconds()

	log.Info("wrote binary relations",
		"out_r", cfg.OutR, "out_s", cfg.OutS,
		"seconds", rep.TimingSec.BinaryIO)

	if cfg.WriteCSV {
		csvStart := time.Now()
		if paths.CSVR, paths.CSVS, err = writeMirrors(cfg, r, s); err != nil {
			return nil, err
		}
		rep.TimingSec.CSVIO = time.Since(csvStart).Seconds()

		log.Info("wrote text mirrors", "csv_r", paths.CSVR, "csv_s", paths.CSVS)
	}

	rep.Paths = paths

	if cfg.ReportPath != "" {
		if err := rep.Write(cfg.ReportPath); err != nil {
			return nil, fmt.Errorf("report: %w", err)
		}
		log.Info("wrote report", "path", cfg.ReportPath)
	}

	if cfg.Uploader != nil {
		artifacts := []string{cfg.OutR, cfg.OutS, paths.CSVR, paths.CSVS}
		if cfg.ReportPath != "" {
			artifacts = append(artifacts, cfg.ReportPath)
		}
		if err := cfg.Uploader.UploadAll(ctx, cfg.UploadPrefix, artifacts...); err != nil {
			return nil, fmt.Errorf("upload: %w", err)
		}
	}

	return &Result{R: r, S: s, Report: rep, Paths: paths}, nil
}

// writeBinaryPair encodes R and S concurrently. The files are independent,
// so the pair parallelizes without coordination.
func writeBinaryPair(ctx context.Context, cfg Config, r, s *relation.Relation) error {
	enc, err := relation.NewEncoder(
		relation.WithScalarWidth(cfg.Width),
		relation.WithHalfOpen(true),
		relation.WithExplicitIDs(cfg.WriteIDs),
	)
	if err != nil {
		return fmt.Errorf("encoder: %w", err)
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := enc.WriteFile(cfg.OutR, r); err != nil {
			return fmt.Errorf("write %s: %w", cfg.OutR, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := enc.WriteFile(cfg.OutS, s); err != nil {
			return fmt.Errorf("write %s: %w", cfg.OutS, err)
		}
		return nil
	})

	return g.Wait()
}

func writeMirrors(cfg Config, r, s *relation.Relation) (csvR, csvS string, err error) {
	w, err := textio.NewWriter(
		textio.WithSeparator(cfg.CSVSep),
		textio.WithCompression(cfg.CSVCompression),
	)
	if err != nil {
		return "", "", fmt.Errorf("mirror writer: %w", err)
	}

	if csvR, err = w.WriteFile(mirrorPath(cfg.OutR), r); err != nil {
		return "", "", fmt.Errorf("mirror R: %w", err)
	}
	if csvS, err = w.WriteFile(mirrorPath(cfg.OutS), s); err != nil {
		return "", "", fmt.Errorf("mirror S: %w", err)
	}

	return csvR, csvS, nil
}

// mirrorPath derives the text mirror name from a binary output path by
// swapping the extension for .csv.
func mirrorPath(binPath string) string {
	for i := len(binPath) - 1; i >= 0; i-- {
		switch binPath[i] {
		case '.':
			return binPath[:i] + ".csv"
		case '/', '\\':
			return binPath + ".csv"
		}
	}

	return binPath + ".csv"
}
