// Command boxgen generates a synthetic spatial-join dataset: a pair of
// binary relation files with a target output density, plus optional text
// mirrors, a JSON report sidecar and optional upload to S3-compatible
// storage.
//
// Every flag can be preset through an environment variable named after it:
// BOXGEN_ followed by the upper-cased flag name with dashes replaced by
// underscores (e.g. -out-r and BOXGEN_OUT_R). Flags win over environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sjsbench/boxfile/blobstore"
	bsminio "github.com/sjsbench/boxfile/blobstore/minio"
	"github.com/sjsbench/boxfile/export"
	"github.com/sjsbench/boxfile/format"
	"github.com/sjsbench/boxfile/gen"
)

type cliArgs struct {
	nr, ns, dim int
	alpha       float64
	seed        uint64

	volumeDist string
	volumeCV   float64
	shapeSigma float64
	tuneTol    float64

	outR, outS string
	dataset    string
	reportPath string

	scalarBits int
	writeIDs   bool

	writeCSV bool
	csvSep   string
	csvComp  string

	auditPairs int
	auditSeed  uint64

	logLevel string
	logJSON  bool

	uploadEndpoint string
	uploadBucket   string
	uploadPrefix   string
	uploadAccess   string
	uploadSecret   string
	uploadSecure   bool
	uploadRate     int64
}

func parseArgs() *cliArgs {
	var a cliArgs

	flag.IntVar(&a.nr, "nr", envInt("nr", 1_000_000), "row count of relation R")
	flag.IntVar(&a.ns, "ns", envInt("ns", 1_000_000), "row count of relation S")
	flag.IntVar(&a.dim, "d", envInt("d", 2), "dimension of the boxes")
	flag.Float64Var(&a.alpha, "alpha", envFloat("alpha", 1.0), "target output density |R join S| / (|R|+|S|)")
	flag.Uint64Var(&a.seed, "seed", envUint64("seed", 1), "base PRNG seed")

	flag.StringVar(&a.volumeDist, "volume-dist", envString("volume-dist", "normal"), "box volume distribution: fixed or normal")
	flag.Float64Var(&a.volumeCV, "volume-cv", envFloat("volume-cv", 0.25), "volume coefficient of variation for -volume-dist=normal")
	flag.Float64Var(&a.shapeSigma, "shape-sigma", envFloat("shape-sigma", 0.5), "log-normal sigma of per-axis aspect ratios")
	flag.Float64Var(&a.tuneTol, "tune-tol-rel", envFloat("tune-tol-rel", 0.01), "relative tolerance of the alpha tuning loop")

	flag.StringVar(&a.outR, "out-r", envString("out-r", "r.sjsbox"), "binary output path for R")
	flag.StringVar(&a.outS, "out-s", envString("out-s", "s.sjsbox"), "binary output path for S")
	flag.StringVar(&a.dataset, "dataset", envString("dataset", ""), "dataset name recorded in the report (default derived from parameters)")
	flag.StringVar(&a.reportPath, "report", envString("report", ""), "JSON report sidecar path (empty disables)")

	flag.IntVar(&a.scalarBits, "scalar-bits", envInt("scalar-bits", 32), "binary scalar precision: 32 or 64")
	flag.BoolVar(&a.writeIDs, "write-ids", envBool("write-ids", false), "store explicit per-row ids in the binary files")

	flag.BoolVar(&a.writeCSV, "write-csv", envBool("write-csv", false), "also write debug text mirrors")
	flag.StringVar(&a.csvSep, "csv-sep", envString("csv-sep", ","), "text mirror separator: , or tab")
	flag.StringVar(&a.csvComp, "csv-compress", envString("csv-compress", ""), "compress text mirrors: zstd, s2 or lz4 (empty disables)")

	flag.IntVar(&a.auditPairs, "audit-pairs", envInt("audit-pairs", 100_000), "sampled pairs for the density audit (0 disables)")
	flag.Uint64Var(&a.auditSeed, "audit-seed", envUint64("audit-seed", 7), "audit sampling seed")

	flag.StringVar(&a.logLevel, "log-level", envString("log-level", "info"), "log level: debug, info, warn or error")
	flag.BoolVar(&a.logJSON, "log-json", envBool("log-json", false), "emit JSON logs")

	flag.StringVar(&a.uploadEndpoint, "upload-endpoint", envString("upload-endpoint", ""), "S3-compatible endpoint for artifact upload (empty disables)")
	flag.StringVar(&a.uploadBucket, "upload-bucket", envString("upload-bucket", ""), "upload bucket name")
	flag.StringVar(&a.uploadPrefix, "upload-prefix", envString("upload-prefix", ""), "key prefix for uploaded artifacts (default dataset name)")
	flag.StringVar(&a.uploadAccess, "upload-access-key", envString("upload-access-key", ""), "upload access key")
	flag.StringVar(&a.uploadSecret, "upload-secret-key", envString("upload-secret-key", ""), "upload secret key")
	flag.BoolVar(&a.uploadSecure, "upload-secure", envBool("upload-secure", true), "use TLS for uploads")
	flag.Int64Var(&a.uploadRate, "upload-rate", int64(envInt("upload-rate", 0)), "upload throttle in bytes/sec (0 unlimited)")

	flag.Parse()

	return &a
}

func main() {
	args := parseArgs()
	logger := newLogger(args.logLevel, args.logJSON)

	if err := run(logger, args); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, args *cliArgs) error {
	cfg, err := buildConfig(logger, args)
	if err != nil {
		return err
	}

	res, err := export.Run(context.Background(), *cfg)
	if err != nil {
		return err
	}

	logger.Info("export complete",
		"dataset", cfg.Dataset,
		"out_r", res.Paths.OutR,
		"out_s", res.Paths.OutS,
		"alpha_expected", res.Report.AlphaExpectedEst,
		"alpha_hat", res.Report.AlphaHatEst)

	return nil
}

func buildConfig(logger *slog.Logger, args *cliArgs) (*export.Config, error) {
	vd, err := gen.ParseVolumeDist(args.volumeDist)
	if err != nil {
		return nil, err
	}

	var width format.ScalarWidth
	switch args.scalarBits {
	case 32:
		width = format.Width32
	case 64:
		width = format.Width64
	default:
		return nil, fmt.Errorf("scalar-bits must be 32 or 64, got %d", args.scalarBits)
	}

	compression := format.CompressionNone
	switch strings.ToLower(args.csvComp) {
	case "", "none":
	case "zstd":
		compression = format.CompressionZstd
	case "s2":
		compression = format.CompressionS2
	case "lz4":
		compression = format.CompressionLZ4
	default:
		return nil, fmt.Errorf("unknown csv compression %q", args.csvComp)
	}

	dataset := args.dataset
	if dataset == "" {
		dataset = fmt.Sprintf("d%d_a%g_nr%d_ns%d_s%d",
			args.dim, args.alpha, args.nr, args.ns, args.seed)
	}

	cfg := &export.Config{
		Params: gen.Params{
			NR:         args.nr,
			NS:         args.ns,
			Dim:        args.dim,
			AlphaOut:   args.alpha,
			Seed:       args.seed,
			VolumeDist: vd,
			VolumeCV:   args.volumeCV,
			ShapeSigma: args.shapeSigma,
			TuneTolRel: args.tuneTol,
		},
		Dataset:        dataset,
		OutR:           args.outR,
		OutS:           args.outS,
		ReportPath:     args.reportPath,
		Width:          width,
		WriteIDs:       args.writeIDs,
		WriteCSV:       args.writeCSV,
		CSVSep:         args.csvSep,
		CSVCompression: compression,
		AuditPairs:     args.auditPairs,
		AuditSeed:      args.auditSeed,
		Logger:         logger,
	}

	if args.uploadEndpoint != "" {
		if args.uploadBucket == "" {
			return nil, fmt.Errorf("upload-bucket is required with upload-endpoint")
		}

		client, err := minio.New(args.uploadEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(args.uploadAccess, args.uploadSecret, ""),
			Secure: args.uploadSecure,
		})
		if err != nil {
			return nil, fmt.Errorf("upload client: %w", err)
		}

		store := bsminio.NewStore(client, args.uploadBucket, "")
		cfg.Uploader = blobstore.NewUploader(store, args.uploadRate, logger)
		cfg.UploadPrefix = args.uploadPrefix
		if cfg.UploadPrefix == "" {
			cfg.UploadPrefix = dataset
		}
	}

	return cfg, nil
}

func newLogger(level string, json bool) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lv}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func envName(flagName string) string {
	return "BOXGEN_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func envString(name, def string) string {
	if v, ok := os.LookupEnv(envName(name)); ok {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	if v, ok := os.LookupEnv(envName(name)); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envUint64(name string, def uint64) uint64 {
	if v, ok := os.LookupEnv(envName(name)); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloat(name string, def float64) float64 {
	if v, ok := os.LookupEnv(envName(name)); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(name string, def bool) bool {
	if v, ok := os.LookupEnv(envName(name)); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
