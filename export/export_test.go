package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjsbench/boxfile/blobstore"
	"github.com/sjsbench/boxfile/gen"
	"github.com/sjsbench/boxfile/relation"
	"github.com/sjsbench/boxfile/report"
	"github.com/sjsbench/boxfile/textio"
)

func testConfig(dir string) Config {
	p := gen.DefaultParams()
	p.NR = 200
	p.NS = 150
	p.Dim = 2
	p.AlphaOut = 1.0
	p.Seed = 11

	return Config{
		Params:     p,
		Dataset:    "d2_a1_test",
		OutR:       filepath.Join(dir, "r.sjsbox"),
		OutS:       filepath.Join(dir, "s.sjsbox"),
		ReportPath: filepath.Join(dir, "report.json"),
		AuditPairs: 5000,
		AuditSeed:  3,
	}
}

func TestRun_Basic(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 200, res.R.RowCount())
	require.Equal(t, 150, res.S.RowCount())

	dec, err := relation.NewDecoder()
	require.NoError(t, err)

	gotR, infoR, err := dec.ReadFile(cfg.OutR)
	require.NoError(t, err)
	require.Equal(t, "R", infoR.Name)
	require.Equal(t, res.R.Lower, gotR.Lower)
	require.Equal(t, res.R.Upper, gotR.Upper)

	gotS, infoS, err := dec.ReadFile(cfg.OutS)
	require.NoError(t, err)
	require.Equal(t, "S", infoS.Name)
	require.Equal(t, uint64(150), infoS.RowCount)
	require.Equal(t, res.S.Lower, gotS.Lower)

	rep, err := report.ReadFile(cfg.ReportPath)
	require.NoError(t, err)
	require.Equal(t, report.GeneratorName, rep.Generator)
	require.Equal(t, "d2_a1_test", rep.Dataset)
	require.Equal(t, 200, rep.NR)
	require.Equal(t, 5000, rep.AuditNumPairs)
	require.Greater(t, rep.TimingSec.Generation, 0.0)
	require.Greater(t, rep.TimingSec.BinaryIO, 0.0)
	require.Equal(t, cfg.OutR, rep.Paths.OutR)
	require.Empty(t, rep.Paths.CSVR)
}

func TestRun_WithMirrors(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.WriteCSV = true

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "r.csv"), res.Paths.CSVR)
	require.Equal(t, filepath.Join(dir, "s.csv"), res.Paths.CSVS)

	mirror, err := textio.ReadFile(res.Paths.CSVR, ",")
	require.NoError(t, err)
	require.Equal(t, res.R.RowCount(), mirror.RowCount())
	require.Equal(t, res.R.Lower, mirror.Lower)
}

func TestRun_SkipReportAndAudit(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.ReportPath = ""
	cfg.AuditPairs = 0

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 0, res.Report.AuditNumPairs)
	require.Equal(t, 0.0, res.Report.AlphaHatEst)

	_, err = os.Stat(filepath.Join(dir, "report.json"))
	require.True(t, os.IsNotExist(err))
}

func TestRun_Upload(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.WriteCSV = true

	store, err := blobstore.NewLocalStore(filepath.Join(dir, "remote"))
	require.NoError(t, err)
	cfg.Uploader = blobstore.NewUploader(store, 0, nil)
	cfg.UploadPrefix = "d2_a1_test"

	_, err = Run(context.Background(), cfg)
	require.NoError(t, err)

	names, err := store.List(context.Background(), "d2_a1_test/")
	require.NoError(t, err)
	require.Equal(t, []string{
		"d2_a1_test/r.csv",
		"d2_a1_test/r.sjsbox",
		"d2_a1_test/report.json",
		"d2_a1_test/s.csv",
		"d2_a1_test/s.sjsbox",
	}, names)
}

func TestRun_MissingOutputPaths(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.OutR = ""

	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
}

func TestMirrorPath(t *testing.T) {
	require.Equal(t, "out/r.csv", mirrorPath("out/r.sjsbox"))
	require.Equal(t, "r.csv", mirrorPath("r.bin"))
	require.Equal(t, "out.d/r.csv", mirrorPath("out.d/r"))
	require.Equal(t, "r.csv", mirrorPath("r"))
}
