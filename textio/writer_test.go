package textio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjsbench/boxfile/format"
	"github.com/sjsbench/boxfile/relation"
)

func mirrorRelation() *relation.Relation {
	return &relation.Relation{
		Name:     "R",
		Dim:      2,
		HalfOpen: true,
		Lower:    [][]float64{{0, 0}, {0.1, 0.2}, {0.5, 0.5}},
		Upper:    [][]float64{{1, 1}, {0.3, 0.4}, {0.6, 0.6}},
	}
}

func TestWriter_WriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.csv")

	w, err := NewWriter()
	require.NoError(t, err)

	outPath, err := w.WriteFile(path, mirrorRelation())
	require.NoError(t, err)
	require.Equal(t, path, outPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "id,lo0,lo1,hi0,hi1", lines[0])
	require.Equal(t, "0,0,0,1,1", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "1,"))
	require.True(t, strings.HasPrefix(lines[3], "2,"))
}

func TestWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.csv")

	rel := mirrorRelation()

	w, err := NewWriter()
	require.NoError(t, err)
	_, err = w.WriteFile(path, rel)
	require.NoError(t, err)

	got, err := ReadFile(path, ",")
	require.NoError(t, err)
	require.Equal(t, rel.Dim, got.Dim)
	require.Equal(t, rel.Lower, got.Lower)
	require.Equal(t, rel.Upper, got.Upper)
	require.Equal(t, []uint32{0, 1, 2}, got.IDs)
}

func TestWriter_TabSeparator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.tsv")

	w, err := NewWriter(WithSeparator("tab"))
	require.NoError(t, err)
	_, err = w.WriteFile(path, mirrorRelation())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "id\tlo0\tlo1\thi0\thi1\n")

	got, err := ReadFile(path, "tab")
	require.NoError(t, err)
	require.Equal(t, 3, got.RowCount())
}

func TestWriter_InvalidSeparator(t *testing.T) {
	_, err := NewWriter(WithSeparator("--"))
	require.Error(t, err)
}

func TestWriter_Compressed(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "r.csv")

			rel := mirrorRelation()

			w, err := NewWriter(WithCompression(ct))
			require.NoError(t, err)

			outPath, err := w.WriteFile(path, rel)
			require.NoError(t, err)
			require.Equal(t, path+ct.Ext(), outPath)

			got, err := ReadFile(outPath, ",")
			require.NoError(t, err)
			require.Equal(t, rel.Lower, got.Lower)
			require.Equal(t, rel.Upper, got.Upper)
		})
	}
}

func TestWriter_ChunkedOutputMatches(t *testing.T) {
	rel := &relation.Relation{Dim: 1}
	for i := 0; i < 123; i++ {
		rel.Lower = append(rel.Lower, []float64{float64(i)})
		rel.Upper = append(rel.Upper, []float64{float64(i) + 0.5})
	}

	dir := t.TempDir()

	small, err := NewWriter(WithWriteChunkRows(10))
	require.NoError(t, err)
	big, err := NewWriter()
	require.NoError(t, err)

	pathSmall := filepath.Join(dir, "small.csv")
	pathBig := filepath.Join(dir, "big.csv")
	_, err = small.WriteFile(pathSmall, rel)
	require.NoError(t, err)
	_, err = big.WriteFile(pathBig, rel)
	require.NoError(t, err)

	a, err := os.ReadFile(pathSmall)
	require.NoError(t, err)
	b, err := os.ReadFile(pathBig)
	require.NoError(t, err)
	require.Equal(t, b, a)
}

func TestWriter_ShapeValidation(t *testing.T) {
	rel := &relation.Relation{
		Dim:   2,
		Lower: [][]float64{{0, 0}},
		Upper: [][]float64{{1, 1, 1}},
	}

	w, err := NewWriter()
	require.NoError(t, err)
	_, err = w.WriteFile(filepath.Join(t.TempDir(), "bad.csv"), rel)
	require.Error(t, err)
}
