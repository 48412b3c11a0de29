package boxfile

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRelation() *Relation {
	return &Relation{
		Name:     "R",
		Dim:      2,
		HalfOpen: true,
		Lower:    [][]float64{{0, 0}, {0.25, 0.5}},
		Upper:    [][]float64{{1, 1}, {0.75, 0.75}},
	}
}

func TestWriteReadRelation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.sjsbox")

	rel := sampleRelation()
	require.NoError(t, WriteRelation(path, rel))

	got, info, err := ReadRelation(path)
	require.NoError(t, err)
	require.Equal(t, "R", info.Name)
	require.Equal(t, uint64(2), info.RowCount)
	require.True(t, info.HalfOpen())
	require.False(t, info.HasExplicitIDs())

	require.Equal(t, rel.Lower, got.Lower)
	require.Equal(t, rel.Upper, got.Upper)
	require.Equal(t, []uint32{0, 1}, got.IDs)
}

func TestEncodeDecodeRelation(t *testing.T) {
	rel := sampleRelation()

	var buf bytes.Buffer
	require.NoError(t, EncodeRelation(&buf, rel))

	got, info, err := DecodeRelation(&buf)
	require.NoError(t, err)
	require.Equal(t, "R", info.Name)
	require.Equal(t, rel.Lower, got.Lower)
	require.Equal(t, rel.Upper, got.Upper)
}
