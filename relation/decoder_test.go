package relation

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjsbench/boxfile/endian"
	"github.com/sjsbench/boxfile/errs"
	"github.com/sjsbench/boxfile/format"
	"github.com/sjsbench/boxfile/section"
)

func encodeToBytes(t *testing.T, rel *Relation, opts ...EncoderOption) []byte {
	t.Helper()

	enc, err := NewEncoder(opts...)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, enc.Encode(&buf, rel))

	return buf.Bytes()
}

func TestDecoder_RoundTrip(t *testing.T) {
	dims := []int{1, 2, 3, 8}
	counts := []int{0, 1, 1000}
	widths := []format.ScalarWidth{format.Width32, format.Width64}

	for _, dim := range dims {
		for _, n := range counts {
			for _, width := range widths {
				for _, ids := range []bool{false, true} {
					rel := testRelation("roundtrip", dim, n)

					data := encodeToBytes(t, rel,
						WithScalarWidth(width), WithExplicitIDs(ids))

					dec, err := NewDecoder()
					require.NoError(t, err)

					got, info, err := dec.Decode(bytes.NewReader(data))
					require.NoError(t, err)

					require.Equal(t, uint32(dim), info.Dim)
					require.Equal(t, uint64(n), info.RowCount)
					require.Equal(t, width, info.Width)
					require.True(t, info.HalfOpen())
					require.Equal(t, ids, info.HasExplicitIDs())
					require.Equal(t, "roundtrip", info.Name)

					require.Equal(t, dim, got.Dim)
					require.True(t, got.HalfOpen)
					require.Len(t, got.Lower, n)
					require.Len(t, got.Upper, n)
					require.Len(t, got.IDs, n)

					// Test values originate as float32, so both widths
					// round-trip with exact equality.
					for i := 0; i < n; i++ {
						require.Equal(t, rel.Lower[i], got.Lower[i], "row %d lower", i)
						require.Equal(t, rel.Upper[i], got.Upper[i], "row %d upper", i)
						require.Equal(t, uint32(i), got.IDs[i])
					}
				}
			}
		}
	}
}

func TestDecoder_RejectsTruncation(t *testing.T) {
	// The 124-byte concrete scenario with the last 4 bytes removed must fail
	// rather than silently return 2 full rows plus garbage.
	rel := &Relation{
		Dim:      2,
		HalfOpen: true,
		Lower:    [][]float64{{0, 0}, {0.1, 0.2}, {0.5, 0.5}},
		Upper:    [][]float64{{1, 1}, {0.3, 0.4}, {0.6, 0.6}},
	}
	data := encodeToBytes(t, rel, WithScalarWidth(format.Width32))
	require.Len(t, data, 124)

	dec, err := NewDecoder()
	require.NoError(t, err)

	_, _, err = dec.Decode(bytes.NewReader(data[:len(data)-4]))
	require.ErrorIs(t, err, errs.ErrTruncatedFile)
}

func TestDecoder_RejectsOversize(t *testing.T) {
	rel := testRelation("r", 2, 3)
	data := encodeToBytes(t, rel)
	data = append(data, 0xAB)

	dec, err := NewDecoder()
	require.NoError(t, err)

	_, _, err = dec.Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, errs.ErrOversizedFile)
}

func TestDecoder_RejectsBadHeader(t *testing.T) {
	rel := testRelation("r", 2, 3)
	engine := endian.GetLittleEndianEngine()

	t.Run("bad magic", func(t *testing.T) {
		data := encodeToBytes(t, rel)
		data[0] = 'Z'

		dec, err := NewDecoder()
		require.NoError(t, err)
		_, _, err = dec.Decode(bytes.NewReader(data))
		require.ErrorIs(t, err, errs.ErrFormatMismatch)
	})

	t.Run("unknown version", func(t *testing.T) {
		data := encodeToBytes(t, rel)
		engine.PutUint32(data[8:12], 99)

		dec, err := NewDecoder()
		require.NoError(t, err)
		_, _, err = dec.Decode(bytes.NewReader(data))
		require.ErrorIs(t, err, errs.ErrFormatMismatch)
	})

	t.Run("endian mismatch", func(t *testing.T) {
		data := encodeToBytes(t, rel)
		endian.GetBigEndianEngine().PutUint64(data[32:40], section.EndianMarker)

		dec, err := NewDecoder()
		require.NoError(t, err)
		_, _, err = dec.Decode(bytes.NewReader(data))
		require.ErrorIs(t, err, errs.ErrEndianMismatch)
	})

	t.Run("short header", func(t *testing.T) {
		dec, err := NewDecoder()
		require.NoError(t, err)
		_, _, err = dec.Decode(bytes.NewReader([]byte("SJSBOX")))
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})
}

func TestDecoder_SynthesizedIDsDisabled(t *testing.T) {
	rel := testRelation("r", 2, 5)
	data := encodeToBytes(t, rel)

	dec, err := NewDecoder(WithSynthesizedIDs(false))
	require.NoError(t, err)

	got, info, err := dec.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.False(t, info.HasExplicitIDs())
	require.Nil(t, got.IDs)
}

func TestDecoder_StrictReserved(t *testing.T) {
	rel := testRelation("r", 2, 2)
	data := encodeToBytes(t, rel)
	endian.GetLittleEndianEngine().PutUint64(data[40:48], 0xBEEF)

	t.Run("default ignores reserved words", func(t *testing.T) {
		dec, err := NewDecoder()
		require.NoError(t, err)
		_, _, err = dec.Decode(bytes.NewReader(data))
		require.NoError(t, err)
	})

	t.Run("strict rejects reserved words", func(t *testing.T) {
		dec, err := NewDecoder(WithStrictReserved(true))
		require.NoError(t, err)
		_, _, err = dec.Decode(bytes.NewReader(data))
		require.ErrorIs(t, err, errs.ErrReservedNotZero)
	})
}

func TestDecoder_DropEmpty(t *testing.T) {
	rel := &Relation{
		Name:     "with-empties",
		Dim:      2,
		HalfOpen: true,
		Lower:    [][]float64{{0, 0}, {0.5, 0.5}, {0.2, 0.2}},
		Upper:    [][]float64{{1, 1}, {0.5, 0.9}, {0.4, 0.4}},
	}
	data := encodeToBytes(t, rel)

	dec, err := NewDecoder(WithDropEmpty(true))
	require.NoError(t, err)

	got, info, err := dec.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, uint64(3), info.RowCount, "header keeps the on-disk count")
	require.Equal(t, 2, got.RowCount(), "row 1 is empty on axis 0")
	require.Equal(t, []uint32{0, 2}, got.IDs, "synthesized ids keep file order")
}

func TestDecoder_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rel.sjsbox")

	enc, err := NewEncoder(WithScalarWidth(format.Width64))
	require.NoError(t, err)

	rel := testRelation("on-disk", 3, 64)
	require.NoError(t, enc.WriteFile(path, rel))

	dec, err := NewDecoder()
	require.NoError(t, err)

	got, info, err := dec.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "on-disk", info.Name)
	require.Equal(t, rel.Lower, got.Lower)
	require.Equal(t, rel.Upper, got.Upper)

	_, _, err = dec.ReadFile(filepath.Join(dir, "missing.sjsbox"))
	require.Error(t, err)
}

func TestDecoder_ChunkedReadMatchesSingleChunk(t *testing.T) {
	rel := testRelation("chunked-read", 2, 250)
	data := encodeToBytes(t, rel)

	small, err := NewDecoder(WithReadChunkRows(7))
	require.NoError(t, err)
	big, err := NewDecoder()
	require.NoError(t, err)

	gotSmall, _, err := small.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	gotBig, _, err := big.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	require.Equal(t, gotBig, gotSmall)
}
