package section

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjsbench/boxfile/endian"
	"github.com/sjsbench/boxfile/errs"
	"github.com/sjsbench/boxfile/format"
)

func TestNewFileHeader(t *testing.T) {
	header := NewFileHeader(3, format.Width32, 42, true, false)

	require.Equal(t, uint32(FormatVersion), header.Version)
	require.Equal(t, uint32(3), header.Dim)
	require.Equal(t, uint32(32), header.ScalarBits)
	require.Equal(t, uint64(42), header.RowCount)
	require.True(t, header.HalfOpen())
	require.False(t, header.HasExplicitIDs())
	require.True(t, header.ReservedZero())
}

func TestFileHeader_RecordSize(t *testing.T) {
	tests := []struct {
		name   string
		dim    uint32
		width  format.ScalarWidth
		hasIDs bool
		want   int
	}{
		{"d2 float32 no ids", 2, format.Width32, false, 16},
		{"d2 float32 ids", 2, format.Width32, true, 20},
		{"d3 float64 no ids", 3, format.Width64, false, 48},
		{"d8 float64 ids", 8, format.Width64, true, 132},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewFileHeader(tt.dim, tt.width, 0, true, tt.hasIDs)
			require.Equal(t, tt.want, h.RecordSize())
		})
	}
}

func TestFileHeader_Bytes(t *testing.T) {
	header := NewFileHeader(2, format.Width64, 1000, true, true)
	data := header.Bytes()

	require.Len(t, data, HeaderSize)
	require.Equal(t, Magic[:], data[0:8])

	engine := endian.GetLittleEndianEngine()
	require.Equal(t, uint32(1), engine.Uint32(data[8:12]))
	require.Equal(t, uint32(2), engine.Uint32(data[12:16]))
	require.Equal(t, uint32(64), engine.Uint32(data[16:20]))
	require.Equal(t, FlagHalfOpen|FlagHasIDs, engine.Uint32(data[20:24]))
	require.Equal(t, uint64(1000), engine.Uint64(data[24:32]))
	require.Equal(t, EndianMarker, engine.Uint64(data[32:40]))
	for i := 0; i < ReservedWords; i++ {
		require.Equal(t, uint64(0), engine.Uint64(data[40+8*i:48+8*i]))
	}
}

func TestFileHeader_Parse(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		original := NewFileHeader(8, format.Width32, 12345, false, true)
		data := original.Bytes()

		parsed := &FileHeader{}
		require.NoError(t, parsed.Parse(data))
		require.Equal(t, *original, *parsed)
	})

	t.Run("too short", func(t *testing.T) {
		h := &FileHeader{}
		err := h.Parse(make([]byte, HeaderSize-1))
		require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := NewFileHeader(2, format.Width32, 0, true, false).Bytes()
		data[0] = 'X'

		h := &FileHeader{}
		require.ErrorIs(t, h.Parse(data), errs.ErrFormatMismatch)
	})

	t.Run("unknown version", func(t *testing.T) {
		data := NewFileHeader(2, format.Width32, 0, true, false).Bytes()
		endian.GetLittleEndianEngine().PutUint32(data[8:12], 2)

		h := &FileHeader{}
		require.ErrorIs(t, h.Parse(data), errs.ErrFormatMismatch)
	})

	t.Run("endian mismatch", func(t *testing.T) {
		data := NewFileHeader(2, format.Width32, 0, true, false).Bytes()
		// Byte-swap the marker as a big-endian writer would have.
		endian.GetBigEndianEngine().PutUint64(data[32:40], EndianMarker)

		h := &FileHeader{}
		require.ErrorIs(t, h.Parse(data), errs.ErrEndianMismatch)
	})

	t.Run("bad scalar bits", func(t *testing.T) {
		data := NewFileHeader(2, format.Width32, 0, true, false).Bytes()
		endian.GetLittleEndianEngine().PutUint32(data[16:20], 16)

		h := &FileHeader{}
		require.ErrorIs(t, h.Parse(data), errs.ErrUnsupportedPrecision)
	})

	t.Run("zero dim", func(t *testing.T) {
		data := NewFileHeader(2, format.Width32, 0, true, false).Bytes()
		endian.GetLittleEndianEngine().PutUint32(data[12:16], 0)

		h := &FileHeader{}
		require.ErrorIs(t, h.Parse(data), errs.ErrFormatMismatch)
	})

	t.Run("non-zero reserved words parse fine", func(t *testing.T) {
		data := NewFileHeader(2, format.Width32, 0, true, false).Bytes()
		endian.GetLittleEndianEngine().PutUint64(data[40:48], 0xDEAD)

		h := &FileHeader{}
		require.NoError(t, h.Parse(data))
		require.False(t, h.ReservedZero())
	})
}

func TestParseFileHeader(t *testing.T) {
	original := NewFileHeader(1, format.Width64, 7, true, false)
	parsed, err := ParseFileHeader(original.Bytes())
	require.NoError(t, err)
	require.Equal(t, *original, parsed)

	_, err = ParseFileHeader(nil)
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
}
