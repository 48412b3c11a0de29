package compress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sjsbench/boxfile/format"
)

func TestGetCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		codec, err := GetCodec(ct)
		require.NoError(t, err, ct.String())
		require.NotNil(t, codec)
	}

	_, err := GetCodec(format.CompressionType(0xFF))
	require.Error(t, err)
}

func TestCodecs_RoundTrip(t *testing.T) {
	// CSV-like payload, the only kind these codecs see in practice.
	payload := []byte("id,lo0,lo1,hi0,hi1\n" +
		strings.Repeat("17,0.125,0.25,0.375,0.5\n", 2000))

	tests := []struct {
		name  string
		ct    format.CompressionType
		saves bool
	}{
		{"none", format.CompressionNone, false},
		{"zstd", format.CompressionZstd, true},
		{"s2", format.CompressionS2, true},
		{"lz4", format.CompressionLZ4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := GetCodec(tt.ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			if tt.saves {
				require.Less(t, len(compressed), len(payload))
			}

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.True(t, bytes.Equal(payload, restored))
		})
	}
}

func TestCodecs_EmptyInput(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, restored)
		})
	}
}
