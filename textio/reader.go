package textio

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sjsbench/boxfile/compress"
	"github.com/sjsbench/boxfile/format"
	"github.com/sjsbench/boxfile/relation"
)

// ReadFile parses a text mirror back into a Relation. The file must carry
// the header line, which determines the dimension. Compression is detected
// from the file name suffix.
//
// This reader exists for debugging and tests; the binary codec is the
// interchange path and the only one with a round-trip contract.
func ReadFile(path string, sep string) (*relation.Relation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if ct := compressionFromExt(path); ct != format.CompressionNone {
		codec, err := compress.GetCodec(ct)
		if err != nil {
			return nil, err
		}
		if data, err = codec.Decompress(data); err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, err)
		}
	}

	if sep == "tab" || sep == "\\t" {
		sep = "\t"
	}
	if len(sep) != 1 {
		return nil, fmt.Errorf("separator must be a single character, got %q", sep)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("%s: missing header line", path)
	}

	cols := strings.Split(scanner.Text(), sep)
	if len(cols) < 3 || cols[0] != "id" || (len(cols)-1)%2 != 0 {
		return nil, fmt.Errorf("%s: malformed header line %q", path, scanner.Text())
	}
	d := (len(cols) - 1) / 2

	rel := &relation.Relation{Dim: d}
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), sep)
		if len(fields) != 1+2*d {
			return nil, fmt.Errorf("%s: row %d has %d fields, want %d",
				path, rel.RowCount(), len(fields), 1+2*d)
		}

		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d id: %w", path, rel.RowCount(), err)
		}

		lo := make([]float64, d)
		hi := make([]float64, d)
		for k := 0; k < d; k++ {
			if lo[k], err = strconv.ParseFloat(fields[1+k], 64); err != nil {
				return nil, fmt.Errorf("%s: row %d lo%d: %w", path, rel.RowCount(), k, err)
			}
			if hi[k], err = strconv.ParseFloat(fields[1+d+k], 64); err != nil {
				return nil, fmt.Errorf("%s: row %d hi%d: %w", path, rel.RowCount(), k, err)
			}
		}

		rel.Lower = append(rel.Lower, lo)
		rel.Upper = append(rel.Upper, hi)
		rel.IDs = append(rel.IDs, uint32(id))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	return rel, nil
}

func compressionFromExt(path string) format.CompressionType {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return format.CompressionZstd
	case strings.HasSuffix(path, ".s2"):
		return format.CompressionS2
	case strings.HasSuffix(path, ".lz4"):
		return format.CompressionLZ4
	default:
		return format.CompressionNone
	}
}
