// Package textio implements the human-readable text mirror of the binary
// relation format: a CSV-like file with a header line
// `id,lo0..lo(d-1),hi0..hi(d-1)` and one line per row carrying a sequential
// id and full-precision decimal coordinates.
//
// The mirror is debug-only. It carries no magic or version, makes no
// byte-identity guarantee across runs, and promises only that the logical
// values match the mirrored relation within the precision of their decimal
// rendering. Output may optionally be block-compressed, in which case the
// configured compression suffix is appended to the file name.
package textio

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sjsbench/boxfile/compress"
	"github.com/sjsbench/boxfile/format"
	"github.com/sjsbench/boxfile/internal/options"
	"github.com/sjsbench/boxfile/internal/pool"
	"github.com/sjsbench/boxfile/relation"
)

// DefaultChunkRows is the number of rows rendered per flush.
const DefaultChunkRows = 200_000

// WriterConfig holds text mirror settings.
type WriterConfig struct {
	sep           byte
	includeHeader bool
	chunkRows     int
	compression   format.CompressionType
}

// WriterOption is a functional option for NewWriter.
type WriterOption = options.Option[*WriterConfig]

// WithSeparator sets the column separator. The strings "," and "\t" are
// accepted, as is the spelled-out "tab".
func WithSeparator(sep string) WriterOption {
	return options.New(func(cfg *WriterConfig) error {
		if sep == "tab" || sep == "\\t" {
			sep = "\t"
		}
		if len(sep) != 1 {
			return fmt.Errorf("separator must be a single character or %q, got %q", "tab", sep)
		}
		cfg.sep = sep[0]

		return nil
	})
}

// WithHeaderLine controls whether the column header line is written.
func WithHeaderLine(include bool) WriterOption {
	return options.NoError(func(cfg *WriterConfig) {
		cfg.includeHeader = include
	})
}

// WithWriteChunkRows overrides the rows-per-flush bound. Values <= 0
// restore the default.
func WithWriteChunkRows(rows int) WriterOption {
	return options.NoError(func(cfg *WriterConfig) {
		if rows <= 0 {
			rows = DefaultChunkRows
		}
		cfg.chunkRows = rows
	})
}

// WithCompression selects optional whole-file compression of the mirror.
func WithCompression(ct format.CompressionType) WriterOption {
	return options.New(func(cfg *WriterConfig) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return err
		}
		cfg.compression = ct

		return nil
	})
}

// Writer renders relations as text mirrors.
type Writer struct {
	cfg *WriterConfig
}

// NewWriter creates a text mirror writer with the given options.
func NewWriter(opts ...WriterOption) (*Writer, error) {
	cfg := &WriterConfig{
		sep:           ',',
		includeHeader: true,
		chunkRows:     DefaultChunkRows,
		compression:   format.CompressionNone,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Writer{cfg: cfg}, nil
}

// WriteFile mirrors rel to a text file at path, creating parent directories
// on demand. With compression enabled, the codec's suffix is appended to
// path and the whole rendered payload is compressed as one block. Returns
// the path actually written.
func (w *Writer) WriteFile(path string, rel *relation.Relation) (string, error) {
	if err := rel.ValidateShape(); err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create parent directory: %w", err)
		}
	}

	if w.cfg.compression != format.CompressionNone {
		return w.writeCompressed(path, rel)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := w.render(bw, rel); err != nil {
		f.Close()
		os.Remove(path)

		return "", err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(path)

		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return path, nil
}

// writeCompressed renders the whole mirror in memory, compresses it as one
// block and writes the result. Acceptable for a debug artifact; the binary
// format is the one with the bounded-memory contract.
func (w *Writer) writeCompressed(path string, rel *relation.Relation) (string, error) {
	codec, err := compress.GetCodec(w.cfg.compression)
	if err != nil {
		return "", err
	}

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	if err := w.render(buf, rel); err != nil {
		return "", err
	}

	compressed, err := codec.Compress(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("compress mirror: %w", err)
	}

	outPath := path + w.cfg.compression.Ext()
	if err := os.WriteFile(outPath, compressed, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}

	return outPath, nil
}

type lineSink interface {
	Write(p []byte) (int, error)
}

// render writes the header line and rows to sink in chunkRows batches.
func (w *Writer) render(sink lineSink, rel *relation.Relation) error {
	d := rel.Dim
	n := rel.RowCount()
	line := make([]byte, 0, 32*(2*d+1))

	if w.cfg.includeHeader {
		line = append(line, "id"...)
		for k := 0; k < d; k++ {
			line = append(line, w.cfg.sep)
			line = append(line, "lo"...)
			line = strconv.AppendInt(line, int64(k), 10)
		}
		for k := 0; k < d; k++ {
			line = append(line, w.cfg.sep)
			line = append(line, "hi"...)
			line = strconv.AppendInt(line, int64(k), 10)
		}
		line = append(line, '\n')
		if _, err := sink.Write(line); err != nil {
			return fmt.Errorf("write header line: %w", err)
		}
	}

	for start := 0; start < n; start += w.cfg.chunkRows {
		end := min(n, start+w.cfg.chunkRows)
		for row := start; row < end; row++ {
			line = line[:0]
			line = strconv.AppendInt(line, int64(row), 10)
			for _, v := range rel.Lower[row] {
				line = append(line, w.cfg.sep)
				line = strconv.AppendFloat(line, v, 'g', -1, 64)
			}
			for _, v := range rel.Upper[row] {
				line = append(line, w.cfg.sep)
				line = strconv.AppendFloat(line, v, 'g', -1, 64)
			}
			line = append(line, '\n')
			if _, err := sink.Write(line); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	return nil
}
