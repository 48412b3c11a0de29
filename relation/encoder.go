package relation

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/sjsbench/boxfile/endian"
	"github.com/sjsbench/boxfile/errs"
	"github.com/sjsbench/boxfile/format"
	"github.com/sjsbench/boxfile/internal/options"
	"github.com/sjsbench/boxfile/internal/pool"
	"github.com/sjsbench/boxfile/section"
)

// Encoder serializes relations into the SJSBOX v1 binary format.
//
// The encoder is synchronous and keeps no state across relations, so one
// Encoder may serialize any number of relations sequentially, and separate
// relations may be encoded in parallel with one Encoder each (or one shared
// Encoder, since Encode and WriteFile touch only their arguments).
//
// Rows are flushed in bounded batches; peak memory is O(chunkRows * dim)
// scalars regardless of the relation's row count.
type Encoder struct {
	cfg    *EncoderConfig
	engine endian.EndianEngine
}

// NewEncoder creates an Encoder with the given options.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := NewEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Encoder{
		cfg:    cfg,
		engine: endian.GetLittleEndianEngine(),
	}, nil
}

// validate runs all structural checks, in order, before any byte is
// produced: dimension and matrix shape, scalar width, name length, and
// explicit id count when an id slice is supplied.
func (e *Encoder) validate(rel *Relation) error {
	if err := rel.ValidateShape(); err != nil {
		return err
	}
	if !e.cfg.width.Valid() {
		return fmt.Errorf("%w: got %d", errs.ErrUnsupportedPrecision, uint32(e.cfg.width))
	}
	if uint64(len(rel.Name)) > uint64(math.MaxUint32) {
		return fmt.Errorf("%w: %d bytes", errs.ErrNameTooLarge, len(rel.Name))
	}
	if e.cfg.writeIDs && rel.IDs != nil && len(rel.IDs) != rel.RowCount() {
		return fmt.Errorf("%w: %d ids for %d rows",
			errs.ErrIDCountMismatch, len(rel.IDs), rel.RowCount())
	}

	return nil
}

// Encode validates rel and streams it to w: 72-byte header, length-prefixed
// name, then RowCount fixed-width records in caller-supplied order.
func (e *Encoder) Encode(w io.Writer, rel *Relation) error {
	if err := e.validate(rel); err != nil {
		return err
	}

	n := rel.RowCount()
	header := section.NewFileHeader(uint32(rel.Dim), e.cfg.width, uint64(n), e.cfg.halfOpen, e.cfg.writeIDs)

	if _, err := w.Write(header.Bytes()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := e.writeName(w, rel.Name); err != nil {
		return err
	}

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	recordSize := header.RecordSize()
	for start := 0; start < n; start += e.cfg.chunkRows {
		end := min(n, start+e.cfg.chunkRows)

		buf.Reset()
		buf.Grow((end - start) * recordSize)

		if e.cfg.writeIDs {
			for row := start; row < end; row++ {
				e.appendCoords(buf, rel.Lower[row], rel.Upper[row])
				buf.B = e.engine.AppendUint32(buf.B, e.rowID(rel, row))
			}
		} else {
			for row := start; row < end; row++ {
				e.appendCoords(buf, rel.Lower[row], rel.Upper[row])
			}
		}

		if _, err := w.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("write records [%d,%d): %w", start, end, err)
		}
	}

	return nil
}

// WriteFile encodes rel into a file at path, creating parent directories on
// demand and overwriting any existing file. The data is written to a
// temporary sibling and renamed into place after a successful close, so a
// failed encode never leaves a structurally invalid file at path. All
// validation runs before the temporary file is created; a shape or name
// error has no filesystem effect at all.
func (e *Encoder) WriteFile(path string, rel *Relation) error {
	if err := e.validate(rel); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if err := e.Encode(f, rel); err != nil {
		f.Close()
		os.Remove(tmp)

		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}

	return nil
}

// EncodedSize returns the exact byte size of the file Encode would produce
// for rel under this encoder's configuration.
func (e *Encoder) EncodedSize(rel *Relation) int64 {
	recordSize := 2 * rel.Dim * e.cfg.width.Bytes()
	if e.cfg.writeIDs {
		recordSize += section.IDSize
	}

	return int64(section.HeaderSize) + section.NameLenSize +
		int64(len(rel.Name)) + int64(rel.RowCount())*int64(recordSize)
}

func (e *Encoder) writeName(w io.Writer, name string) error {
	var lenBuf [section.NameLenSize]byte
	e.engine.PutUint32(lenBuf[:], uint32(len(name)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write name length: %w", err)
	}
	if len(name) > 0 {
		if _, err := io.WriteString(w, name); err != nil {
			return fmt.Errorf("write name: %w", err)
		}
	}

	return nil
}

// appendCoords appends one row's record prefix: d lower coordinates
// followed by d upper coordinates at the configured width.
func (e *Encoder) appendCoords(buf *pool.ByteBuffer, lo, hi []float64) {
	if e.cfg.width == format.Width32 {
		for _, v := range lo {
			buf.B = e.engine.AppendUint32(buf.B, math.Float32bits(float32(v)))
		}
		for _, v := range hi {
			buf.B = e.engine.AppendUint32(buf.B, math.Float32bits(float32(v)))
		}

		return
	}

	for _, v := range lo {
		buf.B = e.engine.AppendUint64(buf.B, math.Float64bits(v))
	}
	for _, v := range hi {
		buf.B = e.engine.AppendUint64(buf.B, math.Float64bits(v))
	}
}

func (e *Encoder) rowID(rel *Relation, row int) uint32 {
	if rel.IDs != nil {
		return rel.IDs[row]
	}

	return uint32(row)
}
