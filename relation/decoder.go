package relation

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sjsbench/boxfile/endian"
	"github.com/sjsbench/boxfile/errs"
	"github.com/sjsbench/boxfile/format"
	"github.com/sjsbench/boxfile/internal/options"
	"github.com/sjsbench/boxfile/internal/pool"
	"github.com/sjsbench/boxfile/section"
)

// FileInfo reports what a decoded file declared about itself. It is derived
// entirely from the header and name block.
type FileInfo struct {
	Name     string
	Version  uint32
	Dim      uint32
	Width    format.ScalarWidth
	Flags    uint32
	RowCount uint64
}

// HalfOpen reports whether the file's half-open flag bit is set.
func (fi *FileInfo) HalfOpen() bool {
	return fi.Flags&section.FlagHalfOpen != 0
}

// HasExplicitIDs reports whether the file's records carried identifiers.
func (fi *FileInfo) HasExplicitIDs() bool {
	return fi.Flags&section.FlagHasIDs != 0
}

// Decoder reconstructs relations from SJSBOX v1 byte streams. It is the
// exact inverse of Encoder: header and name validation, then exactly
// RowCount fixed-width records. Any shortfall or excess of bytes relative to
// the declared row count is a hard failure, never a partial result.
type Decoder struct {
	cfg    *DecoderConfig
	engine endian.EndianEngine
}

// NewDecoder creates a Decoder with the given options.
func NewDecoder(opts ...DecoderOption) (*Decoder, error) {
	cfg := NewDecoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Decoder{
		cfg:    cfg,
		engine: endian.GetLittleEndianEngine(),
	}, nil
}

// ReadFile decodes the relation file at path. The file handle is held for
// the duration of the read and released on every exit path.
func (d *Decoder) ReadFile(path string) (*Relation, *FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return d.Decode(f)
}

// Decode reads one relation from r. The stream must end exactly at the last
// record: trailing bytes fail with ErrOversizedFile, a short stream with
// ErrTruncatedFile.
func (d *Decoder) Decode(r io.Reader) (*Relation, *FileInfo, error) {
	header, err := d.readHeader(r)
	if err != nil {
		return nil, nil, err
	}

	if d.cfg.strict && !header.ReservedZero() {
		return nil, nil, errs.ErrReservedNotZero
	}

	name, err := d.readName(r)
	if err != nil {
		return nil, nil, err
	}

	info := &FileInfo{
		Name:     name,
		Version:  header.Version,
		Dim:      header.Dim,
		Width:    header.ScalarWidth(),
		Flags:    header.Flags,
		RowCount: header.RowCount,
	}

	rel, err := d.readRecords(r, header, name)
	if err != nil {
		return nil, nil, err
	}

	// The stream must be exhausted; anything after the last record means the
	// file is inconsistent with its declared row count.
	var probe [1]byte
	if n, err := r.Read(probe[:]); n > 0 {
		return nil, nil, fmt.Errorf("%w: trailing bytes after %d records",
			errs.ErrOversizedFile, header.RowCount)
	} else if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("read trailing probe: %w", err)
	}

	if d.cfg.dropEmpty {
		rel.RemoveEmpty()
	}

	return rel, info, nil
}

func (d *Decoder) readHeader(r io.Reader) (*section.FileHeader, error) {
	buf := make([]byte, section.HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errs.ErrInvalidHeaderSize
		}

		return nil, fmt.Errorf("read header: %w", err)
	}

	header := &section.FileHeader{}
	if err := header.Parse(buf); err != nil {
		return nil, err
	}

	return header, nil
}

func (d *Decoder) readName(r io.Reader) (string, error) {
	var lenBuf [section.NameLenSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("%w: missing name length", errs.ErrTruncatedFile)
		}

		return "", fmt.Errorf("read name length: %w", err)
	}

	nameLen := d.engine.Uint32(lenBuf[:])
	if nameLen == 0 {
		return "", nil
	}

	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("%w: name shorter than declared %d bytes",
				errs.ErrTruncatedFile, nameLen)
		}

		return "", fmt.Errorf("read name: %w", err)
	}

	return string(nameBuf), nil
}

// readRecords materializes all rows, reading the payload in bounded chunks
// so peak buffer memory is O(chunkRows * dim) scalars.
func (d *Decoder) readRecords(r io.Reader, header *section.FileHeader, name string) (*Relation, error) {
	recordSize := header.RecordSize()
	if header.RowCount > uint64(math.MaxInt64)/uint64(recordSize) {
		return nil, fmt.Errorf("%w: row count %d is implausible for record size %d",
			errs.ErrTruncatedFile, header.RowCount, recordSize)
	}

	n := int(header.RowCount)
	dim := int(header.Dim)
	hasIDs := header.HasExplicitIDs()

	rel := &Relation{
		Name:     name,
		Dim:      dim,
		HalfOpen: header.HalfOpen(),
		Lower:    make([][]float64, n),
		Upper:    make([][]float64, n),
	}
	if hasIDs {
		rel.IDs = make([]uint32, n)
	}

	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	for start := 0; start < n; start += d.cfg.chunkRows {
		end := min(n, start+d.cfg.chunkRows)
		chunkBytes := (end - start) * recordSize

		buf.Reset()
		buf.ExtendOrGrow(chunkBytes)
		chunk := buf.Bytes()

		if _, err := io.ReadFull(r, chunk); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: records end at row %d of %d",
					errs.ErrTruncatedFile, start, n)
			}

			return nil, fmt.Errorf("read records [%d,%d): %w", start, end, err)
		}

		for row := start; row < end; row++ {
			record := chunk[(row-start)*recordSize : (row-start+1)*recordSize]
			lo, hi, id := d.decodeRecord(record, dim, header.ScalarWidth())
			rel.Lower[row] = lo
			rel.Upper[row] = hi
			if hasIDs {
				rel.IDs[row] = id
			}
		}
	}

	if !hasIDs && d.cfg.synthesizeIDs {
		rel.IDs = make([]uint32, n)
		for i := range rel.IDs {
			rel.IDs[i] = uint32(i)
		}
	}

	return rel, nil
}

// decodeRecord splits one fixed-width record into its lower block, upper
// block and optional trailing identifier.
func (d *Decoder) decodeRecord(record []byte, dim int, width format.ScalarWidth) (lo, hi []float64, id uint32) {
	scalarBytes := width.Bytes()
	lo = make([]float64, dim)
	hi = make([]float64, dim)

	if width == format.Width32 {
		for k := 0; k < dim; k++ {
			lo[k] = float64(math.Float32frombits(d.engine.Uint32(record[k*4 : k*4+4])))
		}
		for k := 0; k < dim; k++ {
			off := (dim + k) * 4
			hi[k] = float64(math.Float32frombits(d.engine.Uint32(record[off : off+4])))
		}
	} else {
		for k := 0; k < dim; k++ {
			lo[k] = math.Float64frombits(d.engine.Uint64(record[k*8 : k*8+8]))
		}
		for k := 0; k < dim; k++ {
			off := (dim + k) * 8
			hi[k] = math.Float64frombits(d.engine.Uint64(record[off : off+8]))
		}
	}

	if len(record) > 2*dim*scalarBytes {
		id = d.engine.Uint32(record[2*dim*scalarBytes:])
	}

	return lo, hi, id
}
