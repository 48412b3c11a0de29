package relation

import (
	"fmt"

	"github.com/sjsbench/boxfile/errs"
	"github.com/sjsbench/boxfile/format"
	"github.com/sjsbench/boxfile/internal/options"
)

// DefaultChunkRows is the default number of rows encoded and flushed per
// batch. Chunking only bounds peak memory; the byte stream is identical for
// every chunk size and the chosen size never appears in the file.
const DefaultChunkRows = 1_000_000

// EncoderConfig holds the write-side settings of the codec.
type EncoderConfig struct {
	width     format.ScalarWidth
	halfOpen  bool
	writeIDs  bool
	chunkRows int
}

// EncoderOption is a functional option for NewEncoder.
type EncoderOption = options.Option[*EncoderConfig]

// NewEncoderConfig returns the default configuration: float32 scalars,
// half-open intervals, no explicit ids, DefaultChunkRows per batch.
func NewEncoderConfig() *EncoderConfig {
	return &EncoderConfig{
		width:     format.Width32,
		halfOpen:  true,
		writeIDs:  false,
		chunkRows: DefaultChunkRows,
	}
}

// WithScalarWidth selects the on-disk coordinate precision (32 or 64 bits).
func WithScalarWidth(width format.ScalarWidth) EncoderOption {
	return options.New(func(cfg *EncoderConfig) error {
		if !width.Valid() {
			return fmt.Errorf("%w: got %d", errs.ErrUnsupportedPrecision, uint32(width))
		}
		cfg.width = width

		return nil
	})
}

// WithHalfOpen sets the half-open header flag. The flag is stored verbatim
// and never interpreted by the codec.
func WithHalfOpen(halfOpen bool) EncoderOption {
	return options.NoError(func(cfg *EncoderConfig) {
		cfg.halfOpen = halfOpen
	})
}

// WithExplicitIDs selects the record layout that appends a u32 identifier to
// every row. When the relation carries no IDs slice, sequential ids are
// written. The id-bearing layout is encoded record-at-a-time and is slower
// than the default two-block layout.
func WithExplicitIDs(writeIDs bool) EncoderOption {
	return options.NoError(func(cfg *EncoderConfig) {
		cfg.writeIDs = writeIDs
	})
}

// WithChunkRows overrides the rows-per-batch bound. Values <= 0 restore the
// default.
func WithChunkRows(rows int) EncoderOption {
	return options.NoError(func(cfg *EncoderConfig) {
		if rows <= 0 {
			rows = DefaultChunkRows
		}
		cfg.chunkRows = rows
	})
}
