package relation

import "github.com/sjsbench/boxfile/internal/options"

// DecoderConfig holds the read-side settings of the codec.
type DecoderConfig struct {
	synthesizeIDs bool
	strict        bool
	dropEmpty     bool
	chunkRows     int
}

// DecoderOption is a functional option for NewDecoder.
type DecoderOption = options.Option[*DecoderConfig]

// NewDecoderConfig returns the default configuration: synthesize sequential
// ids when the file carries none, ignore non-zero reserved header words,
// keep empty boxes.
func NewDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		synthesizeIDs: true,
		strict:        false,
		dropEmpty:     false,
		chunkRows:     DefaultChunkRows,
	}
}

// WithSynthesizedIDs controls whether sequential ids 0..n-1 are generated,
// in file order, when the file itself carries no identifiers. This is the
// only value a decoder ever computes; downstream engines rely on it for
// bookkeeping when files are written without ids.
func WithSynthesizedIDs(generate bool) DecoderOption {
	return options.NoError(func(cfg *DecoderConfig) {
		cfg.synthesizeIDs = generate
	})
}

// WithStrictReserved makes the decoder reject files whose reserved header
// words are non-zero. By default they are ignored for forward
// compatibility.
func WithStrictReserved(strict bool) DecoderOption {
	return options.NoError(func(cfg *DecoderConfig) {
		cfg.strict = strict
	})
}

// WithDropEmpty drops boxes with lower >= upper on any axis after loading.
func WithDropEmpty(drop bool) DecoderOption {
	return options.NoError(func(cfg *DecoderConfig) {
		cfg.dropEmpty = drop
	})
}

// WithReadChunkRows overrides the rows-per-batch read bound. Values <= 0
// restore the default.
func WithReadChunkRows(rows int) DecoderOption {
	return options.NoError(func(cfg *DecoderConfig) {
		if rows <= 0 {
			rows = DefaultChunkRows
		}
		cfg.chunkRows = rows
	})
}
