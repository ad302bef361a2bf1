package compression

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// ZstdCodec implements zstd compression. The encoder and decoder are
// shared by all blocks; EncodeAll and DecodeAll are safe for concurrent use.
type ZstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCodec creates a zstd codec. Level follows the zstd command line
// scale (1-22); 0 selects zstd.SpeedDefault.
func NewZstdCodec(level int) (*ZstdCodec, error) {
	if err := checkZstdLevel(level); err != nil {
		return nil, err
	}
	encLevel := zstd.SpeedDefault
	if level != 0 {
		encLevel = zstd.EncoderLevelFromZstd(level)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, fmt.Errorf("zstd: encoder init: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("zstd: decoder init: %w", err)
	}
	return &ZstdCodec{encoder: encoder, decoder: decoder}, nil
}

func checkZstdLevel(level int) error {
	if level < 0 || level > 22 {
		return fmt.Errorf("zstd: level %d out of range [1, 22]", level)
	}
	return nil
}

func (c *ZstdCodec) Name() string { return NameZstd }

func (c *ZstdCodec) Compress(src []byte) ([]byte, error) {
	return c.encoder.EncodeAll(src, make([]byte, 0, len(src)/2+64)), nil
}

func (c *ZstdCodec) Decompress(src []byte) ([]byte, error) {
	out, err := c.decoder.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
