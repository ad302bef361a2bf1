package compression

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// S2Codec implements S2 (Snappy-compatible) block compression.
// Level 0 or 1 uses the default encoder, 2 the better one, 3+ the best.
type S2Codec struct {
	level int
}

// NewS2Codec creates an S2 codec.
func NewS2Codec(level int) *S2Codec {
	return &S2Codec{level: level}
}

func (c *S2Codec) Name() string { return NameS2 }

func (c *S2Codec) Compress(src []byte) ([]byte, error) {
	switch {
	case c.level >= 3:
		return s2.EncodeBest(nil, src), nil
	case c.level == 2:
		return s2.EncodeBetter(nil, src), nil
	default:
		return s2.Encode(nil, src), nil
	}
}

func (c *S2Codec) Decompress(src []byte) ([]byte, error) {
	out, err := s2.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("s2 decompress: %w", err)
	}
	return out, nil
}
