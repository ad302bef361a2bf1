package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// lz4 payload layout: [uncompressed_size (4 LE)] [lz4 block or raw bytes].
// When the remainder is exactly uncompressed_size bytes long the block was
// stored raw because lz4 could not shrink it.
const lz4SizePrefix = 4

// LZ4Codec implements LZ4 block compression. Level 0 uses the fast
// compressor; levels 1-9 use the high-compression one.
type LZ4Codec struct {
	level lz4.CompressionLevel
}

// NewLZ4Codec creates an LZ4 codec.
func NewLZ4Codec(level int) *LZ4Codec {
	var lvl lz4.CompressionLevel
	switch {
	case level <= 0:
		lvl = lz4.Fast
	case level >= 9:
		lvl = lz4.Level9
	default:
		lvl = lz4.CompressionLevel(1 << (8 + level))
	}
	return &LZ4Codec{level: lvl}
}

func (c *LZ4Codec) Name() string { return NameLZ4 }

func (c *LZ4Codec) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4SizePrefix+lz4.CompressBlockBound(len(src)))
	binary.LittleEndian.PutUint32(dst, uint32(len(src)))

	var n int
	var err error
	if c.level == lz4.Fast {
		n, err = lz4.CompressBlock(src, dst[lz4SizePrefix:], nil)
	} else {
		n, err = lz4.CompressBlockHC(src, dst[lz4SizePrefix:], c.level, nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if n == 0 || n >= len(src) {
		// Incompressible, store as-is
		n = copy(dst[lz4SizePrefix:], src)
	}
	return dst[:lz4SizePrefix+n], nil
}

func (c *LZ4Codec) Decompress(src []byte) ([]byte, error) {
	if len(src) < lz4SizePrefix {
		return nil, fmt.Errorf("lz4 decompress: payload too small: %d bytes", len(src))
	}
	size := int(binary.LittleEndian.Uint32(src))
	body := src[lz4SizePrefix:]
	if len(body) == size {
		dst := make([]byte, size)
		copy(dst, body)
		return dst, nil
	}
	if len(body) > size {
		return nil, fmt.Errorf("lz4 decompress: %d byte block larger than declared size %d", len(body), size)
	}
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(body, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("lz4 decompress: expected %d bytes, got %d", size, n)
	}
	return dst, nil
}
