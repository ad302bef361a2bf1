package compression

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// GzipCodec compresses each block as a standalone gzip member.
type GzipCodec struct {
	level   int
	writers sync.Pool
}

// NewGzipCodec creates a gzip codec. Level 0 selects gzip.DefaultCompression.
func NewGzipCodec(level int) (*GzipCodec, error) {
	if err := checkGzipLevel(level); err != nil {
		return nil, err
	}
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return &GzipCodec{level: level}, nil
}

func checkGzipLevel(level int) error {
	if level != 0 && (level < gzip.BestSpeed || level > gzip.BestCompression) {
		return fmt.Errorf("gzip: level %d out of range [%d, %d]", level, gzip.BestSpeed, gzip.BestCompression)
	}
	return nil
}

func (c *GzipCodec) Name() string { return NameGzip }

func (c *GzipCodec) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(src)/2 + 64)

	w, _ := c.writers.Get().(*gzip.Writer)
	if w == nil {
		var err error
		if w, err = gzip.NewWriterLevel(&buf, c.level); err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
	} else {
		w.Reset(&buf)
	}
	defer c.writers.Put(w)

	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *GzipCodec) Decompress(src []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	return out, nil
}
