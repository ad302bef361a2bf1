package blockcodec_test

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/harshithgowdakt/granulezip/internal/compression"
)

// reverseLatencyCodec copies blocks but makes early blocks slow, so blocks
// finish encoding in roughly reverse order. Each block's first byte is its
// block number.
type reverseLatencyCodec struct {
	total int
	step  time.Duration
	order chan int
}

func (c *reverseLatencyCodec) Name() string { return "reverse-latency" }

func (c *reverseLatencyCodec) Compress(src []byte) ([]byte, error) {
	n := int(src[0])
	time.Sleep(time.Duration(c.total-n) * c.step)
	if c.order != nil {
		c.order <- n
	}
	return append([]byte(nil), src...), nil
}

func (c *reverseLatencyCodec) Decompress(src []byte) ([]byte, error) {
	return c.Compress(src)
}

// countingCodec records the peak number of concurrent codec calls.
type countingCodec struct {
	active atomic.Int64
	peak   atomic.Int64
}

func (c *countingCodec) Name() string { return "counting" }

func (c *countingCodec) enter() {
	n := c.active.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	c.active.Add(-1)
}

func (c *countingCodec) Compress(src []byte) ([]byte, error) {
	c.enter()
	return append([]byte(nil), src...), nil
}

func (c *countingCodec) Decompress(src []byte) ([]byte, error) {
	c.enter()
	return append([]byte(nil), src...), nil
}

var errBadBlock = errors.New("bad block")

// failingCodec fails to encode or decode blocks starting with the poison byte.
type failingCodec struct {
	poison byte
}

func (c *failingCodec) Name() string { return "failing" }

func (c *failingCodec) Compress(src []byte) ([]byte, error) {
	if len(src) > 0 && src[0] == c.poison {
		return nil, errBadBlock
	}
	return append([]byte(nil), src...), nil
}

func (c *failingCodec) Decompress(src []byte) ([]byte, error) { return c.Compress(src) }

// gateCodec blocks encoding of block 0 until release is closed. Other
// blocks pass through immediately and signal on ready.
type gateCodec struct {
	entered chan struct{}
	release chan struct{}
}

func newGateCodec() *gateCodec {
	return &gateCodec{entered: make(chan struct{}), release: make(chan struct{})}
}

func (c *gateCodec) Name() string { return "gate" }

func (c *gateCodec) Compress(src []byte) ([]byte, error) {
	if src[0] == 0 {
		close(c.entered)
		<-c.release
	}
	return append([]byte(nil), src...), nil
}

func (c *gateCodec) Decompress(src []byte) ([]byte, error) { return c.Compress(src) }

// panicCodec panics while encoding.
type panicCodec struct{}

func (panicCodec) Name() string                        { return "panic" }
func (panicCodec) Compress([]byte) ([]byte, error)     { panic("codec exploded") }
func (panicCodec) Decompress(b []byte) ([]byte, error) { return b, nil }

var (
	_ compression.Codec = (*reverseLatencyCodec)(nil)
	_ compression.Codec = (*countingCodec)(nil)
	_ compression.Codec = (*failingCodec)(nil)
	_ compression.Codec = (*gateCodec)(nil)
	_ compression.Codec = panicCodec{}
)
