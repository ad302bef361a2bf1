package blockcodec

import (
	"fmt"

	"github.com/harshithgowdakt/granulezip/internal/compression"
)

// decompressBlock reads one frame found by the pre-scan, decodes its
// payload outside any lock and writes the decoded bytes in block order.
func (e *Engine) decompressBlock(r *run) func(Block) error {
	return func(b Block) error {
		frame, err := r.readAt(b)
		if err != nil {
			return err
		}
		size, err := compression.ReadHeader(frame)
		if err != nil {
			return &BlockError{Number: b.Number, Op: "read", Err: err}
		}
		if size != b.Size-compression.HeaderSize {
			// the input changed since the pre-scan
			return &BlockError{Number: b.Number, Op: "read", Err: &compression.FormatError{
				Frame: b.Number, Offset: b.Offset,
				Reason: fmt.Sprintf("header says %d bytes, scan found %d", size, b.Size-compression.HeaderSize),
			}}
		}
		decoded, err := e.codec.Decompress(frame[compression.HeaderSize:])
		if err != nil {
			return &BlockError{Number: b.Number, Op: "decode", Err: err}
		}

		if err := r.awaitTurn(b.Number); err != nil {
			return err
		}
		return r.emit(b.Number, decoded)
	}
}
