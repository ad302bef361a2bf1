package blockcodec

import "github.com/harshithgowdakt/granulezip/internal/compression"

// compressBlock reads a raw block, encodes it outside any lock, then writes
// it as one frame once every earlier block has been written.
func (e *Engine) compressBlock(r *run) func(Block) error {
	return func(b Block) error {
		raw, err := r.readAt(b)
		if err != nil {
			return err
		}
		payload, err := e.codec.Compress(raw)
		if err != nil {
			return &BlockError{Number: b.Number, Op: "encode", Err: err}
		}
		var hdr [compression.HeaderSize]byte
		if err := compression.PutHeader(hdr[:], len(payload)); err != nil {
			return &BlockError{Number: b.Number, Op: "encode", Err: err}
		}

		if err := r.awaitTurn(b.Number); err != nil {
			return err
		}
		return r.emit(b.Number, hdr[:], payload)
	}
}
