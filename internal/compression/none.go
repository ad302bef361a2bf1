package compression

import "bytes"

// NoneCodec stores blocks unchanged. Frames still carry their length
// header, so its output is a valid stream for the other tools.
type NoneCodec struct{}

func (*NoneCodec) Name() string { return NameNone }

// Compress returns a copy of src; callers may reuse src afterwards.
func (*NoneCodec) Compress(src []byte) ([]byte, error) { return bytes.Clone(src), nil }

// Decompress accepts any payload, including an empty one.
func (*NoneCodec) Decompress(src []byte) ([]byte, error) { return bytes.Clone(src), nil }
