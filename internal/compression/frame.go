package compression

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Compressed stream format: a sequence of frames
//   [payload_size (4 LE)] [payload...]
// with no magic number, trailer or index. The frame table is recovered by a
// linear scan of the headers.

// HeaderSize is the size of a frame's length header.
const HeaderSize = 4

// MaxPayloadSize is the largest payload a frame header can describe.
const MaxPayloadSize = math.MaxUint32

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("malformed compressed stream")

// FormatError reports a frame header that cannot describe a valid frame.
type FormatError struct {
	Frame  int   // frame number
	Offset int64 // byte offset of the frame header
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("frame %d at offset %d: %s", e.Frame, e.Offset, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// FrameInfo locates one frame inside a compressed stream.
type FrameInfo struct {
	Number      int
	Offset      int64 // offset of the header
	PayloadSize int64
}

// Size returns the framed size (header + payload).
func (f FrameInfo) Size() int64 { return HeaderSize + f.PayloadSize }

// PutHeader writes the frame header for a payload of n bytes into dst.
func PutHeader(dst []byte, n int) error {
	if n < 0 || int64(n) > MaxPayloadSize {
		return fmt.Errorf("payload of %d bytes does not fit a frame header", n)
	}
	binary.LittleEndian.PutUint32(dst[:HeaderSize], uint32(n))
	return nil
}

// WriteFrame writes a header followed by payload to w.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [HeaderSize]byte
	if err := PutHeader(hdr[:], len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadHeader decodes a frame header.
func ReadHeader(data []byte) (int64, error) {
	if len(data) < HeaderSize {
		return 0, fmt.Errorf("not enough data for frame header: %d bytes", len(data))
	}
	return int64(binary.LittleEndian.Uint32(data)), nil
}

// ScanFrames walks the frame headers of r from its start and returns the
// frame table. It seeks over payloads instead of reading them. A truncated
// header or a payload running past the end of the stream is reported as a
// *FormatError. The read position of r is left unspecified.
func ScanFrames(r io.ReadSeeker) ([]FrameInfo, error) {
	length, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measuring stream: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding stream: %w", err)
	}

	var frames []FrameInfo
	var hdr [HeaderSize]byte
	for offset := int64(0); offset < length; {
		number := len(frames)
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, &FormatError{Frame: number, Offset: offset,
					Reason: fmt.Sprintf("truncated header: %d of %d bytes", length-offset, HeaderSize)}
			}
			return nil, fmt.Errorf("reading frame %d header: %w", number, err)
		}
		size := int64(binary.LittleEndian.Uint32(hdr[:]))
		remaining := length - offset - HeaderSize
		if size > remaining {
			return nil, &FormatError{Frame: number, Offset: offset,
				Reason: fmt.Sprintf("payload size %d exceeds remaining %d bytes", size, remaining)}
		}
		if _, err := r.Seek(size, io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("skipping frame %d payload: %w", number, err)
		}
		frames = append(frames, FrameInfo{Number: number, Offset: offset, PayloadSize: size})
		offset += HeaderSize + size
	}
	return frames, nil
}
