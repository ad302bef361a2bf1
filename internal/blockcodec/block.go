package blockcodec

import (
	"fmt"
	"io"

	"github.com/harshithgowdakt/granulezip/internal/compression"
)

// Block is one independently coded slice of a stream.
type Block struct {
	Number int
	Offset int64 // byte offset in the input stream
	Size   int64 // bytes to read from the input: raw bytes, or header+payload when decompressing
}

// splitIntoBlocks partitions length bytes into blockSize blocks. The last
// block may be short; an exact multiple yields no empty trailing block.
func splitIntoBlocks(length, blockSize int64) []Block {
	blocks := make([]Block, 0, (length+blockSize-1)/blockSize)
	for offset := int64(0); offset < length; offset += blockSize {
		size := min(blockSize, length-offset)
		blocks = append(blocks, Block{Number: len(blocks), Offset: offset, Size: size})
	}
	return blocks
}

// discoverBlocks scans the frame headers of a compressed stream and returns
// one block per frame, then rewinds the stream.
func discoverBlocks(in io.ReadSeeker) ([]Block, error) {
	frames, err := compression.ScanFrames(in)
	if err != nil {
		return nil, err
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding input: %w", err)
	}
	blocks := make([]Block, len(frames))
	for i, f := range frames {
		blocks[i] = Block{Number: f.Number, Offset: f.Offset, Size: f.Size()}
	}
	return blocks, nil
}

func streamLength(s io.Seeker) (int64, error) {
	length, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("measuring input: %w", err)
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding input: %w", err)
	}
	return length, nil
}
