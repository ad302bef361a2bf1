package blockcodec

import (
	"bytes"
	"testing"

	"github.com/harshithgowdakt/granulezip/internal/compression"
)

func TestSplitIntoBlocks(t *testing.T) {
	tests := []struct {
		length, blockSize int64
		want              []int64 // sizes
	}{
		{0, 4, nil},
		{3, 4, []int64{3}},
		{4, 4, []int64{4}},
		{10, 4, []int64{4, 4, 2}},
		{12, 4, []int64{4, 4, 4}},
	}
	for _, tt := range tests {
		blocks := splitIntoBlocks(tt.length, tt.blockSize)
		if len(blocks) != len(tt.want) {
			t.Fatalf("split(%d, %d): got %d blocks, want %d", tt.length, tt.blockSize, len(blocks), len(tt.want))
		}
		var offset int64
		for i, b := range blocks {
			if b.Number != i || b.Offset != offset || b.Size != tt.want[i] {
				t.Fatalf("split(%d, %d) block %d = %+v", tt.length, tt.blockSize, i, b)
			}
			offset += b.Size
		}
	}
}

func TestDiscoverBlocksRewinds(t *testing.T) {
	var buf bytes.Buffer
	for _, p := range [][]byte{[]byte("one"), []byte("three")} {
		if err := compression.WriteFrame(&buf, p); err != nil {
			t.Fatal(err)
		}
	}
	r := bytes.NewReader(buf.Bytes())

	blocks, err := discoverBlocks(r)
	if err != nil {
		t.Fatal(err)
	}
	want := []Block{{Number: 0, Offset: 0, Size: 7}, {Number: 1, Offset: 7, Size: 9}}
	if len(blocks) != len(want) || blocks[0] != want[0] || blocks[1] != want[1] {
		t.Fatalf("got %+v, want %+v", blocks, want)
	}
	if pos, _ := r.Seek(0, 1); pos != 0 {
		t.Fatalf("input left at offset %d, want 0", pos)
	}
}
