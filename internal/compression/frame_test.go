package compression_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshithgowdakt/granulezip/internal/compression"
)

func buildStream(t *testing.T, payloads ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, p := range payloads {
		require.NoError(t, compression.WriteFrame(&buf, p))
	}
	return buf.Bytes()
}

func TestScanFrames(t *testing.T) {
	stream := buildStream(t, []byte("abcd"), []byte{}, []byte("xyz"))

	frames, err := compression.ScanFrames(bytes.NewReader(stream))
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, compression.FrameInfo{Number: 0, Offset: 0, PayloadSize: 4}, frames[0])
	assert.Equal(t, compression.FrameInfo{Number: 1, Offset: 8, PayloadSize: 0}, frames[1])
	assert.Equal(t, compression.FrameInfo{Number: 2, Offset: 12, PayloadSize: 3}, frames[2])
	assert.Equal(t, int64(7), frames[2].Size())
}

func TestScanFramesEmptyStream(t *testing.T) {
	frames, err := compression.ScanFrames(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestScanFramesTruncatedHeader(t *testing.T) {
	stream := buildStream(t, []byte("abcd"))
	stream = append(stream, 0x02, 0x00)

	_, err := compression.ScanFrames(bytes.NewReader(stream))
	require.Error(t, err)
	assert.True(t, errors.Is(err, compression.ErrFormat))

	var fe *compression.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Frame)
	assert.Equal(t, int64(8), fe.Offset)
}

func TestScanFramesOversizedPayload(t *testing.T) {
	stream := buildStream(t, []byte("abcd"))
	stream[0] = 0x10 // claims 16 bytes, 4 present

	_, err := compression.ScanFrames(bytes.NewReader(stream))
	var fe *compression.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, fe.Frame)
	assert.Contains(t, fe.Reason, "exceeds remaining")
}

func TestReadHeader(t *testing.T) {
	var hdr [compression.HeaderSize]byte
	require.NoError(t, compression.PutHeader(hdr[:], 0x01020304))
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, hdr[:])

	n, err := compression.ReadHeader(hdr[:])
	require.NoError(t, err)
	assert.Equal(t, int64(0x01020304), n)

	_, err = compression.ReadHeader(hdr[:2])
	assert.Error(t, err)
	assert.Error(t, compression.PutHeader(hdr[:], -1))
}
