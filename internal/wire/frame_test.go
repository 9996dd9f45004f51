package wire

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// chunkedReader delivers its contents in fixed-size chunks to simulate a
// transport that never hands over a frame in one read.
type chunkedReader struct {
	data []byte
	size int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.size
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func frameBytes(t *testing.T, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, body))
	return buf.Bytes()
}

func TestWriteFrameLayout(t *testing.T) {
	raw := frameBytes(t, []byte("abc"))
	require.Equal(t, []byte{0, 0, 0, 3, 'a', 'b', 'c'}, raw)
}

func TestFrameRoundTripChunkings(t *testing.T) {
	bodies := [][]byte{
		nil,
		[]byte("x"),
		[]byte("hello, peer"),
		bytes.Repeat([]byte{0xAB}, 200_000), // larger than any single simulated chunk
	}
	for _, body := range bodies {
		raw := frameBytes(t, body)
		for _, size := range []int{1, 2, 3, 7, 1024, len(raw)} {
			got, err := ReadFrame(&chunkedReader{data: raw, size: size})
			require.NoError(t, err, "chunk size %d", size)
			require.Equal(t, len(body), len(got), "chunk size %d", size)
			require.True(t, bytes.Equal(body, got), "chunk size %d", size)
		}
	}
}

func TestFrameRoundTripRandomChunks(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	body := make([]byte, 5000)
	rng.Read(body)
	raw := frameBytes(t, body)

	fr := NewFrameReader()
	var got []byte
	var done bool
	for off := 0; off < len(raw); {
		n := 1 + rng.Intn(97)
		if off+n > len(raw) {
			n = len(raw) - off
		}
		got, done = fr.Feed(raw[off : off+n])
		off += n
		if done {
			require.Equal(t, len(raw), off, "frame completed before all bytes were fed")
		}
	}
	require.True(t, done)
	require.True(t, bytes.Equal(body, got))
}

func TestFrameReaderTenBytesInTwoByteWrites(t *testing.T) {
	body := []byte("0123456789")
	raw := frameBytes(t, body)

	fr := NewFrameReader()
	var got []byte
	var done bool
	for off := 0; off < len(raw); off += 2 {
		got, done = fr.Feed(raw[off : off+2])
	}
	require.True(t, done)
	require.Equal(t, body, got)
	require.Equal(t, 0, fr.Buffered())
}

func TestFrameReaderRetainsExcessBytes(t *testing.T) {
	first := frameBytes(t, []byte("one"))
	second := frameBytes(t, []byte("two!"))
	joined := append(append([]byte{}, first...), second...)

	fr := NewFrameReader()
	got, ok := fr.Feed(joined)
	require.True(t, ok)
	require.Equal(t, []byte("one"), got)
	require.Equal(t, len(second), fr.Buffered())

	// The second frame is already buffered; an empty feed drains it.
	got, ok = fr.Feed(nil)
	require.True(t, ok)
	require.Equal(t, []byte("two!"), got)
	require.Equal(t, 0, fr.Buffered())
}

func TestFrameReaderHugeLengthPrefix(t *testing.T) {
	// A prefix of 2^31 bytes must simply keep the frame pending, even where
	// int is 32 bits; it must never read as complete or allocate a body.
	fr := NewFrameReader()
	_, ok := fr.Feed([]byte{0x80, 0x00, 0x00, 0x00})
	require.False(t, ok)
	_, ok = fr.Feed(bytes.Repeat([]byte{0x01}, 1024))
	require.False(t, ok)
	require.Equal(t, 4+1024, fr.Buffered())
}

func TestReadFrameIncompleteBody(t *testing.T) {
	raw := frameBytes(t, []byte("0123456789"))
	_, err := ReadFrame(&chunkedReader{data: raw[:8], size: 3})
	require.Error(t, err)
	require.True(t, IsIncompleteFrame(err))
}

func TestReadFrameIncompletePrefix(t *testing.T) {
	_, err := ReadFrame(&chunkedReader{data: []byte{0, 0}, size: 1})
	require.Error(t, err)
	require.True(t, IsIncompleteFrame(err))
}

func TestReadFrameEmptyStream(t *testing.T) {
	_, err := ReadFrame(&chunkedReader{})
	require.True(t, IsIncompleteFrame(err))
}

func TestReadFrameEmptyBody(t *testing.T) {
	got, err := ReadFrame(bytes.NewReader(frameBytes(t, nil)))
	require.NoError(t, err)
	require.Len(t, got, 0)
}
