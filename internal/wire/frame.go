// Package wire implements the handoff protocol: a 4-byte big-endian
// length-prefixed framing over a byte stream, and the JSON payload carrying
// head-model embeddings to the remote peer.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// headerLen is the size of the frame length prefix in bytes.
const headerLen = 4

// WriteFrame writes one frame to w: a big-endian uint32 byte length followed
// by the body. The length counts bytes, never code points. It returns only
// once every byte has been handed to w.
func WriteFrame(w io.Writer, body []byte) error {
	if uint64(len(body)) > math.MaxUint32 {
		return fmt.Errorf("frame body of %d bytes exceeds uint32 length prefix", len(body))
	}
	buf := make([]byte, headerLen+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[headerLen:], body)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// FrameReader reassembles frames from arbitrarily chunked input. It holds the
// accumulated bytes and the target length (unknown until the 4-byte prefix is
// complete) and makes no assumption about chunk boundaries: a single Feed may
// carry one byte, half a length prefix, or several complete frames.
//
// Exactly one receive operation may own a FrameReader at a time.
type FrameReader struct {
	buf []byte
	// need is the body length once known, -1 before the prefix is complete.
	// Held as int64: a uint32 prefix can exceed int on 32-bit targets, and a
	// hostile length must stall (never complete) rather than wrap negative.
	need int64
}

// NewFrameReader returns an empty FrameReader.
func NewFrameReader() *FrameReader {
	return &FrameReader{need: -1}
}

// Feed appends chunk to the accumulation buffer and returns the next complete
// frame body, if any. Bytes beyond a completed frame stay buffered for the
// following frame; call Feed(nil) to drain further frames already buffered.
func (fr *FrameReader) Feed(chunk []byte) ([]byte, bool) {
	fr.buf = append(fr.buf, chunk...)
	if fr.need < 0 {
		if len(fr.buf) < headerLen {
			return nil, false
		}
		fr.need = int64(binary.BigEndian.Uint32(fr.buf))
	}
	if int64(len(fr.buf)) < headerLen+fr.need {
		return nil, false
	}
	// The full frame is buffered, so the body length fits in int here.
	total := headerLen + int(fr.need)
	body := make([]byte, int(fr.need))
	copy(body, fr.buf[headerLen:total])
	fr.buf = append(fr.buf[:0:0], fr.buf[total:]...)
	fr.need = -1
	return body, true
}

// Buffered returns how many bytes are accumulated but not yet consumed.
func (fr *FrameReader) Buffered() int { return len(fr.buf) }

// target reports total bytes needed for the pending frame, 0 while unknown.
func (fr *FrameReader) target() int64 {
	if fr.need < 0 {
		return 0
	}
	return headerLen + fr.need
}

// ReadFrame reads from r until one complete frame is accumulated and returns
// its body. Reads are incremental: each may deliver any number of bytes. If
// the stream ends first, the error satisfies IsIncompleteFrame and no
// truncated body is ever returned.
func ReadFrame(r io.Reader) ([]byte, error) {
	fr := NewFrameReader()
	chunk := make([]byte, 64*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if body, ok := fr.Feed(chunk[:n]); ok {
				return body, nil
			}
		}
		if err == io.EOF {
			return nil, ErrIncompleteFrame(int64(fr.Buffered()), fr.target())
		}
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
	}
}
