package wire

import "fmt"

// incompleteFrameError signals that the stream ended before a full frame
// (4-byte length prefix plus body) was accumulated.
type incompleteFrameError struct {
	got  int64 // bytes accumulated so far
	want int64 // total bytes needed, 0 while the length prefix is still short
}

func (e incompleteFrameError) Error() string {
	if e.want == 0 {
		return fmt.Sprintf("incomplete frame: stream closed with %d byte(s), length prefix not received", e.got)
	}
	return fmt.Sprintf("incomplete frame: stream closed after %d of %d byte(s)", e.got, e.want)
}

// ErrIncompleteFrame constructs an incompleteFrameError.
func ErrIncompleteFrame(got, want int64) error { return incompleteFrameError{got: got, want: want} }

// IsIncompleteFrame reports whether err indicates a frame cut short by the peer.
func IsIncompleteFrame(err error) bool {
	_, ok := err.(incompleteFrameError)
	return ok
}

// decodeError signals a response body that could not be decoded. The bytes
// are discarded; no partial recovery is attempted.
type decodeError struct{ msg string }

func (e decodeError) Error() string { return "decode: " + e.msg }

// ErrDecode constructs a decodeError.
func ErrDecode(msg string) error { return decodeError{msg: msg} }

// IsDecode reports whether err came from payload decoding.
func IsDecode(err error) bool {
	_, ok := err.(decodeError)
	return ok
}
