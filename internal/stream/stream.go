package stream

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// fingerprintDomain prefixes the content hash so stream fingerprints can
// never collide with hashes computed over other record shapes.
const fingerprintDomain = "vgrscope/stream/v1"

// OutOfRangeError reports an offset lookup outside [0, Len()).
// This is a programming or input error, not a recoverable condition.
type OutOfRangeError struct {
	Offset int
	Len    int
}

// Error implements the error interface.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("offset %d out of range [0, %d)", e.Offset, e.Len)
}

// Stream is a read-only view over the concatenation of a replay's ordered
// frame buffers. Construct with Assemble; never mutate the backing data.
type Stream struct {
	data []byte

	// starts[i] is the absolute offset where frame i begins. Monotonic,
	// one entry per frame, starts[0] == 0.
	starts []int
}

// Assemble concatenates frames, in the order given, into a Stream.
// The caller is responsible for having sorted the frames by their numeric
// suffix; Assemble preserves whatever order it receives.
//
// A single-frame replay is valid and produces an offset table of size 1.
// An empty frame list produces an empty stream with no frames.
func Assemble(frames [][]byte) *Stream {
	starts := make([]int, len(frames))
	total := 0
	for i, frame := range frames {
		starts[i] = total
		total += len(frame)
	}

	data := make([]byte, 0, total)
	for _, frame := range frames {
		data = append(data, frame...)
	}

	return &Stream{data: data, starts: starts}
}

// Len returns the total length of the logical stream in bytes.
func (s *Stream) Len() int {
	return len(s.data)
}

// Frames returns the number of frames backing the stream.
func (s *Stream) Frames() int {
	return len(s.starts)
}

// Bytes returns the backing byte slice. Callers must treat it as read-only.
func (s *Stream) Bytes() []byte {
	return s.data
}

// At returns the byte at the given absolute offset.
func (s *Stream) At(off int) (byte, error) {
	if off < 0 || off >= len(s.data) {
		return 0, &OutOfRangeError{Offset: off, Len: len(s.data)}
	}
	return s.data[off], nil
}

// Window returns the n-byte slice starting at off, or an OutOfRangeError
// if the window does not fit entirely within the stream. The returned
// slice aliases the stream and must be treated as read-only.
func (s *Stream) Window(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(s.data) {
		return nil, &OutOfRangeError{Offset: off + n, Len: len(s.data)}
	}
	return s.data[off : off+n], nil
}

// FrameAt maps an absolute stream offset back to the index of the frame
// that contains it. Binary search over the cumulative-offset table.
func (s *Stream) FrameAt(off int) (int, error) {
	if off < 0 || off >= len(s.data) {
		return 0, &OutOfRangeError{Offset: off, Len: len(s.data)}
	}
	// First frame whose start is strictly past off; the previous frame
	// contains the offset.
	i := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > off })
	return i - 1, nil
}

// Fingerprint returns a stable content-addressed identity for the stream:
// hex SHA-256 over a domain prefix, a null separator, and the raw bytes.
// Two captures of the same replay produce the same fingerprint regardless
// of where the frame files lived on disk.
func (s *Stream) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00})
	h.Write(s.data)
	return hex.EncodeToString(h.Sum(nil))
}

// Find returns the offset of the first occurrence of marker at or after
// from, or -1 if the marker does not occur again.
func (s *Stream) Find(marker []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(s.data) || len(marker) == 0 {
		return -1
	}
	i := bytes.Index(s.data[from:], marker)
	if i < 0 {
		return -1
	}
	return from + i
}
