// Package rdberr defines the three error kinds the decoder can produce:
// an internal incomplete-unit sentinel, and the two terminal kinds
// (malformed input, truncated stream) that can surface to callers.
package rdberr

import (
	"errors"
	"strconv"
)

// ErrIncomplete signals that a unit could not be decoded because the
// cursor ran out of bytes before the unit's declared length. It never
// surfaces to a caller of ChunkScanner: the scanner catches it, restores
// the buffer to the position before the failed unit, and waits for more
// bytes.
var ErrIncomplete = errors.New("rdbscan: incomplete unit")

// Malformed is a terminal error raised when the input violates the wire
// format: a declared length that disagrees with the data it bounds, an
// unknown opcode outside the recoverable range, a missing file header,
// or an LZF payload that fails to decompress.
type Malformed struct {
	Reason string
	Err    error
}

func (e *Malformed) Error() string {
	if e.Err != nil {
		return "rdbscan: malformed input: " + e.Reason + ": " + e.Err.Error()
	}
	return "rdbscan: malformed input: " + e.Reason
}

func (e *Malformed) Unwrap() error { return e.Err }

// NewMalformed builds a Malformed error with no wrapped cause.
func NewMalformed(reason string) error {
	return &Malformed{Reason: reason}
}

// WrapMalformed builds a Malformed error wrapping a lower-level cause.
func WrapMalformed(reason string, err error) error {
	return &Malformed{Reason: reason, Err: err}
}

// Truncated is a terminal error raised when the upstream byte source
// ends before an Eof record was produced. Leftover carries whatever
// bytes were still buffered at that point, for diagnostics; it is never
// empty, since a stream that ends exactly on a record boundary is not
// reported as truncated.
type Truncated struct {
	Leftover []byte
}

func (e *Truncated) Error() string {
	return "rdbscan: truncated stream, no EOF record seen, leftover bytes: " + strconv.Itoa(len(e.Leftover))
}
