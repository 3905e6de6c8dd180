// Package cursor provides the byte-position primitive every codec in
// rdbscan decodes from. It is the incremental-parsing analogue of the
// teacher's rdb/input.go: a read-only view over a byte slice that
// tracks its own position and can be marked and rewound.
package cursor

import "github.com/kelpwave/rdbscan/rdberr"

// Cursor is a read-only, position-tracking view over a byte slice. It
// never grows or copies its backing slice; callers that need to retain
// bytes beyond the cursor's lifetime must copy them (Slice already
// returns a copy, for exactly this reason: the backing slice may be
// replaced by the caller once decoding moves past it).
type Cursor struct {
	data []byte
	pos  int
}

// New wraps data for decoding starting at position 0.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Mark returns the current position, to be passed to Reset later.
func (c *Cursor) Mark() int { return c.pos }

// Reset rewinds the cursor to a position previously returned by Mark.
func (c *Cursor) Reset(mark int) { c.pos = mark }

// Pos returns the current position.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// ReadByte consumes and returns the next byte, or rdberr.ErrIncomplete
// if the cursor is exhausted.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, rdberr.ErrIncomplete
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (c *Cursor) PeekByte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, rdberr.ErrIncomplete
	}
	return c.data[c.pos], nil
}

// Slice consumes and returns a copy of the next n bytes, or
// rdberr.ErrIncomplete if fewer than n bytes remain. The cursor's
// position is left unchanged when an error is returned.
func (c *Cursor) Slice(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, rdberr.ErrIncomplete
	}
	out := make([]byte, n)
	copy(out, c.data[c.pos:c.pos+n])
	c.pos += n
	return out, nil
}

// Skip advances the cursor by n bytes without copying, or returns
// rdberr.ErrIncomplete if fewer than n bytes remain.
func (c *Cursor) Skip(n int) error {
	if n < 0 || c.pos+n > len(c.data) {
		return rdberr.ErrIncomplete
	}
	c.pos += n
	return nil
}
