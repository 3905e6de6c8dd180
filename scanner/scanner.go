// Package scanner implements the chunk-boundary-tolerant driver atop
// dispatch.Dispatcher: it owns the unconsumed-bytes buffer, accepts
// chunks from the outside, repeatedly feeds the dispatcher, and
// preserves any trailing unparsed bytes for the next chunk. Grounded
// on the teacher's bufio.Reader-driven ParseRdb.start loop, here made
// explicit as a pull-based (buffer, position) state object per spec
// §4.6.
package scanner

import (
	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/dispatch"
	"github.com/kelpwave/rdbscan/rdberr"
	"github.com/kelpwave/rdbscan/rdbrec"
)

// ChunkScanner turns an arbitrarily chunked byte stream into a record
// sequence. It is not safe for concurrent use.
type ChunkScanner struct {
	buf        []byte
	dispatcher *dispatch.Dispatcher
	eof        bool
}

// New builds a ChunkScanner over the given Dispatcher.
func New(dispatcher *dispatch.Dispatcher) *ChunkScanner {
	return &ChunkScanner{dispatcher: dispatcher}
}

// Push appends chunk to the internal buffer and decodes as many
// complete records as it now contains. It returns the records decoded
// from this call; any bytes past the last complete record remain
// buffered for the next Push or Finish.
func (s *ChunkScanner) Push(chunk []byte) ([]*rdbrec.Record, error) {
	if s.eof {
		return nil, nil
	}
	s.buf = append(s.buf, chunk...)

	var out []*rdbrec.Record
	cur := cursor.New(s.buf)
	for {
		rec, err := s.dispatcher.Next(cur)
		if err == rdberr.ErrIncomplete {
			break
		}
		if err != nil {
			s.buf = s.buf[cur.Pos():]
			return out, err
		}
		out = append(out, rec)
		if rec.Kind == rdbrec.KindEof {
			s.eof = true
			break
		}
	}
	s.buf = s.buf[cur.Pos():]
	return out, nil
}

// Finish signals that the upstream byte source has ended. It returns
// nil if Eof was already seen or no unparsed bytes remain buffered, and
// otherwise a *rdberr.Truncated carrying the leftover unparsed bytes.
func (s *ChunkScanner) Finish() error {
	if s.eof {
		return nil
	}
	if len(s.buf) == 0 {
		return nil
	}
	return &rdberr.Truncated{Leftover: s.buf}
}
