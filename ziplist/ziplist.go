// Package ziplist parses a complete, already-materialized ziplist
// buffer into an ordered sequence of string-or-integer entries.
// Grounded on the teacher's rdb/utils.go (loadZiplistLength,
// loadZiplistEntry) and rdb/list.go's loadZipList, restructured around
// a plain []byte rather than the teacher's seekable *input, since a
// ziplist is always fully buffered before it is parsed (spec §4.3: "the
// ziplist buffer is always fully materialized before parsing").
package ziplist

import (
	"encoding/binary"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/length"
	"github.com/kelpwave/rdbscan/rdberr"
)

// Entry encoding bytes (spec §4.3).
const (
	encInt8Tag  = 0xfe
	encInt16Tag = 0xc0
	encInt24Tag = 0xf0
	encInt32Tag = 0xd0
	encInt64Tag = 0xe0

	bigPrevLen = 0xfe
)

// Entry is one decoded ziplist element: either a raw byte string or a
// signed integer.
type Entry struct {
	Bytes []byte
	Int   int64
	IsInt bool
}

// header is the fixed 10-byte ziplist preamble: total_bytes, tail_offset,
// num_entries.
type header struct {
	totalBytes uint32
	tailOffset uint32
	numEntries uint16
}

func readHeader(cur *cursor.Cursor) (header, error) {
	b, err := cur.Slice(10)
	if err != nil {
		return header{}, rdberr.WrapMalformed("truncated ziplist header", err)
	}
	return header{
		totalBytes: binary.LittleEndian.Uint32(b[0:4]),
		tailOffset: binary.LittleEndian.Uint32(b[4:8]),
		numEntries: binary.LittleEndian.Uint16(b[8:10]),
	}, nil
}

// Parse decodes every entry in a complete ziplist buffer, in file
// order, stopping at the 0xFF sentinel. A malformed ziplist (bad
// header, an entry whose encoding byte is unrecognized, or a missing
// sentinel) is a terminal error for this ziplist, never Incomplete —
// the whole buffer is already in hand.
func Parse(buf []byte) ([]Entry, error) {
	cur := cursor.New(buf)
	hdr, err := readHeader(cur)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, hdr.numEntries)
	for {
		b, err := cur.PeekByte()
		if err != nil {
			return nil, rdberr.NewMalformed("ziplist ended without 0xFF sentinel")
		}
		if b == 0xff {
			cur.Skip(1)
			break
		}
		entry, err := readEntry(cur)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func readEntry(cur *cursor.Cursor) (Entry, error) {
	prevLen, err := cur.ReadByte()
	if err != nil {
		return Entry{}, rdberr.WrapMalformed("truncated ziplist entry prevlen", err)
	}
	if prevLen == bigPrevLen {
		if err := cur.Skip(4); err != nil {
			return Entry{}, rdberr.WrapMalformed("truncated ziplist entry prevlen", err)
		}
	}

	enc, err := cur.ReadByte()
	if err != nil {
		return Entry{}, rdberr.WrapMalformed("truncated ziplist entry encoding byte", err)
	}

	switch {
	case enc == encInt8Tag:
		b, err := cur.ReadByte()
		if err != nil {
			return Entry{}, rdberr.WrapMalformed("truncated ziplist int8", err)
		}
		return Entry{Int: int64(int8(b)), IsInt: true}, nil
	case enc == encInt16Tag:
		b, err := cur.Slice(2)
		if err != nil {
			return Entry{}, rdberr.WrapMalformed("truncated ziplist int16", err)
		}
		return Entry{Int: int64(int16(binary.LittleEndian.Uint16(b))), IsInt: true}, nil
	case enc == encInt24Tag:
		b, err := cur.Slice(3)
		if err != nil {
			return Entry{}, rdberr.WrapMalformed("truncated ziplist int24", err)
		}
		var padded [4]byte
		copy(padded[1:], b)
		v := int32(binary.LittleEndian.Uint32(padded[:])) >> 8
		return Entry{Int: int64(v), IsInt: true}, nil
	case enc == encInt32Tag:
		b, err := cur.Slice(4)
		if err != nil {
			return Entry{}, rdberr.WrapMalformed("truncated ziplist int32", err)
		}
		return Entry{Int: int64(int32(binary.LittleEndian.Uint32(b))), IsInt: true}, nil
	case enc == encInt64Tag:
		b, err := cur.Slice(8)
		if err != nil {
			return Entry{}, rdberr.WrapMalformed("truncated ziplist int64", err)
		}
		return Entry{Int: int64(binary.LittleEndian.Uint64(b)), IsInt: true}, nil
	case enc>>4 == 0xf && enc&0x0f >= 1 && enc&0x0f <= 13:
		return Entry{Int: int64(enc&0x0f) - 1, IsInt: true}, nil
	case enc>>6 <= 2: // 00/01/10xxxxxx: string length, same codec LengthCodec uses
		cur.Reset(cur.Mark() - 1) // rewind onto the encoding byte, it doubles as the length prefix's first byte
		n, err := length.DecodeShort(cur)
		if err != nil {
			return Entry{}, rdberr.WrapMalformed("truncated ziplist string length", err)
		}
		b, err := cur.Slice(int(n))
		if err != nil {
			return Entry{}, rdberr.WrapMalformed("truncated ziplist string", err)
		}
		return Entry{Bytes: b}, nil
	default:
		return Entry{}, rdberr.NewMalformed("unknown ziplist entry encoding byte")
	}
}
