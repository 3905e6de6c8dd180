// Package strcodec decodes a Redis-encoded string: raw bytes of a
// declared length, a signed 8/16/32-bit integer, or an LZF-compressed
// payload. Grounded on the teacher's rdb/parser.go loadString plus
// loadUint16/loadUint32/loadLZF, generalized onto cursor.Cursor and the
// injected lzf.Decompressor collaborator.
package strcodec

import (
	"encoding/binary"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/length"
	"github.com/kelpwave/rdbscan/lzf"
	"github.com/kelpwave/rdbscan/rdberr"
)

// Special sub-tags carried in the low 6 bits of a "special" length
// prefix (spec §4.2).
const (
	encInt8  = 0
	encInt16 = 1
	encInt32 = 2
	encLZF   = 3
)

// Value is the decoded result: either raw Bytes or a signed Integer.
// Exactly one of the two is meaningful, selected by IsInt.
type Value struct {
	Bytes []byte
	Int   int64
	IsInt bool
}

// Decode reads one Redis string from cur using decompressor for the
// LZF sub-encoding. Returns rdberr.ErrIncomplete, unmutated, if cur
// does not yet hold a full unit.
func Decode(cur *cursor.Cursor, decompressor lzf.Decompressor) (Value, error) {
	mark := cur.Mark()
	res, err := length.Decode(cur)
	if err != nil {
		return Value{}, err
	}

	if !res.Special {
		b, err := cur.Slice(int(res.Value))
		if err != nil {
			cur.Reset(mark)
			return Value{}, err
		}
		return Value{Bytes: b}, nil
	}

	switch res.SpecialTag {
	case encInt8:
		b, err := cur.ReadByte()
		if err != nil {
			cur.Reset(mark)
			return Value{}, err
		}
		return Value{Int: int64(int8(b)), IsInt: true}, nil
	case encInt16:
		b, err := cur.Slice(2)
		if err != nil {
			cur.Reset(mark)
			return Value{}, err
		}
		return Value{Int: int64(int16(binary.LittleEndian.Uint16(b))), IsInt: true}, nil
	case encInt32:
		b, err := cur.Slice(4)
		if err != nil {
			cur.Reset(mark)
			return Value{}, err
		}
		return Value{Int: int64(int32(binary.LittleEndian.Uint32(b))), IsInt: true}, nil
	case encLZF:
		compLen, err := length.Decode(cur)
		if err != nil {
			cur.Reset(mark)
			return Value{}, err
		}
		rawLen, err := length.Decode(cur)
		if err != nil {
			cur.Reset(mark)
			return Value{}, err
		}
		payload, err := cur.Slice(int(compLen.Value))
		if err != nil {
			cur.Reset(mark)
			return Value{}, err
		}
		out, err := decompressor.Decompress(payload, int(rawLen.Value))
		if err != nil {
			return Value{}, rdberr.WrapMalformed("lzf decompression failed", err)
		}
		return Value{Bytes: out}, nil
	default:
		cur.Reset(mark)
		return Value{}, rdberr.NewMalformed("unknown string special encoding")
	}
}
