// Package length decodes the RDB bit-packed length prefix: a pure
// function from a byte cursor to either a plain length, a "special"
// string-encoding tag, or rdberr.ErrIncomplete. Grounded on the
// teacher's rdb/parser.go loadLen, generalized from a blocking
// bufio.Reader read to the incremental cursor.Cursor.
package length

import (
	"encoding/binary"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/rdberr"
)

// Top two bits of the first length byte.
const (
	tag6Bit  = 0x00
	tag14Bit = 0x01
	tag32Or64 = 0x02
	tagSpecial = 0x03
)

const (
	len32Marker = 0x80 // full first byte when the 32-bit form is selected
	len64Marker = 0x81 // full first byte when the 64-bit form is selected
)

// Result is the outcome of decoding one length prefix: either a plain
// length or, when Special is true, a marker telling StringCodec to
// interpret SpecialTag as an integer-or-compressed sub-encoding
// instead of a length.
type Result struct {
	Value      uint64
	Special    bool
	SpecialTag byte
}

// Decode reads one length prefix from cur. It never mutates cur's
// position when it returns an error.
func Decode(cur *cursor.Cursor) (Result, error) {
	mark := cur.Mark()
	first, err := cur.ReadByte()
	if err != nil {
		return Result{}, err
	}

	top := (first & 0xc0) >> 6
	switch top {
	case tagSpecial:
		return Result{Special: true, SpecialTag: first & 0x3f}, nil
	case tag6Bit:
		return Result{Value: uint64(first & 0x3f)}, nil
	case tag14Bit:
		next, err := cur.ReadByte()
		if err != nil {
			cur.Reset(mark)
			return Result{}, err
		}
		return Result{Value: uint64(first&0x3f)<<8 | uint64(next)}, nil
	case tag32Or64:
		if first == len32Marker {
			b, err := cur.Slice(4)
			if err != nil {
				cur.Reset(mark)
				return Result{}, err
			}
			return Result{Value: uint64(binary.LittleEndian.Uint32(b))}, nil
		}
		if first == len64Marker {
			b, err := cur.Slice(8)
			if err != nil {
				cur.Reset(mark)
				return Result{}, err
			}
			return Result{Value: binary.LittleEndian.Uint64(b)}, nil
		}
		cur.Reset(mark)
		return Result{}, rdberr.WrapMalformed("unknown 0x10-class length prefix", nil)
	}

	// unreachable: top is masked to 2 bits
	return Result{}, rdberr.NewMalformed("unreachable length tag")
}

// DecodeShort reads the restricted 6/14/32-bit length form used inside
// a ziplist entry's string length prefix (no 64-bit form, no special
// marker — see spec §4.3).
func DecodeShort(cur *cursor.Cursor) (uint64, error) {
	mark := cur.Mark()
	first, err := cur.ReadByte()
	if err != nil {
		return 0, err
	}
	top := (first & 0xc0) >> 6
	switch top {
	case tag6Bit:
		return uint64(first & 0x3f), nil
	case tag14Bit:
		next, err := cur.ReadByte()
		if err != nil {
			cur.Reset(mark)
			return 0, err
		}
		return uint64(first&0x3f)<<8 | uint64(next), nil
	case tag32Or64:
		b, err := cur.Slice(4)
		if err != nil {
			cur.Reset(mark)
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(b)), nil
	default:
		cur.Reset(mark)
		return 0, rdberr.WrapMalformed("unexpected special tag in ziplist string length", nil)
	}
}
