package collection

import (
	"encoding/binary"
	"strconv"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/rdberr"
)

// readListPackEntry reads one element of a listpack buffer, returning
// its decoded ASCII form (listpack integers carry no byte-width
// distinction once decoded, so a string is enough for every stream
// field, value and control value that packs into one). Grounded on
// the teacher's rdb/stream.go loadStreamListPackEntry.
func readListPackEntry(buf *cursor.Cursor) ([]byte, error) {
	special, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}

	var res []byte
	var skip int
	switch {
	case special&0x80 == 0:
		skip = 1
		res = []byte(strconv.FormatInt(int64(special&0x7F), 10))
	case special&0xC0 == 0x80:
		length := int(special & 0x3F)
		skip = 1 + length
		res, err = buf.Slice(length)
		if err != nil {
			return nil, err
		}
	case special&0xE0 == 0xC0:
		skip = 2
		next, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		res = []byte(strconv.FormatInt(int64(int32(uint32(special&0x1F)<<8|uint32(next))<<19>>19), 10))
	case special == 0xF1:
		skip = 3
		b, err := buf.Slice(2)
		if err != nil {
			return nil, err
		}
		res = []byte(strconv.FormatInt(int64(int16(binary.LittleEndian.Uint16(b))), 10))
	case special == 0xF2:
		skip = 4
		b, err := buf.Slice(3)
		if err != nil {
			return nil, err
		}
		padded := []byte{b[0], b[1], b[2], 0}
		res = []byte(strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(padded))<<8>>8), 10))
	case special == 0xF3:
		skip = 5
		b, err := buf.Slice(4)
		if err != nil {
			return nil, err
		}
		res = []byte(strconv.FormatInt(int64(int32(binary.LittleEndian.Uint32(b))), 10))
	case special == 0xF4:
		skip = 9
		b, err := buf.Slice(8)
		if err != nil {
			return nil, err
		}
		res = []byte(strconv.FormatInt(int64(binary.LittleEndian.Uint64(b)), 10))
	case special&0xF0 == 0xE0:
		b, err := buf.ReadByte()
		if err != nil {
			return nil, err
		}
		length := int(special&0x0F)<<8 | int(b)
		skip = 2 + length
		res, err = buf.Slice(length)
		if err != nil {
			return nil, err
		}
	case special == 0xF0:
		b, err := buf.Slice(4)
		if err != nil {
			return nil, err
		}
		length := int(binary.BigEndian.Uint32(b))
		skip = 5 + length
		res, err = buf.Slice(length)
		if err != nil {
			return nil, err
		}
	default:
		return nil, rdberr.NewMalformed("unknown listpack entry encoding")
	}

	// trailing backlen: a variable-width encoding of this entry's total
	// byte length, used only for reverse traversal; we only need to
	// skip the right number of bytes for it.
	var backlenWidth int
	switch {
	case skip <= 127:
		backlenWidth = 1
	case skip < 16383:
		backlenWidth = 2
	case skip < 2097151:
		backlenWidth = 3
	case skip < 268435455:
		backlenWidth = 4
	default:
		backlenWidth = 5
	}
	if err := buf.Skip(backlenWidth); err != nil {
		return nil, err
	}
	return res, nil
}
