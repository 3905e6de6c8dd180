package collection

import (
	"encoding/binary"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/lzf"
	"github.com/kelpwave/rdbscan/rdberr"
	"github.com/kelpwave/rdbscan/rdbrec"
	"github.com/kelpwave/rdbscan/strcodec"
)

// ReadIntSet decodes the compact integer-only set encoding: a
// string-wrapped buffer whose own header declares the per-integer byte
// width and the element count (spec §4.4). Grounded on the teacher's
// rdb/set.go readIntSet.
func ReadIntSet(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.Element, error) {
	v, err := strcodec.Decode(cur, dec)
	if err != nil {
		return nil, err
	}
	buf := cursor.New(v.Bytes)

	widthBytes, err := buf.Slice(4)
	if err != nil {
		return nil, rdberr.WrapMalformed("truncated intset header", err)
	}
	width := binary.LittleEndian.Uint32(widthBytes)
	if width != 2 && width != 4 && width != 8 {
		return nil, rdberr.NewMalformed("unknown intset encoding width")
	}

	countBytes, err := buf.Slice(4)
	if err != nil {
		return nil, rdberr.WrapMalformed("truncated intset header", err)
	}
	count := binary.LittleEndian.Uint32(countBytes)

	if buf.Remaining() != int(count)*int(width) {
		return nil, rdberr.NewMalformed("intset declared length disagrees with its element count")
	}

	out := make([]rdbrec.Element, 0, count)
	for i := uint32(0); i < count; i++ {
		b, err := buf.Slice(int(width))
		if err != nil {
			return nil, rdberr.WrapMalformed("truncated intset element", err)
		}
		var n int64
		switch width {
		case 2:
			n = int64(int16(binary.LittleEndian.Uint16(b)))
		case 4:
			n = int64(int32(binary.LittleEndian.Uint32(b)))
		case 8:
			n = int64(binary.LittleEndian.Uint64(b))
		}
		out = append(out, rdbrec.IntElement(n))
	}
	return out, nil
}
