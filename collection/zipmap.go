package collection

import (
	"encoding/binary"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/lzf"
	"github.com/kelpwave/rdbscan/rdberr"
	"github.com/kelpwave/rdbscan/rdbrec"
	"github.com/kelpwave/rdbscan/strcodec"
)

// ReadZipmapHash decodes the legacy pre-ziplist zipmap hash encoding
// (spec §9 supplement; the teacher's rdb/hashmap.go
// readHashMapWithZipmap and rdb/utils.go's loadZipmapItem family,
// adapted onto a plain []byte buffer since, like a ziplist, a zipmap is
// always read out whole via the string codec before it is parsed).
func ReadZipmapHash(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.HashField, error) {
	v, err := strcodec.Decode(cur, dec)
	if err != nil {
		return nil, err
	}
	buf := cursor.New(v.Bytes)

	if _, err := buf.ReadByte(); err != nil { // leading length byte, unused past 254
		return nil, rdberr.WrapMalformed("truncated zipmap header", err)
	}

	var out []rdbrec.HashField
	for {
		fieldLen, fieldFree, err := zipmapItemLength(buf, false)
		if err != nil {
			return nil, err
		}
		if fieldLen == -1 {
			break
		}
		field, err := zipmapItem(buf, fieldLen, fieldFree)
		if err != nil {
			return nil, err
		}
		valueLen, valueFree, err := zipmapItemLength(buf, true)
		if err != nil {
			return nil, err
		}
		if valueLen == -1 {
			return nil, rdberr.NewMalformed("zipmap ended on a field with no value")
		}
		value, err := zipmapItem(buf, valueLen, valueFree)
		if err != nil {
			return nil, err
		}
		out = append(out, rdbrec.HashField{
			Field: rdbrec.BytesElement(field),
			Value: rdbrec.BytesElement(value),
		})
	}
	return out, nil
}

func zipmapItemLength(buf *cursor.Cursor, readFree bool) (length int, free int, err error) {
	b, err := buf.ReadByte()
	if err != nil {
		return 0, 0, rdberr.WrapMalformed("truncated zipmap entry", err)
	}
	switch b {
	case 253:
		s, err := buf.Slice(5)
		if err != nil {
			return 0, 0, rdberr.WrapMalformed("truncated zipmap long length", err)
		}
		return int(binary.BigEndian.Uint32(s)), int(s[4]), nil
	case 254:
		return 0, 0, rdberr.NewMalformed("invalid zipmap item length marker 254")
	case 255:
		return -1, 0, nil
	}
	if readFree {
		freeByte, err := buf.ReadByte()
		if err != nil {
			return 0, 0, rdberr.WrapMalformed("truncated zipmap free byte", err)
		}
		free = int(freeByte)
	}
	return int(b), free, nil
}

func zipmapItem(buf *cursor.Cursor, length, free int) ([]byte, error) {
	value, err := buf.Slice(length)
	if err != nil {
		return nil, rdberr.WrapMalformed("truncated zipmap item value", err)
	}
	if err := buf.Skip(free); err != nil {
		return nil, rdberr.WrapMalformed("truncated zipmap item free padding", err)
	}
	return value, nil
}
