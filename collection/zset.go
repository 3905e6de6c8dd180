package collection

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/length"
	"github.com/kelpwave/rdbscan/lzf"
	"github.com/kelpwave/rdbscan/rdberr"
	"github.com/kelpwave/rdbscan/rdbrec"
)

// ReadZSet decodes a plain sorted set (spec §9 supplement). When
// binaryScore is true (the ZSET_2 type) scores are 8-byte IEEE-754
// doubles; otherwise they are length-prefixed ASCII (with 253/254/255
// sentinels for NaN/+Inf/-Inf), per the teacher's rdb/zset.go
// readZSet, loadFloat and loadBinaryFloat.
func ReadZSet(cur *cursor.Cursor, dec lzf.Decompressor, binaryScore bool) ([]rdbrec.ZSetMember, error) {
	n, err := length.Decode(cur)
	if err != nil {
		return nil, err
	}
	out := make([]rdbrec.ZSetMember, 0, n.Value)
	for i := uint64(0); i < n.Value; i++ {
		member, err := readElement(cur, dec)
		if err != nil {
			return nil, err
		}
		var score float64
		if binaryScore {
			score, err = readBinaryFloat(cur)
		} else {
			score, err = readAsciiFloat(cur)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rdbrec.ZSetMember{Member: member, Score: score})
	}
	return out, nil
}

// ReadZiplistZSet reads a string-encoded ziplist of alternating
// member/score entries (the ZSET_ZIPLIST encoding).
func ReadZiplistZSet(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.ZSetMember, error) {
	entries, err := readRawZiplist(cur, dec)
	if err != nil {
		return nil, err
	}
	if len(entries)%2 != 0 {
		return nil, rdberr.NewMalformed("zset ziplist has an odd number of entries")
	}
	out := make([]rdbrec.ZSetMember, 0, len(entries)/2)
	for i := 0; i+1 < len(entries); i += 2 {
		member := elementFromZiplist(entries[i])
		scoreEntry := entries[i+1]
		var score float64
		if scoreEntry.IsInt {
			score = float64(scoreEntry.Int)
		} else {
			parsed, err := strconv.ParseFloat(string(scoreEntry.Bytes), 64)
			if err != nil {
				return nil, rdberr.WrapMalformed("zset ziplist score is not a float", err)
			}
			score = parsed
		}
		out = append(out, rdbrec.ZSetMember{Member: member, Score: score})
	}
	return out, nil
}

func readAsciiFloat(cur *cursor.Cursor) (float64, error) {
	n, err := cur.ReadByte()
	if err != nil {
		return 0, err
	}
	switch n {
	case 255:
		return math.Inf(-1), nil
	case 254:
		return math.Inf(1), nil
	case 253:
		return math.NaN(), nil
	}
	b, err := cur.Slice(int(n))
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, rdberr.WrapMalformed("zset score is not a float", err)
	}
	return f, nil
}

func readBinaryFloat(cur *cursor.Cursor) (float64, error) {
	b, err := cur.Slice(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}
