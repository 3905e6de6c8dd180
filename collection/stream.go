package collection

import (
	"encoding/binary"
	"strconv"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/length"
	"github.com/kelpwave/rdbscan/lzf"
	"github.com/kelpwave/rdbscan/rdberr"
	"github.com/kelpwave/rdbscan/rdbrec"
	"github.com/kelpwave/rdbscan/strcodec"
)

const (
	streamItemFlagDeleted    = 1 << 0
	streamItemFlagSameFields = 1 << 1
)

// ReadStream decodes the listpack-backed stream encoding (spec §9
// supplement). It returns the decoded entries plus the stream's
// declared length and last ID; consumer groups are consumed (so the
// cursor lands correctly past them) but not surfaced, since nothing in
// the record model currently exposes group/consumer/PEL state.
// Grounded on the teacher's rdb/stream.go loadStreamListPack.
func ReadStream(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.StreamEntry, uint64, string, error) {
	entries, err := readStreamEntries(cur, dec)
	if err != nil {
		return nil, 0, "", err
	}

	streamLen, err := decodeLen(cur)
	if err != nil {
		return nil, 0, "", err
	}
	ms, err := decodeLen(cur)
	if err != nil {
		return nil, 0, "", err
	}
	seq, err := decodeLen(cur)
	if err != nil {
		return nil, 0, "", err
	}
	lastID := formatStreamID(ms, seq)

	if err := skipStreamGroups(cur, dec); err != nil {
		return nil, 0, "", err
	}

	return entries, streamLen, lastID, nil
}

func formatStreamID(ms, seq uint64) string {
	return strconv.FormatUint(ms, 10) + "-" + strconv.FormatUint(seq, 10)
}

// decodeLen reads one LengthCodec value where the special-encoding tag
// is never expected (counts, IDs and deltas are always plain lengths).
func decodeLen(cur *cursor.Cursor) (uint64, error) {
	res, err := length.Decode(cur)
	if err != nil {
		return 0, err
	}
	if res.Special {
		return 0, rdberr.NewMalformed("unexpected special-encoded length in stream metadata")
	}
	return res.Value, nil
}

func readStreamEntries(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.StreamEntry, error) {
	count, err := decodeLen(cur)
	if err != nil {
		return nil, err
	}

	var out []rdbrec.StreamEntry
	for i := uint64(0); i < count; i++ {
		idBytes, err := strcodec.Decode(cur, dec)
		if err != nil {
			return nil, err
		}
		if len(idBytes.Bytes) < 16 {
			return nil, rdberr.NewMalformed("stream entry ID key shorter than 16 bytes")
		}
		baseMs := binary.BigEndian.Uint64(idBytes.Bytes[0:8])
		baseSeq := binary.BigEndian.Uint64(idBytes.Bytes[8:16])

		lpBytes, err := strcodec.Decode(cur, dec)
		if err != nil {
			return nil, err
		}
		lp := cursor.New(lpBytes.Bytes)
		if err := lp.Skip(6); err != nil { // 4-byte total-bytes + 2-byte num-elements header
			return nil, rdberr.WrapMalformed("truncated stream listpack header", err)
		}

		entries, err := readStreamListPackItems(lp, baseMs, baseSeq)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

func readStreamListPackItems(lp *cursor.Cursor, baseMs, baseSeq uint64) ([]rdbrec.StreamEntry, error) {
	countBytes, err := readListPackEntry(lp)
	if err != nil {
		return nil, err
	}
	count, _ := strconv.ParseUint(string(countBytes), 10, 64)

	deletedBytes, err := readListPackEntry(lp)
	if err != nil {
		return nil, err
	}
	deleted, _ := strconv.ParseUint(string(deletedBytes), 10, 64)

	fieldsNumBytes, err := readListPackEntry(lp)
	if err != nil {
		return nil, err
	}
	masterFieldsNum, _ := strconv.ParseUint(string(fieldsNumBytes), 10, 64)

	masterFields := make([][]byte, 0, masterFieldsNum)
	for i := uint64(0); i < masterFieldsNum; i++ {
		f, err := readListPackEntry(lp)
		if err != nil {
			return nil, err
		}
		masterFields = append(masterFields, f)
	}
	if _, err := readListPackEntry(lp); err != nil { // master entry terminator
		return nil, err
	}

	total := count + deleted
	out := make([]rdbrec.StreamEntry, 0, total)
	for i := uint64(0); i < total; i++ {
		flagBytes, err := readListPackEntry(lp)
		if err != nil {
			return nil, err
		}
		flag, _ := strconv.Atoi(string(flagBytes))

		msBytes, err := readListPackEntry(lp)
		if err != nil {
			return nil, err
		}
		seqBytes, err := readListPackEntry(lp)
		if err != nil {
			return nil, err
		}
		msDelta, _ := strconv.ParseInt(string(msBytes), 10, 64)
		seqDelta, _ := strconv.ParseInt(string(seqBytes), 10, 64)
		id := formatStreamID(baseMs+uint64(msDelta), baseSeq+uint64(seqDelta))

		fieldNames := masterFields
		if flag&streamItemFlagSameFields == 0 {
			fieldsNumBytes, err := readListPackEntry(lp)
			if err != nil {
				return nil, err
			}
			fieldsNum, _ := strconv.ParseUint(string(fieldsNumBytes), 10, 64)
			fieldNames = make([][]byte, 0, fieldsNum)
			for j := uint64(0); j < fieldsNum; j++ {
				f, err := readListPackEntry(lp)
				if err != nil {
					return nil, err
				}
				fieldNames = append(fieldNames, f)
			}
		}

		fields := make(map[string]string, len(fieldNames))
		for _, name := range fieldNames {
			v, err := readListPackEntry(lp)
			if err != nil {
				return nil, err
			}
			fields[string(name)] = string(v)
		}
		if _, err := readListPackEntry(lp); err != nil { // entry terminator (lp-count)
			return nil, err
		}

		out = append(out, rdbrec.StreamEntry{
			ID:      id,
			Deleted: flag&streamItemFlagDeleted != 0,
			Fields:  fields,
		})
	}

	if end, err := lp.ReadByte(); err != nil {
		return nil, err
	} else if end != 0xFF {
		return nil, rdberr.NewMalformed("stream listpack missing 0xFF terminator")
	}
	return out, nil
}

func skipStreamGroups(cur *cursor.Cursor, dec lzf.Decompressor) error {
	groupCount, err := decodeLen(cur)
	if err != nil {
		return err
	}
	for g := uint64(0); g < groupCount; g++ {
		if _, err := strcodec.Decode(cur, dec); err != nil { // group name
			return err
		}
		if _, err := decodeLen(cur); err != nil { // last-id ms
			return err
		}
		if _, err := decodeLen(cur); err != nil { // last-id seq
			return err
		}

		pelCount, err := decodeLen(cur)
		if err != nil {
			return err
		}
		for i := uint64(0); i < pelCount; i++ {
			if err := cur.Skip(16); err != nil { // raw ms+seq
				return rdberr.WrapMalformed("truncated stream group PEL entry", err)
			}
			if err := cur.Skip(8); err != nil { // delivery time
				return rdberr.WrapMalformed("truncated stream group PEL entry", err)
			}
			if _, err := decodeLen(cur); err != nil { // delivery count
				return err
			}
		}

		consumerCount, err := decodeLen(cur)
		if err != nil {
			return err
		}
		for i := uint64(0); i < consumerCount; i++ {
			if _, err := strcodec.Decode(cur, dec); err != nil { // consumer name
				return err
			}
			if err := cur.Skip(8); err != nil { // seen time
				return rdberr.WrapMalformed("truncated stream consumer", err)
			}
			consumerPel, err := decodeLen(cur)
			if err != nil {
				return err
			}
			if err := cur.Skip(int(consumerPel) * 16); err != nil {
				return rdberr.WrapMalformed("truncated stream consumer PEL", err)
			}
		}
	}
	return nil
}
