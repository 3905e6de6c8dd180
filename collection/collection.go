// Package collection decodes the length-prefixed element sequences for
// plain sets, lists, hashes, and the compact intset/ziplist/quicklist/
// zipmap representations layered on top of them, plus the sorted-set
// and stream supplements described in SPEC_FULL.md §5. Grounded on the
// teacher's rdb/list.go, rdb/set.go, rdb/hashmap.go, rdb/zset.go and
// rdb/stream.go, generalized from a blocking *bufio.Reader onto
// cursor.Cursor so a caller-visible ErrIncomplete anywhere inside a
// collection bubbles straight up to the dispatcher, which rewinds the
// whole unit (spec §4.5's snapshot/restore rule) rather than leaving a
// collection half-applied.
package collection

import (
	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/length"
	"github.com/kelpwave/rdbscan/lzf"
	"github.com/kelpwave/rdbscan/rdbrec"
	"github.com/kelpwave/rdbscan/strcodec"
	"github.com/kelpwave/rdbscan/ziplist"
)

func readElement(cur *cursor.Cursor, dec lzf.Decompressor) (rdbrec.Element, error) {
	v, err := strcodec.Decode(cur, dec)
	if err != nil {
		return rdbrec.Element{}, err
	}
	if v.IsInt {
		return rdbrec.IntElement(v.Int), nil
	}
	return rdbrec.BytesElement(v.Bytes), nil
}

func elementFromZiplist(e ziplist.Entry) rdbrec.Element {
	if e.IsInt {
		return rdbrec.IntElement(e.Int)
	}
	return rdbrec.BytesElement(e.Bytes)
}

// readRawZiplist reads a string-encoded ziplist buffer and parses it.
// The string read either returns the whole buffer or ErrIncomplete;
// there is no partially-read ziplist for Parse to choke on.
func readRawZiplist(cur *cursor.Cursor, dec lzf.Decompressor) ([]ziplist.Entry, error) {
	v, err := strcodec.Decode(cur, dec)
	if err != nil {
		return nil, err
	}
	return ziplist.Parse(v.Bytes)
}

// ReadList decodes a plain length-prefixed list (spec §4.4).
func ReadList(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.Element, error) {
	n, err := length.Decode(cur)
	if err != nil {
		return nil, err
	}
	out := make([]rdbrec.Element, 0, n.Value)
	for i := uint64(0); i < n.Value; i++ {
		el, err := readElement(cur, dec)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

// ReadSet decodes a plain length-prefixed set, deduplicating members;
// RDB sources never emit duplicates, so this is a defensive dedup
// rather than a semantic requirement (spec §4.4).
func ReadSet(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.Element, error) {
	n, err := length.Decode(cur)
	if err != nil {
		return nil, err
	}
	out := make([]rdbrec.Element, 0, n.Value)
	seen := make(map[string]struct{}, n.Value)
	for i := uint64(0); i < n.Value; i++ {
		el, err := readElement(cur, dec)
		if err != nil {
			return nil, err
		}
		key := el.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, el)
	}
	return out, nil
}

// ReadHash decodes a plain length-prefixed hash: 2N strings alternating
// field/value; a repeated field overwrites its earlier value in the
// emitted order (spec §4.4).
func ReadHash(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.HashField, error) {
	n, err := length.Decode(cur)
	if err != nil {
		return nil, err
	}
	out := make([]rdbrec.HashField, 0, n.Value)
	index := make(map[string]int, n.Value)
	for i := uint64(0); i < n.Value; i++ {
		field, err := readElement(cur, dec)
		if err != nil {
			return nil, err
		}
		value, err := readElement(cur, dec)
		if err != nil {
			return nil, err
		}
		key := field.String()
		if idx, dup := index[key]; dup {
			out[idx].Value = value
			continue
		}
		index[key] = len(out)
		out = append(out, rdbrec.HashField{Field: field, Value: value})
	}
	return out, nil
}

// ReadZiplistList reads a string-encoded ziplist and returns its
// entries as an ordered list (spec §4.4).
func ReadZiplistList(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.Element, error) {
	entries, err := readRawZiplist(cur, dec)
	if err != nil {
		return nil, err
	}
	out := make([]rdbrec.Element, len(entries))
	for i, e := range entries {
		out[i] = elementFromZiplist(e)
	}
	return out, nil
}

// ReadZiplistHash reads a string-encoded ziplist and pairs up
// consecutive entries into field/value pairs (spec §4.4).
func ReadZiplistHash(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.HashField, error) {
	entries, err := readRawZiplist(cur, dec)
	if err != nil {
		return nil, err
	}
	out := make([]rdbrec.HashField, 0, len(entries)/2)
	for i := 0; i+1 < len(entries); i += 2 {
		out = append(out, rdbrec.HashField{
			Field: elementFromZiplist(entries[i]),
			Value: elementFromZiplist(entries[i+1]),
		})
	}
	return out, nil
}

// ReadQuicklist reads Z string-encoded ziplist buffers and concatenates
// their entries in order into a single list (spec §4.4).
func ReadQuicklist(cur *cursor.Cursor, dec lzf.Decompressor) ([]rdbrec.Element, error) {
	n, err := length.Decode(cur)
	if err != nil {
		return nil, err
	}
	var out []rdbrec.Element
	for i := uint64(0); i < n.Value; i++ {
		entries, err := readRawZiplist(cur, dec)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out = append(out, elementFromZiplist(e))
		}
	}
	return out, nil
}
