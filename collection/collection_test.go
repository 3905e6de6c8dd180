package collection

import (
	"testing"

	"github.com/kelpwave/rdbscan/cursor"
)

func strElement(s string) []byte {
	return append(encodeLen(len(s)), []byte(s)...)
}

func TestReadListPreservesOrder(t *testing.T) {
	var data []byte
	data = append(data, encodeLen(3)...)
	data = append(data, strElement("a")...)
	data = append(data, strElement("b")...)
	data = append(data, strElement("c")...)

	cur := cursor.New(data)
	els, err := ReadList(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(els) != 3 || els[0].String() != "a" || els[1].String() != "b" || els[2].String() != "c" {
		t.Fatalf("got %+v", els)
	}
}

func TestReadSetDeduplicates(t *testing.T) {
	var data []byte
	data = append(data, encodeLen(3)...)
	data = append(data, strElement("x")...)
	data = append(data, strElement("x")...)
	data = append(data, strElement("y")...)

	cur := cursor.New(data)
	els, err := ReadSet(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(els) != 2 {
		t.Fatalf("got %d members, want 2 after dedup: %+v", len(els), els)
	}
}

func TestReadHashOverwritesDuplicateField(t *testing.T) {
	var data []byte
	data = append(data, encodeLen(2)...)
	data = append(data, strElement("f")...)
	data = append(data, strElement("v1")...)
	data = append(data, strElement("f")...)
	data = append(data, strElement("v2")...)

	cur := cursor.New(data)
	fields, err := ReadHash(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 1 || fields[0].Value.String() != "v2" {
		t.Fatalf("got %+v", fields)
	}
}

// TestReadIntSet reproduces spec §8 scenario 4: a 3-element intset with
// 4-byte-wide elements {1, 2, 3}.
func TestReadIntSet(t *testing.T) {
	payload := []byte{
		0x04, 0x00, 0x00, 0x00, // width = 4
		0x03, 0x00, 0x00, 0x00, // count = 3
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
		0x03, 0x00, 0x00, 0x00,
	}
	var data []byte
	data = append(data, encodeLen(len(payload))...)
	data = append(data, payload...)

	cur := cursor.New(data)
	els, err := ReadIntSet(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(els) != 3 || els[0].Int != 1 || els[1].Int != 2 || els[2].Int != 3 {
		t.Fatalf("got %+v", els)
	}
}

func TestReadIntSetRejectsLengthMismatch(t *testing.T) {
	payload := []byte{
		0x04, 0x00, 0x00, 0x00, // width = 4
		0x05, 0x00, 0x00, 0x00, // count = 5, but only 2 elements follow
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00,
	}
	var data []byte
	data = append(data, encodeLen(len(payload))...)
	data = append(data, payload...)

	cur := cursor.New(data)
	if _, err := ReadIntSet(cur, fakeLZF{}); err == nil {
		t.Fatal("expected a malformed error")
	}
}

func TestReadZiplistListAndHash(t *testing.T) {
	zl := buildTestZiplist([][]byte{zlStrEntry("k1"), zlStrEntry("v1")})
	var data []byte
	data = append(data, encodeLen(len(zl))...)
	data = append(data, zl...)

	cur := cursor.New(data)
	els, err := ReadZiplistList(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(els) != 2 || els[0].String() != "k1" || els[1].String() != "v1" {
		t.Fatalf("got %+v", els)
	}

	cur2 := cursor.New(data)
	fields, err := ReadZiplistHash(cur2, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 1 || fields[0].Field.String() != "k1" || fields[0].Value.String() != "v1" {
		t.Fatalf("got %+v", fields)
	}
}

// TestReadQuicklistConcatenatesZiplists exercises spec §4.4/§8: a
// quicklist is a length-prefixed sequence of ziplist buffers whose
// entries concatenate, in order, into a single list.
func TestReadQuicklistConcatenatesZiplists(t *testing.T) {
	zl1 := buildTestZiplist([][]byte{zlStrEntry("a"), zlStrEntry("b")})
	zl2 := buildTestZiplist([][]byte{zlStrEntry("c")})

	var data []byte
	data = append(data, encodeLen(2)...) // 2 ziplist buffers
	data = append(data, encodeLen(len(zl1))...)
	data = append(data, zl1...)
	data = append(data, encodeLen(len(zl2))...)
	data = append(data, zl2...)

	cur := cursor.New(data)
	els, err := ReadQuicklist(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(els) != 3 || els[0].String() != "a" || els[1].String() != "b" || els[2].String() != "c" {
		t.Fatalf("got %+v", els)
	}
}

func buildTestZipmap(pairs [][2]string) []byte {
	buf := []byte{0} // leading length byte, unused past 254
	for _, p := range pairs {
		buf = append(buf, byte(len(p[0])))
		buf = append(buf, []byte(p[0])...)
		buf = append(buf, byte(len(p[1])), 0) // value length + free byte
		buf = append(buf, []byte(p[1])...)
	}
	buf = append(buf, 255)
	return buf
}

func TestReadZipmapHash(t *testing.T) {
	zm := buildTestZipmap([][2]string{{"field1", "value1"}, {"field2", "value2"}})
	var data []byte
	data = append(data, encodeLen(len(zm))...)
	data = append(data, zm...)

	cur := cursor.New(data)
	fields, err := ReadZipmapHash(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("got %d fields: %+v", len(fields), fields)
	}
	if fields[0].Field.String() != "field1" || fields[0].Value.String() != "value1" {
		t.Fatalf("got %+v", fields[0])
	}
	if fields[1].Field.String() != "field2" || fields[1].Value.String() != "value2" {
		t.Fatalf("got %+v", fields[1])
	}
}

func TestReadQuicklistIncompleteBubblesUp(t *testing.T) {
	zl1 := buildTestZiplist([][]byte{zlStrEntry("a")})
	var data []byte
	data = append(data, encodeLen(2)...) // declares 2 buffers, only 1 present
	data = append(data, encodeLen(len(zl1))...)
	data = append(data, zl1...)

	cur := cursor.New(data)
	if _, err := ReadQuicklist(cur, fakeLZF{}); err == nil {
		t.Fatal("expected an error for a truncated quicklist")
	}
}
