package length

import (
	"testing"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/rdberr"
)

func TestDecode6Bit(t *testing.T) {
	cur := cursor.New([]byte{0x2a})
	res, err := Decode(cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Special || res.Value != 0x2a {
		t.Fatalf("got %+v", res)
	}
	if cur.Pos() != 1 {
		t.Fatalf("expected cursor to advance by 1, got %d", cur.Pos())
	}
}

func TestDecode14Bit(t *testing.T) {
	// top bits 01, low 6 of first byte = 0x01, second byte = 0xff -> 0x1ff
	cur := cursor.New([]byte{0x41, 0xff})
	res, err := Decode(cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value != 0x1ff {
		t.Fatalf("got %d, want %d", res.Value, 0x1ff)
	}
}

func TestDecode32Bit(t *testing.T) {
	cur := cursor.New([]byte{0x80, 0x01, 0x00, 0x00, 0x00})
	res, err := Decode(cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value != 1 {
		t.Fatalf("got %d, want 1 (little-endian)", res.Value)
	}
}

func TestDecode64Bit(t *testing.T) {
	cur := cursor.New([]byte{0x81, 0x02, 0, 0, 0, 0, 0, 0, 0})
	res, err := Decode(cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value != 2 {
		t.Fatalf("got %d, want 2", res.Value)
	}
}

func TestDecodeSpecial(t *testing.T) {
	cur := cursor.New([]byte{0xc3}) // 11 top bits, low6 = 3 (LZF tag)
	res, err := Decode(cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Special || res.SpecialTag != 3 {
		t.Fatalf("got %+v", res)
	}
}

func TestDecodeIncompletePreservesPosition(t *testing.T) {
	cur := cursor.New([]byte{0x41}) // 14-bit form needs a second byte
	_, err := Decode(cur)
	if err != rdberr.ErrIncomplete {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if cur.Pos() != 0 {
		t.Fatalf("expected cursor untouched on incomplete, got pos %d", cur.Pos())
	}
}

func TestDecodeEmptyIsIncomplete(t *testing.T) {
	cur := cursor.New(nil)
	_, err := Decode(cur)
	if err != rdberr.ErrIncomplete {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}
