package strcodec

import (
	"bytes"
	"testing"

	"github.com/kelpwave/rdbscan/cursor"
	"github.com/kelpwave/rdbscan/rdberr"
)

// fakeLZF is a test-only stand-in for the external decompressor. It
// only needs to invert fakeLZFCompress below; production decompression
// goes through lzf.Golzf, not exercised here since that wraps a real
// external library.
type fakeLZF struct{}

func (fakeLZF) Decompress(compressed []byte, expectedLen int) ([]byte, error) {
	out := make([]byte, 0, expectedLen)
	for i := 0; i < len(compressed); {
		n := int(compressed[i]) + 1
		i++
		out = append(out, compressed[i:i+n]...)
		i += n
	}
	if len(out) != expectedLen {
		return nil, rdberr.NewMalformed("length mismatch")
	}
	return out, nil
}

// fakeLZFCompress emits literal-only LZF runs (ctrl byte < 32 means a
// run of ctrl+1 literal bytes follows) — a valid, if unambitious,
// encoding that fakeLZF.Decompress above can invert.
func fakeLZFCompress(in []byte) []byte {
	var out []byte
	for len(in) > 0 {
		n := len(in)
		if n > 32 {
			n = 32
		}
		out = append(out, byte(n-1))
		out = append(out, in[:n]...)
		in = in[n:]
	}
	return out
}

func encodeRawLen(n int) []byte {
	if n < 64 {
		return []byte{byte(n)}
	}
	if n < 16384 {
		return []byte{0x40 | byte(n>>8), byte(n)}
	}
	out := []byte{0x80, 0, 0, 0, 0}
	out[1] = byte(n)
	out[2] = byte(n >> 8)
	out[3] = byte(n >> 16)
	out[4] = byte(n >> 24)
	return out
}

func TestDecodeRawString(t *testing.T) {
	data := append(encodeRawLen(5), []byte("hello")...)
	cur := cursor.New(data)
	v, err := Decode(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsInt || !bytes.Equal(v.Bytes, []byte("hello")) {
		t.Fatalf("got %+v", v)
	}
}

func TestDecodeInt8(t *testing.T) {
	cur := cursor.New([]byte{0xc0, 0xff}) // special, tag 0, byte -1
	v, err := Decode(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsInt || v.Int != -1 {
		t.Fatalf("got %+v", v)
	}
}

func TestDecodeInt16(t *testing.T) {
	cur := cursor.New([]byte{0xc1, 0x2c, 0x01}) // 300 little-endian
	v, err := Decode(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsInt || v.Int != 300 {
		t.Fatalf("got %+v", v)
	}
}

func TestDecodeInt32(t *testing.T) {
	cur := cursor.New([]byte{0xc2, 0x00, 0x00, 0x00, 0x80}) // -2147483648
	v, err := Decode(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsInt || v.Int != -2147483648 {
		t.Fatalf("got %+v", v)
	}
}

func TestDecodeLZFRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("abab"), 50) // 200 bytes
	compressed := fakeLZFCompress(original)

	var data []byte
	data = append(data, 0xc3) // special, tag 3 = LZF
	data = append(data, encodeRawLen(len(compressed))...)
	data = append(data, encodeRawLen(len(original))...)
	data = append(data, compressed...)

	cur := cursor.New(data)
	v, err := Decode(cur, fakeLZF{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(v.Bytes, original) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(v.Bytes), len(original))
	}
}

func TestDecodeIncompleteRestoresPosition(t *testing.T) {
	data := append(encodeRawLen(5), []byte("hel")...) // declares 5, has 3
	cur := cursor.New(data)
	_, err := Decode(cur, fakeLZF{})
	if err != rdberr.ErrIncomplete {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if cur.Pos() != 0 {
		t.Fatalf("expected position restored, got %d", cur.Pos())
	}
}

func TestDecodeLZFLengthMismatchIsMalformed(t *testing.T) {
	compressed := fakeLZFCompress([]byte("short"))
	var data []byte
	data = append(data, 0xc3)
	data = append(data, encodeRawLen(len(compressed))...)
	data = append(data, encodeRawLen(999)...) // lie about the decompressed length
	data = append(data, compressed...)

	cur := cursor.New(data)
	_, err := Decode(cur, fakeLZF{})
	var malformed *rdberr.Malformed
	if err == nil {
		t.Fatal("expected an error")
	}
	if !asMalformed(err, &malformed) {
		t.Fatalf("expected Malformed, got %T: %v", err, err)
	}
}

func asMalformed(err error, target **rdberr.Malformed) bool {
	m, ok := err.(*rdberr.Malformed)
	if ok {
		*target = m
	}
	return ok
}
