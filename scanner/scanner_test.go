package scanner

import (
	"testing"

	"github.com/kelpwave/rdbscan/dispatch"
	"github.com/kelpwave/rdbscan/rdberr"
	"github.com/kelpwave/rdbscan/rdbrec"
)

type passthroughLZF struct{}

func (passthroughLZF) Decompress(compressed []byte, expectedLen int) ([]byte, error) {
	return compressed, nil
}

func fullFile() []byte {
	return []byte{
		0x52, 0x45, 0x44, 0x49, 0x53, 0x30, 0x30, 0x30, 0x36,
		0xFE, 0x00,
		0x00, 0x05, 'm', 'y', 'k', 'e', 'y', 0x07, 'm', 'y', 'v', 'a', 'l', 'u', 'e',
		0xFF, 0, 0, 0, 0, 0, 0, 0, 0,
	}
}

func TestPushWholeFileAtOnce(t *testing.T) {
	s := New(dispatch.New(passthroughLZF{}, nil))
	recs, err := s.Push(fullFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 4 || recs[3].Kind != rdbrec.KindEof {
		t.Fatalf("got %d records: %+v", len(recs), recs)
	}
	if err := s.Finish(); err != nil {
		t.Fatalf("unexpected error from Finish: %v", err)
	}
}

func TestPushOneByteAtATime(t *testing.T) {
	s := New(dispatch.New(passthroughLZF{}, nil))
	full := fullFile()
	var got []*rdbrec.Record
	for _, b := range full {
		recs, err := s.Push([]byte{b})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, recs...)
	}
	if len(got) != 4 || got[3].Kind != rdbrec.KindEof {
		t.Fatalf("got %d records: %+v", len(got), got)
	}
	if string(got[2].Key) != "mykey" {
		t.Fatalf("got %+v", got[2])
	}
	if err := s.Finish(); err != nil {
		t.Fatalf("unexpected error from Finish: %v", err)
	}
}

func TestFinishWithoutEofIsTruncated(t *testing.T) {
	s := New(dispatch.New(passthroughLZF{}, nil))
	full := fullFile()
	if _, err := s.Push(full[:len(full)-3]); err != nil { // drop the last 3 checksum bytes
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.Finish()
	trunc, ok := err.(*rdberr.Truncated)
	if !ok {
		t.Fatalf("expected *rdberr.Truncated, got %T: %v", err, err)
	}
	if len(trunc.Leftover) == 0 {
		t.Fatal("expected non-empty leftover")
	}
}

func TestFinishAfterEofIsNil(t *testing.T) {
	s := New(dispatch.New(passthroughLZF{}, nil))
	if _, err := s.Push(fullFile()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Finish(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestMalformedRecordStopsScanning(t *testing.T) {
	data := []byte{
		0x52, 0x45, 0x44, 0x49, 0x53, 0x30, 0x30, 0x30, 0x36,
		0x06, 0x01, 'k', // MODULE type, undecodable
	}
	s := New(dispatch.New(passthroughLZF{}, nil))
	recs, err := s.Push(data)
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(recs) != 1 || recs[0].Kind != rdbrec.KindVersion {
		t.Fatalf("expected only the Version record before the error, got %+v", recs)
	}
}
