// Package sink renders a decoded rdbrec.Record stream to JSON or CSV,
// playing the role the teacher's generator package plays for its own
// decoder output (generator.Gen / generator.Putter dispatching on a
// constants.FORMAT_* selector) — here the selector is Format and the
// two renderers are JSONSink and CSVSink, both built on the standard
// library's encoding/json and encoding/csv the way the teacher's Json
// and Csv types were headed before falling back to the stdlib encoders.
package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kelpwave/rdbscan/rdbrec"
)

// Format selects a Sink's rendering, mirroring the teacher's
// constants.FORMAT_JSON / constants.FORMAT_CSV pair.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Sink consumes one Record at a time and flushes at the end of the
// stream. Grounded on generator.Gen's per-kind callback shape, collapsed
// onto the single Record type rdbrec introduces.
type Sink interface {
	Write(rec *rdbrec.Record) error
	Flush() error
}

// New builds a Sink of the given format writing to w. An unrecognized
// format is a programmer error, not a runtime condition to recover from
// (same stance as the teacher's NewPutter panicking on an unknown
// format).
func New(format Format, w io.Writer) Sink {
	switch format {
	case FormatJSON:
		return &jsonSink{w: w, enc: json.NewEncoder(w)}
	case FormatCSV:
		return &csvSink{w: csv.NewWriter(w)}
	default:
		panic("sink: unknown format " + string(format))
	}
}

// row is the flat, JSON- and CSV-friendly projection of a Record used by
// both sinks, so the two renderers agree on field names and expiry units.
type row struct {
	Kind      string `json:"kind"`
	Version   int    `json:"version,omitempty"`
	DbIndex   uint64 `json:"db_index,omitempty"`
	Main      uint64 `json:"resize_main,omitempty"`
	Expires   uint64 `json:"resize_expires,omitempty"`
	Key       string `json:"key,omitempty"`
	Value     string `json:"value,omitempty"`
	ValueKind string `json:"value_kind,omitempty"`
	ExpireMs  uint64 `json:"expire_ms,omitempty"`
	Checksum  string `json:"checksum,omitempty"`
}

func toRow(rec *rdbrec.Record) row {
	r := row{Kind: rec.Kind.String()}
	switch rec.Kind {
	case rdbrec.KindVersion:
		r.Version = rec.Version
	case rdbrec.KindSelectDb:
		r.DbIndex = rec.DbIndex
	case rdbrec.KindResizeDb:
		r.Main = rec.ResizeMain
		r.Expires = rec.ResizeExpires
	case rdbrec.KindAux:
		r.Key = rec.AuxKey.String()
		r.Value = rec.AuxValue.String()
	case rdbrec.KindEntry:
		r.Key = string(rec.Key)
		r.ValueKind = valueKindString(rec.Value.Kind)
		r.Value = valuePreview(rec.Value)
		if rec.Metadata.ExpireMs != nil {
			r.ExpireMs = *rec.Metadata.ExpireMs
		} else if rec.Metadata.ExpireSeconds != nil {
			r.ExpireMs = uint64(*rec.Metadata.ExpireSeconds) * 1000
		}
	case rdbrec.KindEof:
		r.Checksum = fmt.Sprintf("%x", rec.Checksum)
	}
	return r
}

func valueKindString(k rdbrec.ValueKind) string {
	switch k {
	case rdbrec.ValueBytes:
		return "bytes"
	case rdbrec.ValueInt:
		return "int"
	case rdbrec.ValueList:
		return "list"
	case rdbrec.ValueSet:
		return "set"
	case rdbrec.ValueHash:
		return "hash"
	case rdbrec.ValueSortedSet:
		return "zset"
	case rdbrec.ValueStream:
		return "stream"
	default:
		return "unknown"
	}
}

// valuePreview renders a Value compactly: the raw bytes/int for scalar
// values, and an element/field count for the collection shapes — a full
// collection dump belongs to a downstream consumer, explicitly out of
// scope for this decoder (spec §1).
func valuePreview(v rdbrec.Value) string {
	switch v.Kind {
	case rdbrec.ValueBytes:
		return string(v.Bytes)
	case rdbrec.ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case rdbrec.ValueList:
		return fmt.Sprintf("%d elements", len(v.List))
	case rdbrec.ValueSet:
		return fmt.Sprintf("%d members", len(v.Set))
	case rdbrec.ValueHash:
		return fmt.Sprintf("%d fields", len(v.Hash))
	case rdbrec.ValueSortedSet:
		return fmt.Sprintf("%d members", len(v.SortedSet))
	case rdbrec.ValueStream:
		return fmt.Sprintf("%d entries, last-id %s", len(v.StreamEntries), v.StreamLastID)
	default:
		return ""
	}
}

type jsonSink struct {
	w   io.Writer
	enc *json.Encoder
}

func (s *jsonSink) Write(rec *rdbrec.Record) error {
	return s.enc.Encode(toRow(rec))
}

func (s *jsonSink) Flush() error { return nil }

var csvHeader = []string{"kind", "version", "db_index", "resize_main", "resize_expires", "key", "value", "value_kind", "expire_ms", "checksum"}

type csvSink struct {
	w           *csv.Writer
	wroteHeader bool
}

func (s *csvSink) Write(rec *rdbrec.Record) error {
	if !s.wroteHeader {
		if err := s.w.Write(csvHeader); err != nil {
			return err
		}
		s.wroteHeader = true
	}
	r := toRow(rec)
	return s.w.Write([]string{
		r.Kind,
		strconv.Itoa(r.Version),
		strconv.FormatUint(r.DbIndex, 10),
		strconv.FormatUint(r.Main, 10),
		strconv.FormatUint(r.Expires, 10),
		r.Key,
		r.Value,
		r.ValueKind,
		strconv.FormatUint(r.ExpireMs, 10),
		r.Checksum,
	})
}

func (s *csvSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}
