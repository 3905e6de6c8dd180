// Package rdbrec defines the Record and Value types emitted by the
// decoder (spec §3). Grounded on the teacher's rdb package, which
// spreads the same information across AuxField, SelectionDB, ResizeDB,
// KeyObject and the per-type value structs (StringObject, ListObject,
// Set, HashMap, SortedSet) — here unified into one tagged Record so the
// dispatcher and the chunk scanner can speak a single sequence type
// instead of the teacher's grab-bag []interface{} (rdb/parser.go's d1).
package rdbrec

import "fmt"

// Kind tags which variant a Record holds.
type Kind int

const (
	KindVersion Kind = iota
	KindSelectDb
	KindResizeDb
	KindAux
	KindEntry
	KindEof
)

func (k Kind) String() string {
	switch k {
	case KindVersion:
		return "Version"
	case KindSelectDb:
		return "SelectDb"
	case KindResizeDb:
		return "ResizeDb"
	case KindAux:
		return "Aux"
	case KindEntry:
		return "Entry"
	case KindEof:
		return "Eof"
	default:
		return "Unknown"
	}
}

// Element is one member of a List/Set, or one key or value of a Hash:
// either a raw byte string or a signed integer, per spec §3.
type Element struct {
	Bytes []byte
	Int   int64
	IsInt bool
}

// BytesElement wraps a raw byte string as an Element.
func BytesElement(b []byte) Element { return Element{Bytes: b} }

// IntElement wraps a signed integer as an Element.
func IntElement(n int64) Element { return Element{Int: n, IsInt: true} }

func (e Element) String() string {
	if e.IsInt {
		return fmt.Sprintf("%d", e.Int)
	}
	return string(e.Bytes)
}

// ValueKind tags which shape Value.
type ValueKind int

const (
	ValueBytes ValueKind = iota
	ValueInt
	ValueList
	ValueSet
	ValueHash
	ValueSortedSet
	ValueStream
)

// ZSetMember is one member/score pair of a sorted set.
type ZSetMember struct {
	Member Element
	Score  float64
}

// HashField is one field/value pair of a hash, kept ordered the way
// the teacher's HashEntry slice is.
type HashField struct {
	Field Element
	Value Element
}

// StreamEntry is one decoded stream entry's fields, keyed by stream ID
// string ("ms-seq"), adapted from the teacher's RedisStream.Entries.
type StreamEntry struct {
	ID      string
	Deleted bool
	Fields  map[string]string
}

// Value is the polymorphic payload of an Entry record.
type Value struct {
	Kind ValueKind

	Bytes []byte
	Int   int64

	List []Element
	Set  []Element
	Hash []HashField

	SortedSet []ZSetMember

	StreamEntries []StreamEntry
	StreamLength  uint64
	StreamLastID  string
}

// Metadata carries the optional per-entry fields the dispatcher may
// have consumed before the entry's type byte: at most one of
// ExpireSeconds/ExpireMs is set (spec §3 invariant), plus the
// orthogonal, independently-optional object-metadata opcodes (LRU idle
// time / LFU frequency) that the teacher's parser reads but discards —
// see SPEC_FULL.md §5.
type Metadata struct {
	ExpireSeconds *uint32
	ExpireMs      *uint64
	IdleSeconds   *uint64
	Freq          *byte
}

// Record is the single tagged value the decoder emits, unifying
// Version/SelectDb/ResizeDb/Aux/Entry/Eof (spec §3).
type Record struct {
	Kind Kind

	Version int // KindVersion

	DbIndex uint64 // KindSelectDb

	ResizeMain    uint64 // KindResizeDb
	ResizeExpires uint64 // KindResizeDb

	AuxKey   Element // KindAux
	AuxValue Element // KindAux

	Key      []byte   // KindEntry
	Value    Value    // KindEntry
	Metadata Metadata // KindEntry

	Checksum []byte // KindEof
}
