// Package rdbscan is the top-level entry point: it wires cursor.Cursor,
// dispatch.Dispatcher and scanner.ChunkScanner together behind a single
// pull-based Decoder that reads chunks from an io.Reader, the way the
// teacher's boot.Boot wires command.Watch, parse.NewParserFactory and
// rdb.ParseRdb.Analyze together into one entry point — except the core
// below it never blocks on I/O between chunks; Decoder.Next supplies the
// chunking itself so existing io.Reader-based callers (files, network
// connections) get the incremental decoder for free.
package rdbscan

import (
	"io"

	"github.com/kelpwave/rdbscan/config"
	"github.com/kelpwave/rdbscan/dispatch"
	"github.com/kelpwave/rdbscan/lzf"
	"github.com/kelpwave/rdbscan/rdbrec"
	"github.com/kelpwave/rdbscan/scanner"
	"github.com/sirupsen/logrus"
)

// Decoder pulls chunks of chunkSize bytes from r and turns them into a
// lazy rdbrec.Record sequence via Next. It holds exactly one growing
// buffer (scanner.ChunkScanner's) plus one read-sized staging buffer, per
// spec §3's memory footprint bound.
type Decoder struct {
	r         io.Reader
	chunkSize int
	scanner   *scanner.ChunkScanner
	readBuf   []byte

	pending  []*rdbrec.Record
	next     int
	finished bool
	err      error
}

// Option configures a Decoder.
type Option func(*options)

type options struct {
	decompressor lzf.Decompressor
	log          *logrus.Logger
}

// WithDecompressor injects the LZF decompressor collaborator (spec §6).
// Defaults to lzf.NewGolzf().
func WithDecompressor(d lzf.Decompressor) Option {
	return func(o *options) { o.decompressor = d }
}

// WithLogger injects the logger used for the unknown-opcode warning path
// (SPEC_FULL.md §3.2). Defaults to logrus.StandardLogger().
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) { o.log = log }
}

// New builds a Decoder reading RDB bytes from r in cfg.ChunkSize chunks.
func New(r io.Reader, cfg config.Config, opts ...Option) *Decoder {
	o := options{decompressor: lzf.NewGolzf(), log: logrus.StandardLogger()}
	for _, apply := range opts {
		apply(&o)
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = config.Default().ChunkSize
	}

	return &Decoder{
		r:         r,
		chunkSize: chunkSize,
		scanner:   scanner.New(dispatch.New(o.decompressor, o.log)),
		readBuf:   make([]byte, chunkSize),
	}
}

// Next returns the next record in file order, or io.EOF once the stream
// is exhausted after a clean Eof record, or when the source ends with no
// bytes left buffered. Any other error (rdberr.Malformed or
// *rdberr.Truncated) is terminal: it is returned after the records decoded
// before it, and every later call to Next returns it again.
func (d *Decoder) Next() (*rdbrec.Record, error) {
	for {
		if d.next < len(d.pending) {
			rec := d.pending[d.next]
			d.next++
			return rec, nil
		}
		if d.finished {
			if d.err != nil {
				return nil, d.err
			}
			return nil, io.EOF
		}

		n, readErr := d.r.Read(d.readBuf)
		if n > 0 {
			recs, err := d.scanner.Push(d.readBuf[:n])
			d.pending = recs
			d.next = 0
			if err != nil {
				d.finished = true
				d.err = err
				continue
			}
		} else {
			d.pending = nil
			d.next = 0
		}

		if readErr != nil {
			d.finished = true
			if readErr != io.EOF {
				d.err = readErr
			} else {
				d.err = d.scanner.Finish()
			}
		}
	}
}

// All drains the Decoder to completion, returning every record decoded
// before io.EOF (or the terminal error that stopped it short).
func All(r io.Reader, cfg config.Config, opts ...Option) ([]*rdbrec.Record, error) {
	d := New(r, cfg, opts...)
	var out []*rdbrec.Record
	for {
		rec, err := d.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
