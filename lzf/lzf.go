// Package lzf defines the external LZF decompressor collaborator
// StringCodec delegates to, per spec §6: "decompress(compressed, expected_len)
// -> Bytes; on length mismatch or malformed input, signals a terminal
// error." The production implementation wraps github.com/zhuyie/golzf,
// the real LZF implementation used elsewhere in the example corpus
// (boomballa-df2redis's go.mod).
package lzf

import (
	"fmt"

	golzf "github.com/zhuyie/golzf"
)

// Decompressor expands an LZF-compressed buffer to exactly
// expectedLen bytes. A length mismatch or malformed payload is a
// terminal error, never a partial result.
type Decompressor interface {
	Decompress(compressed []byte, expectedLen int) ([]byte, error)
}

// Golzf is the production Decompressor, backed by golzf.Decompress.
type Golzf struct{}

// NewGolzf returns the production LZF decompressor.
func NewGolzf() Golzf { return Golzf{} }

func (Golzf) Decompress(compressed []byte, expectedLen int) ([]byte, error) {
	out := make([]byte, expectedLen)
	n, err := golzf.Decompress(compressed, out)
	if err != nil {
		return nil, fmt.Errorf("lzf: decompress failed: %w", err)
	}
	if n != expectedLen {
		return nil, fmt.Errorf("lzf: decompressed %d bytes, expected %d", n, expectedLen)
	}
	return out, nil
}
