package core

// streaming.go prepares a raw CSV byte stream for parsing without loading the
// file into memory:
//
//   - a UTF-8 byte order mark, common in files saved by Windows tools, is removed
//   - invalid UTF-8 sequences are replaced with U+FFFD
//   - bytes consumed from the source are counted for progress reporting

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{
		reader: r,
		Total:  total,
	}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// StreamReader is a decoded view of a source stream that still reports how
// many raw bytes have been consumed.
type StreamReader struct {
	io.Reader
	counter *CountingReader
}

// BytesRead returns the number of raw source bytes consumed so far.
func (s *StreamReader) BytesRead() int64 {
	return s.counter.BytesRead
}

// BytesTotal returns the source size passed to WrapForStreaming.
func (s *StreamReader) BytesTotal() int64 {
	return s.counter.Total
}

// WrapForStreaming wraps r with byte counting, BOM removal and UTF-8
// sanitization. Counting sits closest to the source so progress is measured
// in file bytes, not decoded bytes.
//
// BOMOverride hands a BOM-prefixed stream to its own decoder and never to
// the fallback, so the replacing UTF-8 decoder runs after it in the chain.
func WrapForStreaming(r io.Reader, totalSize int64) *StreamReader {
	counter := NewCountingReader(r, totalSize)
	decoder := transform.Chain(
		unicode.BOMOverride(transform.Nop),
		unicode.UTF8.NewDecoder(),
	)
	return &StreamReader{
		Reader:  transform.NewReader(counter, decoder),
		counter: counter,
	}
}
