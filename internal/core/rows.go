package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// HeaderIndex maps header names to their position in a CSV record.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a header record. Names are
// trimmed but otherwise matched exactly. When a name repeats, the last
// occurrence wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// Row is one CSV data record viewed as an ordered mapping from header name
// to raw cell value. Cells are returned exactly as read.
type Row struct {
	Line   int // 1-based line number of the record in the source
	header []string
	index  HeaderIndex
	values []string
}

// Get returns the value under the named column. ok is false when the header
// has no such column or the record is too short to reach it.
func (r Row) Get(column string) (value string, ok bool) {
	pos, found := r.index[column]
	if !found || pos >= len(r.values) {
		return "", false
	}
	return r.values[pos], true
}

// Columns returns the header names in file order.
func (r Row) Columns() []string {
	return r.header
}

// Map returns the row as a map. Columns the record does not reach are left out.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.header))
	for _, name := range r.header {
		if v, ok := r.Get(name); ok {
			m[name] = v
		}
	}
	return m
}

// RowReader yields the data rows of a CSV source lazily, in file order.
// The first record is the header. A RowReader is consumed once: after Next
// returns false it keeps returning false.
//
//	rr := NewRowReader(src)
//	for rr.Next() {
//	    row := rr.Row()
//	    ...
//	}
//	if err := rr.Err(); err != nil { ... }
type RowReader struct {
	csv    *csv.Reader
	header []string
	index  HeaderIndex
	row    Row
	err    error
	done   bool
}

// NewRowReader returns a reader over src. Nothing is read until Next.
// Records may have any number of fields; quoting is strict, so a stray or
// unterminated quote is a parse error.
func NewRowReader(src io.Reader) *RowReader {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	return &RowReader{csv: r}
}

// Next advances to the next data row. It returns false at end of input or
// on the first error; Err tells the two apart.
func (rr *RowReader) Next() bool {
	if rr.done {
		return false
	}

	if rr.header == nil {
		header, err := rr.csv.Read()
		if err != nil {
			return rr.stop(err, "read header")
		}
		rr.header = make([]string, len(header))
		for i, h := range header {
			rr.header[i] = strings.TrimSpace(h)
		}
		rr.index = MakeHeaderIndex(rr.header)
	}

	record, err := rr.csv.Read()
	if err != nil {
		return rr.stop(err, "read row")
	}

	line, _ := rr.csv.FieldPos(0)
	rr.row = Row{
		Line:   line,
		header: rr.header,
		index:  rr.index,
		values: record,
	}
	return true
}

func (rr *RowReader) stop(err error, op string) bool {
	rr.done = true
	rr.row = Row{}
	if !errors.Is(err, io.EOF) {
		rr.err = fmt.Errorf("%s: %w", op, err)
	}
	return false
}

// Row returns the current row. Valid only after Next returned true.
func (rr *RowReader) Row() Row {
	return rr.row
}

// Header returns the header names, or nil before the first Next.
func (rr *RowReader) Header() []string {
	return rr.header
}

// Err returns the error that stopped iteration, or nil at clean end of input.
func (rr *RowReader) Err() error {
	return rr.err
}
