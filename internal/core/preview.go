package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/prodimport/internal/schema"
)

// PreviewSummary contains the summary counts of a preview.
type PreviewSummary struct {
	TotalRows       int `json:"totalRows"`
	ValidRows       int `json:"validRows"`
	ErrorRows       int `json:"errorRows"`
	DuplicateInFile int `json:"duplicateInFile"`
}

// RowPreview represents a single row for preview display.
type RowPreview struct {
	LineNumber int               `json:"lineNumber"`
	Values     map[string]string `json:"values"`
}

// ErrorPreview represents a row with validation errors.
type ErrorPreview struct {
	LineNumber int               `json:"lineNumber"`
	Values     map[string]string `json:"values"`
	Errors     []string          `json:"errors"`
}

// DuplicatePreview represents a product key that appears more than once
// in the file. Duplicates are imported as separate rows; they are only
// reported.
type DuplicatePreview struct {
	RowKey      string `json:"rowKey"`
	LineNumbers []int  `json:"lineNumbers"`
}

// PreviewResponse is the result of a read-only check of a CSV file.
type PreviewResponse struct {
	Header           []string           `json:"header"`
	MissingColumns   []string           `json:"missingColumns,omitempty"`
	UnknownColumns   []string           `json:"unknownColumns,omitempty"`
	Summary          PreviewSummary     `json:"summary"`
	RowSamples       []RowPreview       `json:"rowSamples"`
	ErrorSamples     []ErrorPreview     `json:"errorSamples"`
	DuplicateSamples []DuplicatePreview `json:"duplicateSamples"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
}

// Importable reports whether an import of the previewed file would commit.
func (p *PreviewResponse) Importable() bool {
	return p.Summary.ErrorRows == 0
}

// Sample limits
const (
	maxRowSamples       = 10
	maxErrorSamples     = 20
	maxDuplicateSamples = 10
)

// PreviewFile opens path and previews it.
func PreviewFile(ctx context.Context, path string) (*PreviewResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap("open file", 0, err)
	}
	defer f.Close()
	return Preview(ctx, f)
}

// Preview validates every row of a product CSV without touching the store.
// Unlike an import it does not stop at the first bad row: all problems of
// every row are collected, up to the sample limits.
func Preview(ctx context.Context, src io.Reader) (*PreviewResponse, error) {
	startTime := time.Now()
	resp := &PreviewResponse{}

	seenKeys := make(map[string][]int)
	var keyOrder []string

	rows := NewRowReader(WrapForStreaming(src, 0))
	for rows.Next() {
		row := rows.Row()
		if resp.Summary.TotalRows%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, wrap("preview", row.Line, err)
			}
		}
		resp.Summary.TotalRows++

		values := row.Map()
		errs := validateRowComplete(row)
		if len(errs) > 0 {
			resp.Summary.ErrorRows++
			if len(resp.ErrorSamples) < maxErrorSamples {
				resp.ErrorSamples = append(resp.ErrorSamples, ErrorPreview{
					LineNumber: row.Line,
					Values:     values,
					Errors:     errs,
				})
			}
			continue
		}

		resp.Summary.ValidRows++
		if len(resp.RowSamples) < maxRowSamples {
			resp.RowSamples = append(resp.RowSamples, RowPreview{LineNumber: row.Line, Values: values})
		}

		key := rowKey(row)
		if _, ok := seenKeys[key]; !ok {
			keyOrder = append(keyOrder, key)
		}
		seenKeys[key] = append(seenKeys[key], row.Line)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("parse csv", 0, err)
	}

	resp.Header = rows.Header()
	resp.MissingColumns, resp.UnknownColumns = compareHeader(resp.Header)

	for _, key := range keyOrder {
		lines := seenKeys[key]
		if len(lines) < 2 {
			continue
		}
		resp.Summary.DuplicateInFile += len(lines) - 1 // extra occurrences
		if len(resp.DuplicateSamples) < maxDuplicateSamples {
			resp.DuplicateSamples = append(resp.DuplicateSamples, DuplicatePreview{
				RowKey:      key,
				LineNumbers: lines,
			})
		}
	}

	resp.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return resp, nil
}

// validateRowComplete returns every problem of a row, not just the first.
func validateRowComplete(row Row) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	_, err := requiredText(row, ColumnName, schema.NameMaxLen)
	add(err)
	_, err = requiredText(row, ColumnManufacturer, schema.ManufacturerMaxLen)
	add(err)
	_, err = requiredInt(row, ColumnYear)
	add(err)
	_, err = optionalText(row, ColumnCountry, schema.CountryMaxLen)
	add(err)
	_, err = optionalText(row, ColumnCPU, schema.CPUMaxLen)
	add(err)

	return errs
}

// rowKey identifies a product for duplicate reporting.
func rowKey(row Row) string {
	name, _ := row.Get(ColumnName)
	manufacturer, _ := row.Get(ColumnManufacturer)
	year, _ := row.Get(ColumnYear)
	return strings.Join([]string{name, manufacturer, strings.TrimSpace(year)}, "|")
}

// compareHeader lists expected columns absent from header and header
// columns the importer ignores.
func compareHeader(header []string) (missing, unknown []string) {
	idx := MakeHeaderIndex(header)
	for _, col := range ExpectedColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	expected := MakeHeaderIndex(ExpectedColumns)
	for _, col := range header {
		if _, ok := expected[col]; !ok {
			unknown = append(unknown, col)
		}
	}
	return missing, unknown
}

// String renders a short human-readable report.
func (p *PreviewResponse) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows: %d valid, %d with errors", p.Summary.ValidRows, p.Summary.ErrorRows)
	if p.Summary.DuplicateInFile > 0 {
		fmt.Fprintf(&b, ", %d repeated", p.Summary.DuplicateInFile)
	}
	b.WriteByte('\n')
	if len(p.MissingColumns) > 0 {
		fmt.Fprintf(&b, "missing columns: %s\n", strings.Join(p.MissingColumns, ", "))
	}
	if len(p.UnknownColumns) > 0 {
		fmt.Fprintf(&b, "ignored columns: %s\n", strings.Join(p.UnknownColumns, ", "))
	}
	for _, e := range p.ErrorSamples {
		fmt.Fprintf(&b, "line %d: %s\n", e.LineNumber, strings.Join(e.Errors, "; "))
	}
	for _, d := range p.DuplicateSamples {
		fmt.Fprintf(&b, "repeated %q on lines %v\n", d.RowKey, d.LineNumbers)
	}
	return b.String()
}
