package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview_CollectsAllErrors(t *testing.T) {
	input := productHeader +
		"A,M,1990,US,Z80\n" +
		"," + strings.Repeat("m", 65) + ",abc,US,Z80\n" +
		"B,M,1991,,\n" +
		"A,M,1990,JP,6502\n"

	resp, err := Preview(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, PreviewSummary{TotalRows: 4, ValidRows: 3, ErrorRows: 1, DuplicateInFile: 1}, resp.Summary)
	assert.False(t, resp.Importable())

	require.Len(t, resp.ErrorSamples, 1)
	bad := resp.ErrorSamples[0]
	assert.Equal(t, 3, bad.LineNumber)
	require.Len(t, bad.Errors, 2)
	assert.Contains(t, bad.Errors[0], "manufacturer: value too long")
	assert.Contains(t, bad.Errors[1], `year: invalid integer "abc"`)

	require.Len(t, resp.DuplicateSamples, 1)
	assert.Equal(t, "A|M|1990", resp.DuplicateSamples[0].RowKey)
	assert.Equal(t, []int{2, 5}, resp.DuplicateSamples[0].LineNumbers)

	assert.Len(t, resp.RowSamples, 3)
	assert.Empty(t, resp.MissingColumns)
	assert.Empty(t, resp.UnknownColumns)
}

func TestPreview_HeaderReport(t *testing.T) {
	resp, err := Preview(context.Background(), strings.NewReader("name,manufacturer,year,country\nA,M,1990,BR\n"))
	require.NoError(t, err)

	assert.True(t, resp.Importable())
	assert.Equal(t, []string{ColumnCountry, ColumnCPU}, resp.MissingColumns)
	assert.Equal(t, []string{"country"}, resp.UnknownColumns)

	out := resp.String()
	assert.Contains(t, out, "rows: 1 valid, 0 with errors")
	assert.Contains(t, out, "missing columns: contry, cpu")
	assert.Contains(t, out, "ignored columns: country")
}

func TestPreview_Malformed(t *testing.T) {
	_, err := Preview(context.Background(), strings.NewReader(productHeader+"\"A,M\n"))
	require.Error(t, err)
	assert.Equal(t, KindData, KindOf(err))
}

func TestPreviewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(productHeader+"X1,Acme,1999,US,Z80\n"), 0o644))

	resp, err := PreviewFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.ValidRows)

	_, err = PreviewFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
