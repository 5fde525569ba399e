package core

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, input string) ([]Row, error) {
	t.Helper()
	rr := NewRowReader(strings.NewReader(input))
	var rows []Row
	for rr.Next() {
		rows = append(rows, rr.Row())
	}
	return rows, rr.Err()
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{" name", "year ", "name"})

	assert.Equal(t, 2, idx["name"], "last duplicate wins")
	assert.Equal(t, 1, idx["year"])
	_, ok := idx["Name"]
	assert.False(t, ok, "matching is case sensitive")
}

func TestRowReader_FileOrder(t *testing.T) {
	rows, err := readAll(t, "name,manufacturer,year\nA,M1,1980\nB,M2,1981\nC,M3,1982\n")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for i, want := range []string{"A", "B", "C"} {
		got, ok := rows[i].Get("name")
		assert.True(t, ok)
		assert.Equal(t, want, got)
		assert.Equal(t, i+2, rows[i].Line)
	}
	assert.Equal(t, []string{"name", "manufacturer", "year"}, rows[0].Columns())
}

func TestRowReader_ValuesVerbatim(t *testing.T) {
	rows, err := readAll(t, "name,cpu\n\"  padded  \",\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	name, ok := rows[0].Get("name")
	assert.True(t, ok)
	assert.Equal(t, "  padded  ", name)

	cpu, ok := rows[0].Get("cpu")
	assert.True(t, ok, "present empty cell is not absent")
	assert.Equal(t, "", cpu)
}

func TestRowReader_ShortRecord(t *testing.T) {
	rows, err := readAll(t, "name,manufacturer,year,contry\nX,M,1990\n")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, ok := rows[0].Get("contry")
	assert.False(t, ok)
	assert.Equal(t, map[string]string{"name": "X", "manufacturer": "M", "year": "1990"}, rows[0].Map())
}

func TestRowReader_Empty(t *testing.T) {
	t.Run("no input", func(t *testing.T) {
		rows, err := readAll(t, "")
		assert.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("header only", func(t *testing.T) {
		rr := NewRowReader(strings.NewReader("name,year\n"))
		assert.False(t, rr.Next())
		assert.NoError(t, rr.Err())
		assert.Equal(t, []string{"name", "year"}, rr.Header())
	})
}

func TestRowReader_ConsumedOnce(t *testing.T) {
	rr := NewRowReader(strings.NewReader("name\nA\n"))
	assert.Nil(t, rr.Header(), "nothing read before Next")

	require.True(t, rr.Next())
	require.False(t, rr.Next())
	assert.False(t, rr.Next(), "stays exhausted")
	assert.Equal(t, Row{}, rr.Row())
}

func TestRowReader_MalformedCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unterminated quote", "name,year\nA,1990\n\"B,1991\n", csv.ErrQuote},
		{"text after closing quote", "name,year\nA,1990\n\"B\"x,1991\n", csv.ErrQuote},
		{"bare quote", "name,year\nA,1990\nB\"b,1991\n", csv.ErrBareQuote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := readAll(t, tt.input)

			assert.Len(t, rows, 1)
			require.Error(t, err)
			var parseErr *csv.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 3, parseErr.StartLine)
			assert.Contains(t, err.Error(), "read row")
		})
	}
}

func TestRowReader_BOMHeader(t *testing.T) {
	input := "\xef\xbb\xbfname,year\nA,1990\n"
	rr := NewRowReader(WrapForStreaming(strings.NewReader(input), int64(len(input))))

	require.True(t, rr.Next())
	got, ok := rr.Row().Get("name")
	assert.True(t, ok, "BOM must not stick to the first header name")
	assert.Equal(t, "A", got)
}
