package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstRow(t *testing.T, input string) Row {
	t.Helper()
	rr := NewRowReader(strings.NewReader(input))
	require.True(t, rr.Next(), "expected a data row, err=%v", rr.Err())
	return rr.Row()
}

func strPtr(s string) *string { return &s }

// ============================================================================
// ProductFromRow Tests
// ============================================================================

func TestProductFromRow_RoundTrip(t *testing.T) {
	row := firstRow(t, "name,manufacturer,year,contry,cpu\nX1,Acme,1999,US,Z80\n")

	p, err := ProductFromRow(row)
	require.NoError(t, err)

	assert.Equal(t, "X1", p.Name)
	assert.Equal(t, "Acme", p.Manufacturer)
	assert.Equal(t, 1999, p.Year)
	assert.Equal(t, strPtr("US"), p.Country)
	assert.Equal(t, strPtr("Z80"), p.CPU)
	assert.Zero(t, p.ID, "id is assigned by the store")
}

func TestProductFromRow_HeaderOrderIrrelevant(t *testing.T) {
	row := firstRow(t, "cpu,year,contry,name,manufacturer\n6502,1977,US,Apple II,Apple\n")

	p, err := ProductFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, "Apple II", p.Name)
	assert.Equal(t, 1977, p.Year)
	assert.Equal(t, strPtr("6502"), p.CPU)
}

func TestProductFromRow_Nullability(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantCountry *string
		wantCPU     *string
	}{
		{
			name:        "contry column absent",
			input:       "name,manufacturer,year,cpu\nX,M,1990,Z80\n",
			wantCountry: nil,
			wantCPU:     strPtr("Z80"),
		},
		{
			name:        "both optional columns absent",
			input:       "name,manufacturer,year\nX,M,1990\n",
			wantCountry: nil,
			wantCPU:     nil,
		},
		{
			name:        "record shorter than header",
			input:       "name,manufacturer,year,contry,cpu\nX,M,1990\n",
			wantCountry: nil,
			wantCPU:     nil,
		},
		{
			name:        "present but empty stays empty",
			input:       "name,manufacturer,year,contry,cpu\nX,M,1990,,\n",
			wantCountry: strPtr(""),
			wantCPU:     strPtr(""),
		},
		{
			name:        "correctly spelled country header is not read",
			input:       "name,manufacturer,year,country\nX,M,1990,BR\n",
			wantCountry: nil,
			wantCPU:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ProductFromRow(firstRow(t, tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCountry, p.Country)
			assert.Equal(t, tt.wantCPU, p.CPU)
		})
	}
}

func TestProductFromRow_Year(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "plain", value: "1984", want: 1984},
		{name: "surrounding spaces", value: " 1984 ", want: 1984},
		{name: "negative", value: "-5", want: -5},
		{name: "explicit plus", value: "+2001", want: 2001},
		{name: "letters", value: "abc", wantErr: true},
		{name: "decimal", value: "1984.0", wantErr: true},
		{name: "empty", value: "", wantErr: true},
		{name: "out of integer range", value: "3000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := firstRow(t, "name,manufacturer,year\nX,M,\""+tt.value+"\"\n")
			p, err := ProductFromRow(row)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.want, p.Year)
				return
			}

			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, ColumnYear, ve.Field)
			assert.Equal(t, tt.value, ve.Value)
			assert.Equal(t, KindData, KindOf(err))
		})
	}
}

func TestProductFromRow_MissingRequired(t *testing.T) {
	for _, col := range []string{ColumnName, ColumnManufacturer, ColumnYear} {
		t.Run(col, func(t *testing.T) {
			var header, values []string
			for _, c := range []string{ColumnName, ColumnManufacturer, ColumnYear} {
				if c == col {
					continue
				}
				header = append(header, c)
				values = append(values, "1990")
			}
			row := firstRow(t, strings.Join(header, ",")+"\n"+strings.Join(values, ",")+"\n")

			_, err := ProductFromRow(row)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, col, ve.Field)
			assert.Equal(t, "missing required column", ve.Message)
		})
	}
}

func TestProductFromRow_Lengths(t *testing.T) {
	t.Run("at limit", func(t *testing.T) {
		name := strings.Repeat("n", 64)
		country := strings.Repeat("ç", 32) // 32 characters, 64 bytes
		row := firstRow(t, "name,manufacturer,year,contry\n"+name+",M,1990,"+country+"\n")

		p, err := ProductFromRow(row)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name)
		assert.Equal(t, strPtr(country), p.Country)
	})

	t.Run("over limit", func(t *testing.T) {
		cpu := strings.Repeat("c", 33)
		row := firstRow(t, "name,manufacturer,year,cpu\nX,M,1990,"+cpu+"\n")

		_, err := ProductFromRow(row)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, ColumnCPU, ve.Field)
		assert.Equal(t, "value too long: 33 characters, limit 32", ve.Message)
	})
}
