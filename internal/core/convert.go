package core

// convert.go turns CSV rows into product records.
//
// Text cells are copied exactly as read, so a value that is present but
// empty stays an empty string. Only an absent column maps to NULL, and only
// for the optional columns. The country column is read under the header
// "contry", the spelling used by the files this importer consumes.

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/prodimport/internal/schema"
)

// CSV header names of the product file.
const (
	ColumnName         = "name"
	ColumnManufacturer = "manufacturer"
	ColumnYear         = "year"
	ColumnCountry      = "contry"
	ColumnCPU          = "cpu"
)

// ExpectedColumns lists the header names a product file is expected to carry.
var ExpectedColumns = []string{ColumnName, ColumnManufacturer, ColumnYear, ColumnCountry, ColumnCPU}

// ProductFromRow builds one record from a CSV row. It fails with a
// *ValidationError when a required column is missing, year is not an
// integer, or a value exceeds its column bound.
func ProductFromRow(row Row) (*schema.Product, error) {
	name, err := requiredText(row, ColumnName, schema.NameMaxLen)
	if err != nil {
		return nil, err
	}
	manufacturer, err := requiredText(row, ColumnManufacturer, schema.ManufacturerMaxLen)
	if err != nil {
		return nil, err
	}
	year, err := requiredInt(row, ColumnYear)
	if err != nil {
		return nil, err
	}
	country, err := optionalText(row, ColumnCountry, schema.CountryMaxLen)
	if err != nil {
		return nil, err
	}
	cpu, err := optionalText(row, ColumnCPU, schema.CPUMaxLen)
	if err != nil {
		return nil, err
	}

	return &schema.Product{
		Name:         name,
		Manufacturer: manufacturer,
		Year:         year,
		Country:      country,
		CPU:          cpu,
	}, nil
}

func requiredText(row Row, column string, maxLen int) (string, error) {
	v, ok := row.Get(column)
	if !ok {
		return "", &ValidationError{Field: column, Message: "missing required column"}
	}
	if err := checkLen(column, v, maxLen); err != nil {
		return "", err
	}
	return v, nil
}

func optionalText(row Row, column string, maxLen int) (*string, error) {
	v, ok := row.Get(column)
	if !ok {
		return nil, nil
	}
	if err := checkLen(column, v, maxLen); err != nil {
		return nil, err
	}
	return &v, nil
}

func requiredInt(row Row, column string) (int, error) {
	v, ok := row.Get(column)
	if !ok {
		return 0, &ValidationError{Field: column, Message: "missing required column"}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, &ValidationError{
			Field:   column,
			Value:   v,
			Message: fmt.Sprintf("invalid integer %q", v),
			Err:     err,
		}
	}
	return int(n), nil
}

// checkLen enforces VARCHAR(n) bounds, which PostgreSQL counts in characters.
func checkLen(column, v string, maxLen int) error {
	if n := utf8.RuneCountInString(v); n > maxLen {
		return &ValidationError{
			Field:   column,
			Value:   v,
			Message: fmt.Sprintf("value too long: %d characters, limit %d", n, maxLen),
		}
	}
	return nil
}
