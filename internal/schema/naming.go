package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
	gormschema "gorm.io/gorm/schema"
)

// MaxIdentifierLen is PostgreSQL's identifier limit (NAMEDATALEN - 1).
const MaxIdentifierLen = 63

// NamingConvention generates constraint and index identifiers as pure
// functions of table and column names, so the same declaration yields the
// same names in every environment:
//
//	index        ix_<table>_<column>
//	unique       uq_<table>_<column>
//	check        ck_<table>_<constraint>
//	foreign key  fk_<table>_<column>_<referred table>
//	primary key  pk_<table>
//
// Names over MaxIdentifierLen bytes are cut and suffixed with a hash of the
// full name, so two long names never collide after truncation.
//
// NamingConvention also implements GORM's schema.Namer; table and column
// names are delegated to the embedded NamingStrategy.
type NamingConvention struct {
	gormschema.NamingStrategy
}

var _ gormschema.Namer = NamingConvention{}

// DefaultNaming returns the convention used for the produtos schema.
// Table names are used as declared, without pluralisation.
func DefaultNaming() NamingConvention {
	return NamingConvention{
		NamingStrategy: gormschema.NamingStrategy{SingularTable: true},
	}
}

// Index returns the name of an index on table(column).
func (NamingConvention) Index(table, column string) string {
	return identifier("ix", table, column)
}

// Unique returns the name of a unique constraint on table(column).
func (NamingConvention) Unique(table, column string) string {
	return identifier("uq", table, column)
}

// Check returns the name of a check constraint on table.
func (NamingConvention) Check(table, constraint string) string {
	return identifier("ck", table, constraint)
}

// ForeignKey returns the name of a foreign key from table(column) to referred.
func (NamingConvention) ForeignKey(table, column, referred string) string {
	return identifier("fk", table, column, referred)
}

// PrimaryKey returns the name of the primary key constraint of table.
func (NamingConvention) PrimaryKey(table string) string {
	return identifier("pk", table)
}

// IndexName implements gormschema.Namer.
func (n NamingConvention) IndexName(table, column string) string {
	return n.Index(table, column)
}

// UniqueName implements gormschema.Namer.
func (n NamingConvention) UniqueName(table, column string) string {
	return n.Unique(table, column)
}

// CheckerName implements gormschema.Namer.
func (n NamingConvention) CheckerName(table, column string) string {
	return n.Check(table, column)
}

// RelationshipFKName implements gormschema.Namer.
func (n NamingConvention) RelationshipFKName(rel gormschema.Relationship) string {
	table, column, referred := rel.Schema.Table, rel.Name, rel.FieldSchema.Table
	if len(rel.References) > 0 {
		ref := rel.References[0]
		if ref.ForeignKey != nil && ref.ForeignKey.Schema != nil {
			table, column = ref.ForeignKey.Schema.Table, ref.ForeignKey.DBName
		}
		if ref.PrimaryKey != nil && ref.PrimaryKey.Schema != nil {
			referred = ref.PrimaryKey.Schema.Table
		}
	}
	return n.ForeignKey(table, column, referred)
}

func identifier(prefix string, parts ...string) string {
	name := prefix + "_" + strings.Join(parts, "_")
	if len(name) <= MaxIdentifierLen {
		return name
	}
	suffix := fmt.Sprintf("_%08x", uint32(xxh3.HashString(name)))
	cut := MaxIdentifierLen - len(suffix)
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut] + suffix
}
