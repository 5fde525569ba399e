// Package schema declares the relational shape of imported records.
//
// It holds the GORM model for the produtos table, a static column
// declaration used to render provisioning DDL, the naming convention for
// generated constraint and index identifiers, and the Metadata collection of
// tables that provisioning creates and the maintenance drop removes.
//
// Nothing in this package touches a database.
package schema

import (
	"fmt"
	"sync"
)

// ColumnDef describes a single column of a table.
type ColumnDef struct {
	Name       string // column name, unquoted
	SQLType    string // e.g. BIGSERIAL, VARCHAR(64), INTEGER
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	Default    string // raw SQL default expression
}

// TableDef is the static declaration of one table.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// Column returns the column with the given name.
func (t TableDef) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// PrimaryKey returns the primary key column names in declaration order.
func (t TableDef) PrimaryKey() []string {
	var pks []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, c.Name)
		}
	}
	return pks
}

// Metadata is an ordered collection of table declarations sharing one
// naming convention. Tables are created in registration order and dropped in
// reverse.
type Metadata struct {
	Naming NamingConvention

	mu     sync.RWMutex
	tables []TableDef
	byName map[string]int
}

// NewMetadata returns an empty collection using the given naming convention.
func NewMetadata(naming NamingConvention) *Metadata {
	return &Metadata{
		Naming: naming,
		byName: make(map[string]int),
	}
}

// DefaultMetadata returns a fresh collection holding the produtos table.
func DefaultMetadata() *Metadata {
	md := NewMetadata(DefaultNaming())
	md.MustRegister(ProductTable())
	return md
}

// Register adds a table declaration.
// Returns an error if the declaration is empty or the name is already taken.
func (m *Metadata) Register(def TableDef) error {
	if def.Name == "" {
		return fmt.Errorf("table name required")
	}
	if len(def.Columns) == 0 {
		return fmt.Errorf("table %s: at least one column required", def.Name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[def.Name]; exists {
		return fmt.Errorf("table already registered: %s", def.Name)
	}

	m.byName[def.Name] = len(m.tables)
	m.tables = append(m.tables, def)
	return nil
}

// MustRegister is like Register but panics on error.
// Use it only for static declarations.
func (m *Metadata) MustRegister(def TableDef) {
	if err := m.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns a table declaration by name.
func (m *Metadata) Lookup(name string) (TableDef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byName[name]
	if !ok {
		return TableDef{}, false
	}
	return m.tables[i], true
}

// Tables returns all declarations in registration order.
func (m *Metadata) Tables() []TableDef {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]TableDef, len(m.tables))
	copy(out, m.tables)
	return out
}
