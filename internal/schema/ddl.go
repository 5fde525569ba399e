package schema

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// CreateTableSQL renders a CREATE TABLE IF NOT EXISTS statement for t.
// Primary key and unique constraints are named by n. Running the statement
// against a database that already has the table changes nothing.
func CreateTableSQL(t TableDef, n NamingConvention) (string, error) {
	if t.Name == "" {
		return "", fmt.Errorf("table name required")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("table %s: at least one column required", t.Name)
	}

	lines := make([]string, 0, len(t.Columns)+2)
	var constraints []string

	for _, c := range t.Columns {
		if c.Name == "" || c.SQLType == "" {
			return "", fmt.Errorf("table %s: column name and type required", t.Name)
		}
		def := quoteIdent(c.Name) + " " + c.SQLType
		if c.Default != "" {
			def += " DEFAULT " + c.Default
		}
		if !c.Nullable || c.PrimaryKey {
			def += " NOT NULL"
		}
		lines = append(lines, def)

		if c.Unique && !c.PrimaryKey {
			constraints = append(constraints, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)",
				quoteIdent(n.Unique(t.Name, c.Name)), quoteIdent(c.Name)))
		}
	}

	if pks := t.PrimaryKey(); len(pks) > 0 {
		quoted := make([]string, len(pks))
		for i, pk := range pks {
			quoted[i] = quoteIdent(pk)
		}
		lines = append(lines, fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)",
			quoteIdent(n.PrimaryKey(t.Name)), strings.Join(quoted, ", ")))
	}
	lines = append(lines, constraints...)

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		quoteIdent(t.Name), strings.Join(lines, ",\n  ")), nil
}

// DropTableSQL renders a DROP TABLE IF EXISTS statement for t.
func DropTableSQL(t TableDef) (string, error) {
	if t.Name == "" {
		return "", fmt.Errorf("table name required")
	}
	return "DROP TABLE IF EXISTS " + quoteIdent(t.Name), nil
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
