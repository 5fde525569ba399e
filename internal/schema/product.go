package schema

import "fmt"

// ProductTableName is the name of the table imported products are stored in.
const ProductTableName = "produtos"

// Column bounds of the produtos table.
const (
	NameMaxLen         = 64
	ManufacturerMaxLen = 64
	CountryMaxLen      = 32
	CPUMaxLen          = 32
)

// Product is one imported product record.
//
// ID is assigned by the database on insert and never changes afterwards.
// Country and CPU are optional: nil is stored as NULL.
type Product struct {
	ID           int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string  `gorm:"column:name;type:varchar(64);size:64;not null"`
	Manufacturer string  `gorm:"column:manufacturer;type:varchar(64);size:64;not null"`
	Year         int     `gorm:"column:year;type:integer;not null"`
	Country      *string `gorm:"column:country;type:varchar(32);size:32"`
	CPU          *string `gorm:"column:cpu;type:varchar(32);size:32"`
}

// TableName implements GORM's tabler interface.
func (Product) TableName() string {
	return ProductTableName
}

func (p Product) String() string {
	return fmt.Sprintf("Product(%d, %q)", p.ID, p.Name)
}

// ProductTable returns the column declaration of the produtos table.
// It must stay in step with the gorm tags on Product.
func ProductTable() TableDef {
	return TableDef{
		Name: ProductTableName,
		Columns: []ColumnDef{
			{Name: "id", SQLType: "BIGSERIAL", PrimaryKey: true},
			{Name: "name", SQLType: fmt.Sprintf("VARCHAR(%d)", NameMaxLen)},
			{Name: "manufacturer", SQLType: fmt.Sprintf("VARCHAR(%d)", ManufacturerMaxLen)},
			{Name: "year", SQLType: "INTEGER"},
			{Name: "country", SQLType: fmt.Sprintf("VARCHAR(%d)", CountryMaxLen), Nullable: true},
			{Name: "cpu", SQLType: fmt.Sprintf("VARCHAR(%d)", CPUMaxLen), Nullable: true},
		},
	}
}
