// Package catalog implements the self-describing system catalog: the
// three relations _tables, _columns and _indices that hold the schema of
// every relation in the environment, themselves included.
package catalog

import (
	"github.com/tuannm99/heapdb/internal/record"
)

// Names of the system tables.
const (
	TablesName  = "_tables"
	ColumnsName = "_columns"
	IndicesName = "_indices"
)

// IsSystemTable reports whether name is one of the three catalog tables.
func IsSystemTable(name string) bool {
	return name == TablesName || name == ColumnsName || name == IndicesName
}

// The catalog schemas are hard-coded so the system tables can be opened
// without consulting the catalog they implement.
var (
	tablesColumns = []string{"table_name"}
	tablesAttrs   = []record.ColumnAttribute{{Type: record.Text}}

	columnsColumns = []string{"table_name", "column_name", "data_type"}
	columnsAttrs   = []record.ColumnAttribute{
		{Type: record.Text}, {Type: record.Text}, {Type: record.Text},
	}

	indicesColumns = []string{"table_name", "index_name", "seq_in_index", "column_name", "index_type", "is_unique"}
	indicesAttrs   = []record.ColumnAttribute{
		{Type: record.Text}, {Type: record.Text}, {Type: record.Int},
		{Type: record.Text}, {Type: record.Text}, {Type: record.Boolean},
	}
)
