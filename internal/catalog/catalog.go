package catalog

import (
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/tuannm99/heapdb/internal/heap"
	"github.com/tuannm99/heapdb/internal/recno"
	"github.com/tuannm99/heapdb/internal/record"
)

// Catalog owns the three system tables and the process-wide cache of
// open relations. There is one Catalog per database environment; all
// DDL goes through it.
type Catalog struct {
	dir     string
	tables  *heap.Table
	columns *heap.Table
	indices *heap.Table
	cache   map[string]*heap.Table
	indexes map[string]*heap.Index
}

// Open builds the catalog for the environment directory, bootstrapping
// the system tables on a fresh environment: each missing catalog file is
// created and seeded with the rows that describe the catalog itself.
func Open(dir string) (*Catalog, error) {
	c := &Catalog{
		dir:     dir,
		tables:  heap.NewTable(dir, TablesName, tablesColumns, tablesAttrs),
		columns: heap.NewTable(dir, ColumnsName, columnsColumns, columnsAttrs),
		indices: heap.NewTable(dir, IndicesName, indicesColumns, indicesAttrs),
		cache:   map[string]*heap.Table{},
		indexes: map[string]*heap.Index{},
	}
	c.cache[TablesName] = c.tables
	c.cache[ColumnsName] = c.columns
	c.cache[IndicesName] = c.indices

	if err := c.bootstrap(); err != nil {
		return nil, err
	}
	return c, nil
}

// bootstrap opens each system table, creating and seeding it when its
// backing file does not exist yet.
func (c *Catalog) bootstrap() error {
	fresh, err := openOrCreate(c.tables)
	if err != nil {
		return err
	}
	if fresh {
		slog.Info("catalog: bootstrapping fresh environment", "dir", c.dir)
		for _, name := range []string{TablesName, ColumnsName, IndicesName} {
			if _, err := c.tables.Insert(record.Row{"table_name": record.TextValue(name)}); err != nil {
				return err
			}
		}
	}

	fresh, err = openOrCreate(c.columns)
	if err != nil {
		return err
	}
	if fresh {
		for _, seed := range []struct {
			table string
			names []string
			attrs []record.ColumnAttribute
		}{
			{TablesName, tablesColumns, tablesAttrs},
			{ColumnsName, columnsColumns, columnsAttrs},
			{IndicesName, indicesColumns, indicesAttrs},
		} {
			for i, name := range seed.names {
				row := record.Row{
					"table_name":  record.TextValue(seed.table),
					"column_name": record.TextValue(name),
					"data_type":   record.TextValue(seed.attrs[i].Type.String()),
				}
				if _, err := c.columns.Insert(row); err != nil {
					return err
				}
			}
		}
	}

	_, err = openOrCreate(c.indices)
	return err
}

func openOrCreate(t *heap.Table) (fresh bool, err error) {
	err = t.Open()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, recno.ErrNotFound) {
		return false, err
	}
	return true, t.Create()
}

// Dir reports the environment directory the catalog manages.
func (c *Catalog) Dir() string { return c.dir }

// Tables, Columns and Indices expose the system table singletons.
func (c *Catalog) Tables() *heap.Table  { return c.tables }
func (c *Catalog) Columns() *heap.Table { return c.columns }
func (c *Catalog) Indices() *heap.Table { return c.indices }

// GetTable returns the open-table cache entry for name, constructing it
// from the catalog on first access. System table names resolve to the
// hard-coded singletons.
func (c *Catalog) GetTable(name string) (*heap.Table, error) {
	if t, ok := c.cache[name]; ok {
		return t, nil
	}
	names, attrs, err := c.GetColumns(name)
	if err != nil {
		return nil, err
	}
	t := heap.NewTable(c.dir, name, names, attrs)
	c.cache[name] = t
	return t, nil
}

// GetColumns returns the column names and attributes of name, in
// declaration order (the row order inside _columns).
func (c *Catalog) GetColumns(name string) ([]string, []record.ColumnAttribute, error) {
	switch name {
	case TablesName:
		return tablesColumns, tablesAttrs, nil
	case ColumnsName:
		return columnsColumns, columnsAttrs, nil
	case IndicesName:
		return indicesColumns, indicesAttrs, nil
	}

	where := record.Row{"table_name": record.TextValue(name)}
	handles, err := c.columns.Select(where)
	if err != nil {
		return nil, nil, err
	}
	if len(handles) == 0 {
		return nil, nil, fmt.Errorf("%w: unknown table %q", heap.ErrRelation, name)
	}
	names := make([]string, 0, len(handles))
	attrs := make([]record.ColumnAttribute, 0, len(handles))
	for _, h := range handles {
		row, err := c.columns.Project(h)
		if err != nil {
			return nil, nil, err
		}
		dt, err := record.DataTypeOf(row["data_type"].S)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, row["column_name"].S)
		attrs = append(attrs, record.ColumnAttribute{Type: dt})
	}
	return names, attrs, nil
}

// TableExists reports whether name has a row in _tables.
func (c *Catalog) TableExists(name string) (bool, error) {
	handles, err := c.tables.Select(record.Row{"table_name": record.TextValue(name)})
	if err != nil {
		return false, err
	}
	return len(handles) > 0, nil
}

// Evict drops the cached relation for name after its backing file is
// gone, so a later CREATE of the same name starts from a fresh object.
// The system table singletons are never evicted.
func (c *Catalog) Evict(name string) {
	if IsSystemTable(name) {
		return
	}
	if t, ok := c.cache[name]; ok {
		_ = t.Close()
		delete(c.cache, name)
	}
}

// GetIndex returns the index object for (table, indexName), cached until
// EvictIndex removes it after a drop, like tables are.
func (c *Catalog) GetIndex(table, indexName string) *heap.Index {
	key := table + "_" + indexName
	if ix, ok := c.indexes[key]; ok {
		return ix
	}
	ix := heap.NewIndex(c.dir, table, indexName)
	c.indexes[key] = ix
	return ix
}

// EvictIndex forgets the cached index object after a drop.
func (c *Catalog) EvictIndex(table, indexName string) {
	key := table + "_" + indexName
	if ix, ok := c.indexes[key]; ok {
		_ = ix.Close()
		delete(c.indexes, key)
	}
}

// GetIndexNames lists the distinct index names on table, in catalog row
// order.
func (c *Catalog) GetIndexNames(table string) ([]string, error) {
	handles, err := c.indices.Select(record.Row{"table_name": record.TextValue(table)})
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, h := range handles {
		row, err := c.indices.Project(h)
		if err != nil {
			return nil, err
		}
		name := row["index_name"].S
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// Close closes every open relation the catalog holds. All close errors
// are reported; none short-circuits the rest.
func (c *Catalog) Close() error {
	var err error
	for _, t := range c.cache {
		err = multierr.Append(err, t.Close())
	}
	for _, ix := range c.indexes {
		err = multierr.Append(err, ix.Close())
	}
	return err
}
