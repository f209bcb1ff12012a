// Package executor runs parsed statements against the catalog. DDL that
// touches both catalog rows and backing files compensates in reverse
// order when a later step fails, so a half-created table or index leaves
// no catalog residue behind.
package executor

import (
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/tuannm99/heapdb/internal/catalog"
	"github.com/tuannm99/heapdb/internal/heap"
	"github.com/tuannm99/heapdb/internal/record"
	"github.com/tuannm99/heapdb/internal/sql/parser"
)

// Executor executes statements against one catalog.
type Executor struct {
	cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Executor {
	return &Executor{cat: cat}
}

// ExecLine parses one input line and executes every statement in it,
// stopping at the first failure.
func (e *Executor) ExecLine(line string) ([]*Result, error) {
	stmts, err := parser.ParseAll(line)
	if err != nil {
		return nil, err
	}
	var results []*Result
	for _, stmt := range stmts {
		res, err := e.Exec(stmt)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Exec dispatches one statement. Any substrate error escaping a handler
// is wrapped as a relation error here, at the executor boundary.
func (e *Executor) Exec(stmt parser.Statement) (*Result, error) {
	res, err := e.exec(stmt)
	if err != nil && !errors.Is(err, heap.ErrRelation) {
		err = fmt.Errorf("%w: %v", heap.ErrRelation, err)
	}
	return res, err
}

func (e *Executor) exec(stmt parser.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return e.createTable(s)
	case *parser.DropTableStmt:
		return e.dropTable(s)
	case *parser.CreateIndexStmt:
		return e.createIndex(s)
	case *parser.DropIndexStmt:
		return e.dropIndex(s)
	case *parser.ShowTablesStmt:
		return e.showTables()
	case *parser.ShowColumnsStmt:
		return e.showColumns(s)
	case *parser.ShowIndexStmt:
		return e.showIndex(s)
	default:
		return nil, fmt.Errorf("%w: unsupported statement type %T", heap.ErrRelation, stmt)
	}
}

// createTable registers the table in _tables and _columns, then creates
// the backing file. If any step after the _tables insert fails, the
// catalog rows are deleted again in reverse order and the original
// error is returned; compensation errors are logged and swallowed.
func (e *Executor) createTable(s *parser.CreateTableStmt) (*Result, error) {
	if s.IfNotExists {
		exists, err := e.cat.TableExists(s.Table)
		if err != nil {
			return nil, err
		}
		if exists {
			return &Result{Message: fmt.Sprintf("table %s already exists", s.Table)}, nil
		}
	}

	tableHandle, err := e.cat.Tables().Insert(record.Row{
		"table_name": record.TextValue(s.Table),
	})
	if err != nil {
		return nil, err
	}

	var colHandles []heap.Handle
	undo := func(cause error) error {
		var secondary error
		for i := len(colHandles) - 1; i >= 0; i-- {
			secondary = multierr.Append(secondary, e.cat.Columns().Del(colHandles[i]))
		}
		secondary = multierr.Append(secondary, e.cat.Tables().Del(tableHandle))
		e.cat.Evict(s.Table)
		if secondary != nil {
			slog.Warn("executor: create table rollback errors swallowed",
				"table", s.Table, "err", secondary)
		}
		return cause
	}

	for _, col := range s.Columns {
		h, err := e.cat.Columns().Insert(record.Row{
			"table_name":  record.TextValue(s.Table),
			"column_name": record.TextValue(col.Name),
			"data_type":   record.TextValue(col.Type),
		})
		if err != nil {
			return nil, undo(err)
		}
		colHandles = append(colHandles, h)
	}

	table, err := e.cat.GetTable(s.Table)
	if err != nil {
		return nil, undo(err)
	}
	if s.IfNotExists {
		err = table.CreateIfNotExists()
	} else {
		err = table.Create()
	}
	if err != nil {
		return nil, undo(err)
	}

	slog.Info("executor: created table", "table", s.Table, "columns", len(s.Columns))
	return &Result{Message: "created " + s.Table}, nil
}

// createIndex checks the table and its columns, registers one _indices
// row per indexed column, then creates the index object. On failure the
// object is dropped and the rows deleted, best-effort, before the
// original error surfaces.
func (e *Executor) createIndex(s *parser.CreateIndexStmt) (*Result, error) {
	exists, err := e.cat.TableExists(s.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: table %s does not exist", heap.ErrRelation, s.Table)
	}
	columnNames, _, err := e.cat.GetColumns(s.Table)
	if err != nil {
		return nil, err
	}
	known := map[string]bool{}
	for _, name := range columnNames {
		known[name] = true
	}
	for _, name := range s.Columns {
		if !known[name] {
			return nil, fmt.Errorf("%w: table %s does not have column %q", heap.ErrRelation, s.Table, name)
		}
	}

	var rowHandles []heap.Handle
	for i, name := range s.Columns {
		h, err := e.cat.Indices().Insert(record.Row{
			"table_name":   record.TextValue(s.Table),
			"index_name":   record.TextValue(s.Index),
			"seq_in_index": record.IntValue(int32(i + 1)),
			"column_name":  record.TextValue(name),
			"index_type":   record.TextValue(s.Using),
			"is_unique":    record.BoolValue(s.Using == "BTREE"),
		})
		if err != nil {
			return nil, e.undoCreateIndex(s, rowHandles, err)
		}
		rowHandles = append(rowHandles, h)
	}

	if err := e.cat.GetIndex(s.Table, s.Index).Create(); err != nil {
		return nil, e.undoCreateIndex(s, rowHandles, err)
	}

	slog.Info("executor: created index", "table", s.Table, "index", s.Index)
	return &Result{Message: "created index " + s.Index}, nil
}

func (e *Executor) undoCreateIndex(s *parser.CreateIndexStmt, rowHandles []heap.Handle, cause error) error {
	secondary := e.cat.GetIndex(s.Table, s.Index).Drop()
	for i := len(rowHandles) - 1; i >= 0; i-- {
		secondary = multierr.Append(secondary, e.cat.Indices().Del(rowHandles[i]))
	}
	e.cat.EvictIndex(s.Table, s.Index)
	if secondary != nil {
		slog.Warn("executor: create index rollback errors swallowed",
			"table", s.Table, "index", s.Index, "err", secondary)
	}
	return cause
}

// dropTable drops the table's indices, its _columns rows, its backing
// file and finally its _tables row. System tables are refused.
func (e *Executor) dropTable(s *parser.DropTableStmt) (*Result, error) {
	if catalog.IsSystemTable(s.Table) {
		return nil, fmt.Errorf("%w: cannot drop system table %s", heap.ErrRelation, s.Table)
	}
	exists, err := e.cat.TableExists(s.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: table %s does not exist", heap.ErrRelation, s.Table)
	}

	indexNames, err := e.cat.GetIndexNames(s.Table)
	if err != nil {
		return nil, err
	}
	for _, name := range indexNames {
		if err := e.dropIndexOn(s.Table, name); err != nil {
			return nil, err
		}
	}

	where := record.Row{"table_name": record.TextValue(s.Table)}
	colHandles, err := e.cat.Columns().Select(where)
	if err != nil {
		return nil, err
	}
	for _, h := range colHandles {
		if err := e.cat.Columns().Del(h); err != nil {
			return nil, err
		}
	}

	table, err := e.cat.GetTable(s.Table)
	if err != nil {
		return nil, err
	}
	if err := table.Drop(); err != nil {
		return nil, err
	}
	e.cat.Evict(s.Table)

	tableHandles, err := e.cat.Tables().Select(where)
	if err != nil {
		return nil, err
	}
	for _, h := range tableHandles {
		if err := e.cat.Tables().Del(h); err != nil {
			return nil, err
		}
		break // one row per table
	}

	slog.Info("executor: dropped table", "table", s.Table)
	return &Result{Message: "dropped " + s.Table}, nil
}

func (e *Executor) dropIndex(s *parser.DropIndexStmt) (*Result, error) {
	if err := e.dropIndexOn(s.Table, s.Index); err != nil {
		return nil, err
	}
	slog.Info("executor: dropped index", "table", s.Table, "index", s.Index)
	return &Result{Message: "dropped index " + s.Index}, nil
}

// dropIndexOn drops the index object, then removes its catalog rows.
func (e *Executor) dropIndexOn(table, index string) error {
	if err := e.cat.GetIndex(table, index).Drop(); err != nil {
		return err
	}
	e.cat.EvictIndex(table, index)

	handles, err := e.cat.Indices().Select(record.Row{
		"table_name": record.TextValue(table),
		"index_name": record.TextValue(index),
	})
	if err != nil {
		return err
	}
	for _, h := range handles {
		if err := e.cat.Indices().Del(h); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) showTables() (*Result, error) {
	columnNames, columnAttrs, err := e.cat.GetColumns(catalog.TablesName)
	if err != nil {
		return nil, err
	}
	handles, err := e.cat.Tables().Select(nil)
	if err != nil {
		return nil, err
	}
	rows := make([]record.Row, 0, len(handles))
	for _, h := range handles {
		row, err := e.cat.Tables().ProjectColumns(h, columnNames)
		if err != nil {
			return nil, err
		}
		if catalog.IsSystemTable(row["table_name"].S) {
			continue
		}
		rows = append(rows, row)
	}
	return &Result{
		ColumnNames: columnNames,
		ColumnAttrs: columnAttrs,
		Rows:        rows,
		Message:     fmt.Sprintf("successfully returned %d rows", len(rows)),
	}, nil
}

func (e *Executor) showColumns(s *parser.ShowColumnsStmt) (*Result, error) {
	columnNames, columnAttrs, err := e.cat.GetColumns(catalog.ColumnsName)
	if err != nil {
		return nil, err
	}
	handles, err := e.cat.Columns().Select(record.Row{
		"table_name": record.TextValue(s.Table),
	})
	if err != nil {
		return nil, err
	}
	rows := make([]record.Row, 0, len(handles))
	for _, h := range handles {
		row, err := e.cat.Columns().ProjectColumns(h, columnNames)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return &Result{
		ColumnNames: columnNames,
		ColumnAttrs: columnAttrs,
		Rows:        rows,
		Message:     fmt.Sprintf("successfully returned %d rows", len(rows)),
	}, nil
}

func (e *Executor) showIndex(s *parser.ShowIndexStmt) (*Result, error) {
	exists, err := e.cat.TableExists(s.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: table %s does not exist", heap.ErrRelation, s.Table)
	}
	columnNames, columnAttrs, err := e.cat.GetColumns(catalog.IndicesName)
	if err != nil {
		return nil, err
	}
	handles, err := e.cat.Indices().Select(record.Row{
		"table_name": record.TextValue(s.Table),
	})
	if err != nil {
		return nil, err
	}
	rows := make([]record.Row, 0, len(handles))
	for _, h := range handles {
		row, err := e.cat.Indices().ProjectColumns(h, columnNames)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return &Result{
		ColumnNames: columnNames,
		ColumnAttrs: columnAttrs,
		Rows:        rows,
		Message:     fmt.Sprintf("successfully returned %d rows", len(rows)),
	}, nil
}
