package heap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tuannm99/heapdb/internal/recno"
	"github.com/tuannm99/heapdb/internal/record"
	"github.com/tuannm99/heapdb/internal/storage"
)

// Table is a relation stored in one heap file. The schema is fixed at
// construction; rows are validated against it on every insert.
type Table struct {
	name        string
	columnNames []string
	columnAttrs []record.ColumnAttribute
	file        *storage.HeapFile
}

// NewTable binds a relation to its backing heap file under dir. Nothing
// touches the filesystem until Create or Open.
func NewTable(dir, name string, columnNames []string, columnAttrs []record.ColumnAttribute) *Table {
	return &Table{
		name:        name,
		columnNames: columnNames,
		columnAttrs: columnAttrs,
		file:        storage.NewHeapFile(dir, name),
	}
}

func (t *Table) Name() string { return t.name }

// ColumnNames returns the schema column names in declaration order.
func (t *Table) ColumnNames() []string { return t.columnNames }

// ColumnAttributes returns the per-column attributes, parallel to
// ColumnNames.
func (t *Table) ColumnAttributes() []record.ColumnAttribute { return t.columnAttrs }

// Create makes the backing file; it fails if the relation already exists.
func (t *Table) Create() error {
	return t.file.Create()
}

// CreateIfNotExists opens the relation, creating it first if the backing
// file is missing.
func (t *Table) CreateIfNotExists() error {
	err := t.Open()
	if err == nil {
		return nil
	}
	if errors.Is(err, recno.ErrNotFound) {
		return t.Create()
	}
	return err
}

// Drop removes the backing file. The table must not be used afterwards.
func (t *Table) Drop() error {
	return t.file.Drop()
}

// Open and Close delegate to the heap file; both are idempotent.
func (t *Table) Open() error  { return t.file.Open() }
func (t *Table) Close() error { return t.file.Close() }

// Insert validates the row against the schema, appends it to the last
// block (allocating a new one when full) and returns its handle.
func (t *Table) Insert(row record.Row) (Handle, error) {
	if err := t.Open(); err != nil {
		return Handle{}, err
	}
	full, err := t.validate(row)
	if err != nil {
		return Handle{}, err
	}
	return t.append(full)
}

// Del tombstones the row behind handle.
func (t *Table) Del(h Handle) error {
	if err := t.Open(); err != nil {
		return err
	}
	page, err := t.file.Get(h.BlockID)
	if err != nil {
		return err
	}
	if err := page.Del(h.RecordID); err != nil {
		return err
	}
	return t.file.Put(page)
}

// Select returns the handles of all rows matching where; a nil where
// matches everything. Each where entry must be present and equal in the
// projected row.
func (t *Table) Select(where record.Row) ([]Handle, error) {
	if err := t.Open(); err != nil {
		return nil, err
	}
	var handles []Handle
	for _, blockID := range t.file.BlockIDs() {
		page, err := t.file.Get(blockID)
		if err != nil {
			return nil, err
		}
		for _, recordID := range page.IDs() {
			h := Handle{BlockID: blockID, RecordID: recordID}
			if where != nil {
				row, err := t.Project(h)
				if err != nil {
					return nil, err
				}
				if !matches(row, where) {
					continue
				}
			}
			handles = append(handles, h)
		}
	}
	return handles, nil
}

func matches(row, where record.Row) bool {
	for name, want := range where {
		got, ok := row[name]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// Project returns the full row behind handle as a fresh, caller-owned map.
func (t *Table) Project(h Handle) (record.Row, error) {
	if err := t.Open(); err != nil {
		return nil, err
	}
	page, err := t.file.Get(h.BlockID)
	if err != nil {
		return nil, err
	}
	data, err := page.Get(h.RecordID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: no record %d in block %d of %s", ErrRelation, h.RecordID, h.BlockID, t.name)
	}
	return record.Unmarshal(t.columnNames, t.columnAttrs, data)
}

// ProjectColumns returns just the named columns of the row behind handle.
// An empty list means all columns.
func (t *Table) ProjectColumns(h Handle, columnNames []string) (record.Row, error) {
	row, err := t.Project(h)
	if err != nil {
		return nil, err
	}
	if len(columnNames) == 0 {
		return row, nil
	}
	out := make(record.Row, len(columnNames))
	for _, name := range columnNames {
		value, ok := row[name]
		if !ok {
			return nil, fmt.Errorf("%w: table does not have column %q", ErrRelation, name)
		}
		out[name] = value
	}
	return out, nil
}

// validate checks that every schema column appears in row and returns the
// fully-qualified row holding only schema columns; extra keys are dropped.
func (t *Table) validate(row record.Row) (record.Row, error) {
	full := make(record.Row, len(t.columnNames))
	for _, name := range t.columnNames {
		value, ok := row[name]
		if !ok {
			return nil, fmt.Errorf("%w: row is missing column %q", ErrRelation, name)
		}
		full[name] = value
	}
	return full, nil
}

// append marshals the row onto the last block, spilling to a freshly
// allocated block when the page reports no room.
func (t *Table) append(row record.Row) (Handle, error) {
	data, err := record.Marshal(t.columnNames, t.columnAttrs, row)
	if err != nil {
		return Handle{}, err
	}
	if len(data) > storage.BlockSize {
		return Handle{}, fmt.Errorf("%w: row of %d bytes does not fit a block", ErrRelation, len(data))
	}
	page, err := t.file.Get(t.file.Last())
	if err != nil {
		return Handle{}, err
	}
	recordID, err := page.Add(data)
	if errors.Is(err, storage.ErrNoRoom) {
		page, err = t.file.GetNew()
		if err != nil {
			return Handle{}, err
		}
		recordID, err = page.Add(data)
		if err != nil {
			slog.Warn("heap: row does not fit an empty block", "table", t.name, "bytes", len(data))
			return Handle{}, fmt.Errorf("%w: row of %d bytes does not fit a block", ErrRelation, len(data))
		}
	} else if err != nil {
		return Handle{}, err
	}
	if err := t.file.Put(page); err != nil {
		return Handle{}, err
	}
	return Handle{BlockID: page.BlockID(), RecordID: recordID}, nil
}
