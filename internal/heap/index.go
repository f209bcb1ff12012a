package heap

import (
	"github.com/tuannm99/heapdb/internal/storage"
)

// Index is the storage object behind one index of a table. It owns a
// heap file named <table>_<index>.db and mirrors the table lifecycle.
// It only creates, drops, opens and closes that file; no entries are
// written to it.
type Index struct {
	table string
	name  string
	file  *storage.HeapFile
}

// NewIndex binds an index object for index name on table under dir.
func NewIndex(dir, table, name string) *Index {
	return &Index{
		table: table,
		name:  name,
		file:  storage.NewHeapFile(dir, table+"_"+name),
	}
}

func (ix *Index) Table() string { return ix.table }
func (ix *Index) Name() string  { return ix.name }

func (ix *Index) Create() error { return ix.file.Create() }
func (ix *Index) Drop() error   { return ix.file.Drop() }
func (ix *Index) Open() error   { return ix.file.Open() }
func (ix *Index) Close() error  { return ix.file.Close() }
