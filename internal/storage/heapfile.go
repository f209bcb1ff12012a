package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tuannm99/heapdb/internal/recno"
)

var ErrNotOpen = errors.New("heapfile: file is not open")

// HeapFile organizes fixed-size blocks inside one recno file. There is
// one block per recno record, so the substrate does the file and buffer
// management while the heap file only tracks block allocation.
type HeapFile struct {
	name   string
	dir    string
	last   BlockID
	closed bool
	db     *recno.File
}

// NewHeapFile binds a heap file to <name>.db under the environment dir.
// The file starts closed; Create or Open makes it usable.
func NewHeapFile(dir, name string) *HeapFile {
	return &HeapFile{name: name, dir: dir, closed: true}
}

// Name reports the relation name this file backs.
func (hf *HeapFile) Name() string { return hf.name }

// Last reports the id of the final block in the file.
func (hf *HeapFile) Last() BlockID { return hf.last }

func (hf *HeapFile) filename() string { return hf.name + ".db" }

// Create makes the backing file, failing if it already exists, and
// allocates block 1 so a fresh file is never empty.
func (hf *HeapFile) Create() error {
	db, err := recno.Create(hf.dir, hf.filename(), BlockSize)
	if err != nil {
		return err
	}
	hf.db = db
	hf.closed = false
	hf.last = 0
	page, err := hf.GetNew()
	if err != nil {
		return err
	}
	if err := hf.Put(page); err != nil {
		return err
	}
	slog.Debug("heapfile: created", "name", hf.name)
	return nil
}

// Drop closes the file and removes it from the substrate. The heap file
// must not be reused afterwards.
func (hf *HeapFile) Drop() error {
	if !hf.closed {
		if err := hf.Close(); err != nil {
			return err
		}
	}
	if err := recno.Remove(hf.dir, hf.filename()); err != nil {
		return err
	}
	slog.Debug("heapfile: dropped", "name", hf.name)
	return nil
}

// Open opens the backing file and reads the block count. Opening an
// already-open file is a no-op.
func (hf *HeapFile) Open() error {
	if !hf.closed {
		return nil
	}
	db, err := recno.Open(hf.dir, hf.filename(), BlockSize)
	if err != nil {
		return err
	}
	count, err := db.Count()
	if err != nil {
		err2 := db.Close()
		return errors.Join(err, err2)
	}
	hf.db = db
	hf.last = count
	hf.closed = false
	return nil
}

// Close releases the backing file. Closing an already-closed file is a
// no-op.
func (hf *HeapFile) Close() error {
	if hf.closed {
		return nil
	}
	if err := hf.db.Close(); err != nil {
		return err
	}
	hf.db = nil
	hf.closed = true
	return nil
}

// GetNew allocates a fresh block at the end of the file and returns it
// as an initialized empty page.
func (hf *HeapFile) GetNew() (*Page, error) {
	if hf.closed {
		return nil, ErrNotOpen
	}
	buf := make([]byte, BlockSize)
	hf.last++
	page, err := NewPage(buf, hf.last, true)
	if err != nil {
		return nil, err
	}
	if err := hf.db.Put(hf.last, buf); err != nil {
		hf.last--
		return nil, err
	}
	return page, nil
}

// Get reads the block into a fresh buffer and returns it as a page.
func (hf *HeapFile) Get(blockID BlockID) (*Page, error) {
	if hf.closed {
		return nil, ErrNotOpen
	}
	if blockID == 0 || blockID > hf.last {
		return nil, fmt.Errorf("heapfile: no block %d in %s", blockID, hf.name)
	}
	buf := make([]byte, BlockSize)
	if err := hf.db.Get(blockID, buf); err != nil {
		return nil, err
	}
	return NewPage(buf, blockID, false)
}

// Put writes the page's buffer back under its block id.
func (hf *HeapFile) Put(page *Page) error {
	if hf.closed {
		return ErrNotOpen
	}
	return hf.db.Put(page.BlockID(), page.buf)
}

// BlockIDs enumerates every block id in the file, in order.
func (hf *HeapFile) BlockIDs() []BlockID {
	ids := make([]BlockID, 0, hf.last)
	for id := BlockID(1); id <= hf.last; id++ {
		ids = append(ids, id)
	}
	return ids
}
