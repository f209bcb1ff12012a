package storage

import (
	"errors"

	"github.com/tuannm99/heapdb/internal/bx"
)

// BlockSize is the fixed length of every block in every heap file.
const BlockSize = 4096

var (
	ErrNoRoom    = errors.New("page: not enough room for record")
	ErrWrongSize = errors.New("page: buffer size != BlockSize")
	ErrBadRecord = errors.New("page: invalid record id")
	ErrRecTooBig = errors.New("page: record larger than a block")
)

// RecordID identifies a record inside one page. Ids are handed out
// sequentially from 1 and are never reused, even after deletion.
type RecordID = uint16

// BlockID identifies a block inside one heap file, 1-based and dense.
type BlockID = uint32

// Page is a slotted page over one fixed-size block.
//
// Layout (all little-endian uint16):
//
//	bytes 0..1       number of records ever added
//	bytes 2..3       offset of the last byte of free space
//	bytes 4i..4i+1   size of record i
//	bytes 4i+2..4i+3 offset of record i   (size==0 && loc==0 => tombstone)
//
// Record bodies are packed against the high end of the block and grow
// downward; the slot directory grows upward from the header.
type Page struct {
	buf        []byte
	blockID    BlockID
	numRecords uint16
	endFree    uint16
}

// NewPage wraps buf as a slotted page. When isNew, the header is reset to
// the empty state and written into buf; otherwise it is parsed from buf.
func NewPage(buf []byte, blockID BlockID, isNew bool) (*Page, error) {
	if len(buf) != BlockSize {
		return nil, ErrWrongSize
	}
	p := &Page{buf: buf, blockID: blockID}
	if isNew {
		p.numRecords = 0
		p.endFree = BlockSize - 1
		p.putHeader()
	} else {
		p.numRecords = bx.U16At(buf, 0)
		p.endFree = bx.U16At(buf, 2)
	}
	return p, nil
}

// BlockID reports which block this page is managing.
func (p *Page) BlockID() BlockID { return p.blockID }

// NumRecords reports the highest record id ever assigned in this page.
func (p *Page) NumRecords() uint16 { return p.numRecords }

// EndFree reports the offset of the last byte of free space.
func (p *Page) EndFree() uint16 { return p.endFree }

func (p *Page) header(id RecordID) (size, loc uint16) {
	return bx.U16At(p.buf, 4*int(id)), bx.U16At(p.buf, 4*int(id)+2)
}

func (p *Page) setHeader(id RecordID, size, loc uint16) {
	bx.PutU16At(p.buf, 4*int(id), size)
	bx.PutU16At(p.buf, 4*int(id)+2, loc)
}

func (p *Page) putHeader() {
	bx.PutU16At(p.buf, 0, p.numRecords)
	bx.PutU16At(p.buf, 2, p.endFree)
}

// hasRoom reports whether size more bytes fit, counting one more slot
// directory entry.
func (p *Page) hasRoom(size int) bool {
	return 4*(int(p.numRecords)+1)+size <= int(p.endFree)
}

// Add appends data as a new record and returns its id.
func (p *Page) Add(data []byte) (RecordID, error) {
	size := len(data)
	if size > BlockSize {
		return 0, ErrRecTooBig
	}
	if !p.hasRoom(size) {
		return 0, ErrNoRoom
	}
	p.numRecords++
	id := p.numRecords
	p.endFree -= uint16(size)
	loc := p.endFree + 1
	p.putHeader()
	p.setHeader(id, uint16(size), loc)
	copy(p.buf[loc:int(loc)+size], data)
	return id, nil
}

// Get copies out the record bytes. A tombstoned id yields nil bytes and
// no error.
func (p *Page) Get(id RecordID) ([]byte, error) {
	if id == 0 || id > p.numRecords {
		return nil, ErrBadRecord
	}
	size, loc := p.header(id)
	if size == 0 && loc == 0 {
		return nil, nil
	}
	out := make([]byte, size)
	copy(out, p.buf[loc:loc+size])
	return out, nil
}

// Put replaces the record with data, sliding neighbours to make or
// reclaim room. The record id is stable across the move.
func (p *Page) Put(id RecordID, data []byte) error {
	if id == 0 || id > p.numRecords {
		return ErrBadRecord
	}
	oldSize, loc := p.header(id)
	if oldSize == 0 && loc == 0 {
		return ErrBadRecord
	}
	newSize := len(data)
	if newSize > BlockSize {
		return ErrRecTooBig
	}
	if newSize > int(oldSize) {
		extra := newSize - int(oldSize)
		if !p.hasRoom(extra) {
			return ErrNoRoom
		}
		p.slide(int(loc), int(loc)-extra)
		copy(p.buf[int(loc)-extra:int(loc)-extra+newSize], data)
	} else {
		copy(p.buf[int(loc):int(loc)+newSize], data)
		p.slide(int(loc)+newSize, int(loc)+int(oldSize))
	}
	_, loc = p.header(id) // slide moved it
	p.setHeader(id, uint16(newSize), loc)
	return nil
}

// Del tombstones the record and compacts the data region. The id stays
// reserved; Get reports nil and IDs skips it from now on.
func (p *Page) Del(id RecordID) error {
	if id == 0 || id > p.numRecords {
		return ErrBadRecord
	}
	size, loc := p.header(id)
	if size == 0 && loc == 0 {
		return nil
	}
	p.setHeader(id, 0, 0)
	p.slide(int(loc), int(loc)+int(size))
	return nil
}

// IDs returns the live record ids in increasing order.
func (p *Page) IDs() []RecordID {
	ids := make([]RecordID, 0, p.numRecords)
	for id := RecordID(1); id <= p.numRecords; id++ {
		size, loc := p.header(id)
		if size == 0 && loc == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// slide moves the packed data region [endFree+1, start) by end-start
// bytes and fixes up every slot whose record sat at or left of start.
// A negative shift widens a record, a positive shift reclaims space;
// either way the region stays packed against the high end of the block.
func (p *Page) slide(start, end int) {
	shift := end - start
	if shift == 0 {
		return
	}
	lo := int(p.endFree) + 1
	copy(p.buf[lo+shift:start+shift], p.buf[lo:start])
	for _, id := range p.IDs() {
		size, loc := p.header(id)
		if int(loc) <= start {
			p.setHeader(id, size, uint16(int(loc)+shift))
		}
	}
	p.endFree = uint16(int(p.endFree) + shift)
	p.putHeader()
}
