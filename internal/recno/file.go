// Package recno implements the record-number keyed substrate the heap
// storage engine sits on: a named file of fixed-length records addressed
// by a 1-based uint32 key. There is no file header; record k lives at
// byte offset (k-1)*recLen, so the on-disk block format is exactly what
// the page layer wrote.
package recno

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgraph-io/ristretto/v2"
)

var (
	ErrFileExists = errors.New("recno: file already exists")
	ErrNotFound   = errors.New("recno: file not found")
	ErrBadKey     = errors.New("recno: record keys start at 1")
	ErrBadLength  = errors.New("recno: buffer length != record length")
	ErrClosed     = errors.New("recno: file is closed")
)

const (
	// Sizing for the per-file record cache. MaxCost is in bytes, so a
	// file keeps at most ~4MB of hot records in memory.
	cacheNumCounters = 10_000
	cacheMaxCost     = 4 << 20
	cacheBufferItems = 64
)

// File is one fixed-record-length file with a read cache of record
// images. A cache miss always falls back to the file, so eviction is
// harmless.
type File struct {
	path   string
	recLen int
	f      *os.File
	cache  *ristretto.Cache[uint32, []byte]
}

// Create makes the file, failing with ErrFileExists if it is already there.
func Create(dir, name string, recLen int) (*File, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileExists, path)
		}
		return nil, fmt.Errorf("recno: create %s: %w", path, err)
	}
	slog.Debug("recno: created file", "path", path, "reclen", recLen)
	return newFile(path, recLen, f)
}

// Open opens an existing file, failing with ErrNotFound if it is missing.
func Open(dir, name string, recLen int) (*File, error) {
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("recno: open %s: %w", path, err)
	}
	return newFile(path, recLen, f)
}

// Remove deletes the named file from the environment directory.
func Remove(dir, name string) error {
	path := filepath.Join(dir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("recno: remove %s: %w", path, err)
	}
	return nil
}

func newFile(path string, recLen int, f *os.File) (*File, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[uint32, []byte]{
		NumCounters: cacheNumCounters,
		MaxCost:     cacheMaxCost,
		BufferItems: cacheBufferItems,
	})
	if err != nil {
		err2 := f.Close()
		return nil, fmt.Errorf("recno: cache init: %w", errors.Join(err, err2))
	}
	return &File{path: path, recLen: recLen, f: f, cache: cache}, nil
}

// Close releases the handle and the record cache. Closing twice is an error.
func (file *File) Close() error {
	if file.f == nil {
		return ErrClosed
	}
	file.cache.Close()
	file.cache = nil
	err := file.f.Close()
	file.f = nil
	if err != nil {
		return fmt.Errorf("recno: close %s: %w", file.path, err)
	}
	return nil
}

func (file *File) offset(key uint32) int64 {
	return int64(key-1) * int64(file.recLen)
}

// Put writes the record under key, create-or-replace.
func (file *File) Put(key uint32, buf []byte) error {
	if file.f == nil {
		return ErrClosed
	}
	if key == 0 {
		return ErrBadKey
	}
	if len(buf) != file.recLen {
		return ErrBadLength
	}
	// Invalidate rather than update: ristretto applies Sets
	// asynchronously and may drop them, so the only safe cached state
	// after a write is none. Get repopulates from the file.
	file.cache.Del(key)
	if _, err := file.f.WriteAt(buf, file.offset(key)); err != nil {
		return fmt.Errorf("recno: put %s key %d: %w", file.path, key, err)
	}
	return nil
}

// Get reads the record under key into buf. Records past the current end
// of file read back as zeroes, matching a freshly allocated block.
func (file *File) Get(key uint32, buf []byte) error {
	if file.f == nil {
		return ErrClosed
	}
	if key == 0 {
		return ErrBadKey
	}
	if len(buf) != file.recLen {
		return ErrBadLength
	}
	if rec, ok := file.cache.Get(key); ok {
		copy(buf, rec)
		return nil
	}
	n, err := file.f.ReadAt(buf, file.offset(key))
	if err != nil && err != io.EOF {
		return fmt.Errorf("recno: get %s key %d: %w", file.path, key, err)
	}
	for i := n; i < file.recLen; i++ {
		buf[i] = 0
	}
	cp := make([]byte, file.recLen)
	copy(cp, buf)
	file.cache.Set(key, cp, int64(file.recLen))
	// Drain the set buffer so a pending Set can never be applied after
	// a later Del invalidates the same key.
	file.cache.Wait()
	return nil
}

// Del zeroes the record under key. The key space stays dense; callers that
// need tombstoning do it inside the record format.
func (file *File) Del(key uint32) error {
	if file.f == nil {
		return ErrClosed
	}
	if key == 0 {
		return ErrBadKey
	}
	file.cache.Del(key)
	zero := make([]byte, file.recLen)
	if _, err := file.f.WriteAt(zero, file.offset(key)); err != nil {
		return fmt.Errorf("recno: del %s key %d: %w", file.path, key, err)
	}
	return nil
}

// Count reports how many records are currently allocated.
func (file *File) Count() (uint32, error) {
	if file.f == nil {
		return 0, ErrClosed
	}
	st, err := file.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("recno: stat %s: %w", file.path, err)
	}
	return uint32(st.Size() / int64(file.recLen)), nil
}
