package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/heapdb/internal/recno"
)

func newTestHeapFile(t *testing.T) *HeapFile {
	t.Helper()

	hf := NewHeapFile(t.TempDir(), "users")
	require.NoError(t, hf.Create())
	t.Cleanup(func() { _ = hf.Close() })
	return hf
}

func TestHeapFile_CreateHasOneBlock(t *testing.T) {
	hf := newTestHeapFile(t)

	require.Equal(t, BlockID(1), hf.Last())
	require.Equal(t, []BlockID{1}, hf.BlockIDs())

	page, err := hf.Get(1)
	require.NoError(t, err)
	require.Equal(t, uint16(0), page.NumRecords())
	require.Equal(t, uint16(BlockSize-1), page.EndFree())
}

func TestHeapFile_CreateTwiceFails(t *testing.T) {
	dir := t.TempDir()
	hf := NewHeapFile(dir, "users")
	require.NoError(t, hf.Create())
	require.NoError(t, hf.Close())

	again := NewHeapFile(dir, "users")
	require.ErrorIs(t, again.Create(), recno.ErrFileExists)
}

func TestHeapFile_GetNewAllocatesDenseIDs(t *testing.T) {
	hf := newTestHeapFile(t)

	for want := BlockID(2); want <= 5; want++ {
		page, err := hf.GetNew()
		require.NoError(t, err)
		require.Equal(t, want, page.BlockID())
	}
	require.Equal(t, []BlockID{1, 2, 3, 4, 5}, hf.BlockIDs())
}

func TestHeapFile_PutThenGetRoundTrip(t *testing.T) {
	hf := newTestHeapFile(t)

	page, err := hf.Get(1)
	require.NoError(t, err)
	id, err := page.Add([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, hf.Put(page))

	again, err := hf.Get(1)
	require.NoError(t, err)
	data, err := again.Get(id)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestHeapFile_ReopenReadsBlockCount(t *testing.T) {
	dir := t.TempDir()
	hf := NewHeapFile(dir, "users")
	require.NoError(t, hf.Create())
	_, err := hf.GetNew()
	require.NoError(t, err)
	_, err = hf.GetNew()
	require.NoError(t, err)
	require.NoError(t, hf.Close())

	hf2 := NewHeapFile(dir, "users")
	require.NoError(t, hf2.Open())
	defer func() { _ = hf2.Close() }()
	require.Equal(t, BlockID(3), hf2.Last())
}

func TestHeapFile_OpenCloseIdempotent(t *testing.T) {
	hf := newTestHeapFile(t)

	require.NoError(t, hf.Open())
	require.NoError(t, hf.Close())
	require.NoError(t, hf.Close())
	require.NoError(t, hf.Open())
}

func TestHeapFile_OperationsRequireOpen(t *testing.T) {
	hf := newTestHeapFile(t)
	require.NoError(t, hf.Close())

	_, err := hf.GetNew()
	require.ErrorIs(t, err, ErrNotOpen)
	_, err = hf.Get(1)
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestHeapFile_DropRemovesFile(t *testing.T) {
	dir := t.TempDir()
	hf := NewHeapFile(dir, "users")
	require.NoError(t, hf.Create())
	require.NoError(t, hf.Drop())

	hf2 := NewHeapFile(dir, "users")
	require.ErrorIs(t, hf2.Open(), recno.ErrNotFound)

	// drop then create of the same name starts fresh
	hf3 := NewHeapFile(dir, "users")
	require.NoError(t, hf3.Create())
	defer func() { _ = hf3.Close() }()
	require.Equal(t, BlockID(1), hf3.Last())
}

func TestHeapFile_GetOutOfRange(t *testing.T) {
	hf := newTestHeapFile(t)

	_, err := hf.Get(0)
	require.Error(t, err)
	_, err = hf.Get(99)
	require.Error(t, err)
}
