package directory

import (
	"bytes"
	"testing"

	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/susp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendRecord(buf []byte, identifier string, flags uint8, extent, length uint32) []byte {
	idLen := len(identifier)
	recLen := 33 + idLen
	if idLen%2 == 0 {
		recLen++
	}

	rec := make([]byte, recLen)
	rec[0] = byte(recLen)
	putBE32Iter(rec[2:10], extent)
	putBE32Iter(rec[10:18], length)
	copy(rec[18:25], []byte{124, 0, 0, 0, 0, 0, 0})
	rec[25] = flags
	putBE16Iter(rec[28:32], 1)
	rec[32] = byte(idLen)
	copy(rec[33:33+idLen], identifier)

	return append(buf, rec...)
}

func putBE32Iter(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
	dst[4] = byte(v >> 24)
	dst[5] = byte(v >> 16)
	dst[6] = byte(v >> 8)
	dst[7] = byte(v)
}

func putBE16Iter(dst []byte, v uint16) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}

func buildSector(records ...[]byte) []byte {
	sector := make([]byte, consts.ISO9660_SECTOR_SIZE)
	offset := 0
	for _, r := range records {
		copy(sector[offset:], r)
		offset += len(r)
	}
	return sector
}

func TestIteratorSkipsSpecialAndListsChildren(t *testing.T) {
	var dot, dotdot, foo, bar []byte
	dot = appendRecord(dot, "\x00", 0x02, 10, 2048)
	dotdot = appendRecord(dotdot, "\x01", 0x02, 10, 2048)
	foo = appendRecord(foo, "FOO.TXT;1", 0x00, 20, 100)
	bar = appendRecord(bar, "BAR", 0x02, 21, 2048)

	sector := buildSector(dot, dotdot, foo, bar)
	reader := bytes.NewReader(append(make([]byte, 10*consts.ISO9660_SECTOR_SIZE), sector...))

	it := NewIterator(reader, 10, consts.ISO9660_SECTOR_SIZE, "/", false, options.Default())
	entries, err := it.All()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "FOO.TXT", entries[0].Name())
	assert.Equal(t, "BAR", entries[1].Name())
	assert.True(t, entries[1].IsDir())
}

func TestFindLocatesChildCaseInsensitively(t *testing.T) {
	var foo []byte
	foo = appendRecord(foo, "FOO.TXT;1", 0x00, 20, 100)
	sector := buildSector(foo)
	reader := bytes.NewReader(append(make([]byte, 10*consts.ISO9660_SECTOR_SIZE), sector...))

	entry, err := Find(reader, 10, consts.ISO9660_SECTOR_SIZE, "/", false, options.Default(), "foo.txt")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "FOO.TXT", entry.Name())

	entry, err = Find(reader, 10, consts.ISO9660_SECTOR_SIZE, "/", false, options.Default(), "missing")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestEqualFoldISO(t *testing.T) {
	assert.True(t, equalFoldISO("FOO.TXT", "foo.txt"))
	assert.False(t, equalFoldISO("FOO.TXT", "foo.tx"))
	assert.False(t, equalFoldISO("FOO.TXT", "BAR.TXT"))
}

func TestApplyChildLinkRewriteOnFile(t *testing.T) {
	lba := uint32(99)
	record := &DirectoryRecord{
		FileFlags: &FileFlags{},
		Extra:     &susp.ExtraMeta{ChildLink: &lba},
	}
	applyChildLinkRewrite(record, options.Default())
	assert.True(t, record.FileFlags.Directory)
	assert.Equal(t, lba, record.LocationOfExtent)
}

func TestApplyChildLinkRewriteOnExistingDirectoryIsSkipped(t *testing.T) {
	lba := uint32(99)
	record := &DirectoryRecord{
		FileFlags: &FileFlags{Directory: true},
		Extra:     &susp.ExtraMeta{ChildLink: &lba},
	}
	record.LocationOfExtent = 5
	applyChildLinkRewrite(record, options.Default())
	assert.Equal(t, uint32(5), record.LocationOfExtent)
}
