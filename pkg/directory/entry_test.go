package directory

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/susp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileRecord(name string, extent, size uint32) *DirectoryRecord {
	return &DirectoryRecord{
		LocationOfExtent: extent,
		DataLength:       size,
		FileIdentifier:   name,
		FileFlags:        &FileFlags{},
	}
}

func TestDirectoryEntryNameStripsVersion(t *testing.T) {
	rec := newFileRecord("FOO.TXT;1", 20, 5)
	entry := NewEntry(rec, nil, "/", options.Default())
	assert.Equal(t, "FOO.TXT", entry.Name())
	assert.Equal(t, "/FOO.TXT", entry.FullPath())
}

func TestDirectoryEntryAltNameOverridesIdentifier(t *testing.T) {
	rec := newFileRecord("FOO.TXT;1", 20, 5)
	rec.Extra = &susp.ExtraMeta{HasAltName: true, AltName: "foo.txt"}
	entry := NewEntry(rec, nil, "/", options.Default())
	assert.Equal(t, "foo.txt", entry.Name())
}

func TestDirectoryEntryIsDirFallsBackToFlags(t *testing.T) {
	rec := newFileRecord("SUBDIR", 20, 2048)
	rec.FileFlags.Directory = true
	entry := NewEntry(rec, nil, "/", options.Default())
	assert.True(t, entry.IsDir())
}

func TestDirectoryEntrySymlinkTarget(t *testing.T) {
	rec := newFileRecord("LINK", 20, 0)
	rec.Extra = &susp.ExtraMeta{IsSymlink: true, SymlinkTarget: "/usr/bin"}
	entry := NewEntry(rec, nil, "/", options.Default())
	assert.True(t, entry.IsSymlink())
	assert.Equal(t, "/usr/bin", entry.SymlinkTarget())
}

func TestDirectoryEntryRootEntry(t *testing.T) {
	rec := newFileRecord("\x00", 20, 2048)
	entry := NewEntry(rec, nil, "/", options.Default())
	assert.True(t, entry.IsRootEntry())
	assert.Equal(t, "", entry.Name())
}

func TestNewFileReaderReadsWithinExtent(t *testing.T) {
	data := make([]byte, consts.ISO9660_SECTOR_SIZE*2)
	copy(data[consts.ISO9660_SECTOR_SIZE:], []byte("hello world"))
	reader := bytes.NewReader(data)

	rec := newFileRecord("FILE.TXT", 1, 11)
	entry := NewEntry(rec, reader, "/", options.Default())

	sr := NewFileReader(reader, entry)
	buf := make([]byte, 11)
	n, err := sr.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "hello world", string(buf))
}

func TestExtractToDiskWritesFile(t *testing.T) {
	data := make([]byte, consts.ISO9660_SECTOR_SIZE*2)
	copy(data[consts.ISO9660_SECTOR_SIZE:], []byte("payload"))
	reader := bytes.NewReader(data)

	rec := newFileRecord("FILE.TXT", 1, 7)
	entry := NewEntry(rec, reader, "/", options.Default())

	dir := t.TempDir()
	require.NoError(t, entry.ExtractToDisk(dir))

	got, err := os.ReadFile(filepath.Join(dir, "FILE.TXT"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestExtractToDiskCreatesDirectory(t *testing.T) {
	rec := newFileRecord("SUBDIR", 20, 2048)
	rec.FileFlags.Directory = true
	entry := NewEntry(rec, nil, "/", options.Default())

	dir := t.TempDir()
	require.NoError(t, entry.ExtractToDisk(dir))

	info, err := os.Stat(filepath.Join(dir, "SUBDIR"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExtractToDiskCreatesSymlink(t *testing.T) {
	rec := newFileRecord("LINK", 20, 0)
	rec.Extra = &susp.ExtraMeta{IsSymlink: true, SymlinkTarget: "/usr/bin/foo"}
	entry := NewEntry(rec, nil, "/", options.Default())

	dir := t.TempDir()
	require.NoError(t, entry.ExtractToDisk(dir))

	target, err := os.Readlink(filepath.Join(dir, "LINK"))
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/foo", target)
}
