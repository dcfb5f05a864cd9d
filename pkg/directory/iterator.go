package directory

import (
	"io"

	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/bgrewell/iso-kit/pkg/isoerr"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/bgrewell/iso-kit/pkg/options"
)

// Iterator walks the records of a single directory extent one sector at a
// time, decoding each DirectoryRecord lazily on Next rather than reading
// the whole (possibly deeply nested) tree up front. This mirrors how an
// on-disc directory is actually laid out: a flat run of fixed + variable
// length records terminated by a zero length byte at the end of each
// logical block, per spec.md §4.7.
type Iterator struct {
	reader     io.ReaderAt
	opts       options.Options
	parentPath string
	joliet     bool

	extent       int64
	remaining    int64
	sectorBuf    []byte
	bufOffset    int
	bufValid     int
	sectorCursor int64
	done         bool
}

// NewIterator constructs an Iterator over the extent described by a
// directory's own DirectoryRecord (LocationOfExtent / DataLength), honoring
// any CL child-link redirection the caller has already resolved into lba.
func NewIterator(reader io.ReaderAt, lba uint32, dataLength uint32, parentPath string, joliet bool, opts options.Options) *Iterator {
	return &Iterator{
		reader:     reader,
		opts:       opts,
		parentPath: parentPath,
		joliet:     joliet,
		extent:     int64(lba),
		remaining:  int64(dataLength),
		sectorBuf:  make([]byte, consts.ISO9660_SECTOR_SIZE),
	}
}

// fillSector reads the next ISO9660_SECTOR_SIZE block of the extent into
// the iterator's buffer.
func (it *Iterator) fillSector() error {
	if it.remaining <= 0 {
		it.done = true
		return nil
	}

	readOffset := it.extent*int64(consts.ISO9660_SECTOR_SIZE) + it.sectorCursor
	n, err := it.reader.ReadAt(it.sectorBuf, readOffset)
	if err != nil && err != io.EOF {
		return isoerr.Wrap(isoerr.KindIO, err)
	}
	if n < len(it.sectorBuf) && int64(n) < it.remaining {
		return isoerr.ShortRead(n)
	}

	it.bufOffset = 0
	it.bufValid = n
	it.sectorCursor += int64(consts.ISO9660_SECTOR_SIZE)
	it.remaining -= int64(consts.ISO9660_SECTOR_SIZE)
	return nil
}

// Next decodes and returns the next directory record in the extent,
// skipping the "." and ".." self/parent records. It returns (nil, nil) once
// the extent is exhausted.
func (it *Iterator) Next() (*DirectoryEntry, error) {
	for {
		if it.bufOffset == 0 && it.bufValid == 0 && !it.done {
			if err := it.fillSector(); err != nil {
				return nil, err
			}
			if it.done {
				return nil, nil
			}
		}
		if it.done {
			return nil, nil
		}

		if it.bufOffset >= it.bufValid || it.sectorBuf[it.bufOffset] == 0 {
			it.bufOffset = 0
			it.bufValid = 0
			if it.remaining <= 0 {
				it.done = true
				return nil, nil
			}
			continue
		}

		entryLen := int(it.sectorBuf[it.bufOffset])
		if it.bufOffset+entryLen > it.bufValid {
			return nil, isoerr.New(isoerr.KindInvalidFS, "directory record crosses a sector boundary")
		}

		record := NewRecord(it.opts.Logger)
		record.Joliet = it.joliet
		if err := record.Unmarshal(it.sectorBuf[it.bufOffset:it.bufOffset+entryLen], it.reader, it.opts); err != nil {
			return nil, err
		}
		it.bufOffset += entryLen

		if record.IsSpecial() {
			// The "." record at the start of the extent carries the
			// directory's own extent length, which replaces a placeholder
			// length such as the one applyChildLinkRewrite sets.
			if record.FileIdentifier == "\x00" && it.sectorCursor == int64(consts.ISO9660_SECTOR_SIZE) {
				it.remaining = int64(record.DataLength) - it.sectorCursor
			}
			continue
		}

		applyChildLinkRewrite(record, it.opts)

		it.opts.Logger.V(logging.LEVEL_TRACE).Info("decoded directory entry", "identifier", record.FileIdentifier)
		return NewEntry(record, it.reader, it.parentPath, it.opts), nil
	}
}

// All drains the iterator into a slice. Intended for small directories and
// test fixtures; callers walking large or untrusted trees should prefer
// Next so memory use tracks what is actually visited.
func (it *Iterator) All() ([]*DirectoryEntry, error) {
	var out []*DirectoryEntry
	for {
		entry, err := it.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return out, nil
		}
		out = append(out, entry)
	}
}

// Find looks up a single child by name, comparing names case-insensitively
// over ASCII (Rock Ridge alternate names included), and skipping associated
// files per spec.md §4.7. It follows a
// CL child-link transparently: when a directory entry carries a CL entry,
// its children are read from the linked extent instead of its own.
func Find(reader io.ReaderAt, lba uint32, dataLength uint32, parentPath string, joliet bool, opts options.Options, name string) (*DirectoryEntry, error) {
	it := NewIterator(reader, lba, dataLength, parentPath, joliet, opts)
	for {
		entry, err := it.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			return nil, nil
		}
		if entry.IsAssociatedFile() {
			continue
		}
		if equalFoldISO(entry.Name(), name) {
			return entry, nil
		}
	}
}

// applyChildLinkRewrite implements the Child-Link rewrite of spec.md §4.7
// step 6: a relocated directory masquerades on-disc as a File record with a
// CL entry pointing at the real directory block. When that's what we see,
// the record is rewritten in place to a Directory pointing at the linked
// extent, with a one-block placeholder length that Next refines from the
// linked extent's own "." record on first access. A CL entry
// found on a record that is already a Directory is not a relocation (Open
// Question (i)); it is left untouched and only logged.
func applyChildLinkRewrite(record *DirectoryRecord, opts options.Options) {
	if record.Extra == nil || record.Extra.ChildLink == nil {
		return
	}
	if record.FileFlags.Directory {
		opts.Logger.Error(nil, "CL child-link found on a non-file entry, leaving it unrewritten",
			"identifier", record.FileIdentifier)
		return
	}
	record.FileFlags.Directory = true
	record.LocationOfExtent = *record.Extra.ChildLink
	record.DataLength = consts.ISO9660_SECTOR_SIZE
}

func equalFoldISO(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
