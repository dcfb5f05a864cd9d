package directory

import (
	"io"

	"github.com/bgrewell/iso-kit/pkg/consts"
)

// NewFileReader returns an io.SectionReader limited to a file entry's
// extent, so callers can Read/Seek/ReadAt within it without risking
// reads spilling into adjacent extents. Grounded on the lazy, block-backed
// file reader model of spec.md §4.7: no eager full-file copy is made.
func NewFileReader(reader io.ReaderAt, entry *DirectoryEntry) *io.SectionReader {
	base := int64(entry.Record.LocationOfExtent) * int64(consts.ISO9660_SECTOR_SIZE)
	return io.NewSectionReader(reader, base, entry.Size())
}
