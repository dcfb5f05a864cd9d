// Package iso implements a portable, read-only ISO 9660 / ECMA-119 mount,
// with Joliet and Rock Ridge / SUSP extensions, over any io.ReaderAt block
// source.
package iso

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/bgrewell/iso-kit/pkg/descriptor"
	"github.com/bgrewell/iso-kit/pkg/directory"
	"github.com/bgrewell/iso-kit/pkg/isoerr"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/path"
	"github.com/bgrewell/iso-kit/pkg/systemarea"
	"github.com/go-logr/logr"
)

// Re-exported so callers can write iso.Option/iso.WithRockRidgeEnabled
// without importing pkg/options directly, matching the teacher's surface.
type (
	Option  = options.Option
	Options = options.Options
)

var (
	WithIsoType            = options.WithIsoType
	WithStripVersionInfo   = options.WithStripVersionInfo
	WithRockRidgeEnabled   = options.WithRockRidgeEnabled
	WithJolietEnabled      = options.WithJolietEnabled
	WithLogger             = options.WithLogger
	WithParseOnOpen        = options.WithParseOnOpen
	WithPreferEnhancedVD   = options.WithPreferEnhancedVD
	WithBigEndianPreferred = options.WithBigEndianPreferred
	WithLenientExtensions  = options.WithLenientExtensions
	WithMaxContinuations   = options.WithMaxContinuations
)

// Open mounts the ISO 9660 image at location, delegating to Mount once the
// file is opened. The returned Image owns the file handle; Close releases
// it.
func Open(location string, opts ...Option) (Image, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, err
	}

	img, err := Mount(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	img.(*ISO9660Image).closer = f
	return img, nil
}

// Mount constructs a Filesystem over an arbitrary block-addressable reader
// (spec.md §4.6 open_filesystem), parsing it immediately unless
// WithParseOnOpen(false) is given.
func Mount(reader io.ReaderAt, opts ...Option) (Image, error) {
	o := options.Apply(opts...)
	img := &ISO9660Image{
		reader: reader,
		opts:   o,
	}

	if o.ParseOnOpen {
		if err := img.Parse(); err != nil {
			return nil, err
		}
	}

	return img, nil
}

// Image is a mounted, read-only ISO 9660 filesystem.
type Image interface {
	Parse() error
	Parsed() bool
	Close() error
	String() string

	// HasRockRidge reports whether the active root carries Rock Ridge
	// extensions.
	HasRockRidge() bool

	// Root returns the most featureful root directory entry, per
	// spec.md §4.6's precedence: Rock Ridge primary, else Joliet
	// supplementary, else primary.
	Root() *directory.DirectoryEntry
	// RootAt returns the root at index 0 (Primary) or 1 (Supplementary),
	// or nil if that slot has no descriptor.
	RootAt(i int) *directory.DirectoryEntry

	// Open resolves a slash-delimited path from the active root,
	// discarding empty segments, descending by case-insensitive
	// identifier match. It returns (nil, nil) if any segment fails to
	// resolve.
	Open(p string) (*directory.DirectoryEntry, error)

	// BlockSize is always 2048; non-2048 logical block sizes are a
	// non-goal (spec.md §4.5).
	BlockSize() int

	// GetAllEntries walks the active root's entire tree breadth-first.
	GetAllEntries() ([]*directory.DirectoryEntry, error)

	SystemIdentifier() string
	VolumeIdentifier() string
	VolumeSetIdentifier() string
	PublisherIdentifier() string
	DataPreparerIdentifier() string
	ApplicationIdentifier() string
	CopyrightFileIdentifier() string
	AbstractFileIdentifier() string
	BibliographicFileIdentifier() string
}

// ISO9660Image is the concrete Image implementation for ISO 9660 / Joliet /
// Rock Ridge media.
type ISO9660Image struct {
	SystemArea    systemarea.SystemArea
	Primary       *descriptor.PrimaryVolumeDescriptor
	Supplementary *descriptor.SupplementaryVolumeDescriptor
	Boot          *descriptor.BootRecordVolumeDescriptor

	reader io.ReaderAt
	closer io.Closer
	opts   options.Options

	root            *directory.DirectoryEntry
	rootIsRockRidge bool
	parsed          bool
}

// Close releases the underlying file handle, if Open (rather than Mount)
// was used to construct this Image.
func (i *ISO9660Image) Close() error {
	if i.closer != nil {
		return i.closer.Close()
	}
	return nil
}

// String returns a short human-readable summary of the mounted image.
func (i *ISO9660Image) String() string {
	if i.Primary == nil {
		return "ISO9660 image (unparsed)"
	}
	return fmt.Sprintf("ISO9660 image %q", i.Primary.VolumeIdentifier)
}

// Parsed reports whether Parse has completed successfully.
func (i *ISO9660Image) Parsed() bool {
	return i.parsed
}

// BlockSize always returns 2048 (spec.md §4.6, §6).
func (i *ISO9660Image) BlockSize() int {
	return consts.ISO9660_SECTOR_SIZE
}

// Parse walks the volume descriptor set starting at LBA 16, decoding the
// Primary descriptor (required) and, if present, one Supplementary and one
// Boot Record descriptor, stopping at the Set Terminator (spec.md §4.5,
// §4.6).
func (i *ISO9660Image) Parse() error {
	log := i.opts.Logger

	saEnd := int64(consts.ISO9660_SYSTEM_AREA_SECTORS) * consts.ISO9660_SECTOR_SIZE
	sa := make([]byte, saEnd)
	if _, err := i.reader.ReadAt(sa, 0); err != nil && err != io.EOF {
		return isoerr.Wrap(isoerr.KindIO, err)
	}
	copy(i.SystemArea[:], sa)

	vdBytes := make([]byte, consts.ISO9660_SECTOR_SIZE)
	done := false
	for idx := saEnd; !done; idx += consts.ISO9660_SECTOR_SIZE {
		if _, err := i.reader.ReadAt(vdBytes, idx); err != nil {
			return isoerr.Wrap(isoerr.KindIO, err)
		}

		vd, err := descriptor.ParseVolumeDescriptor(vdBytes, log)
		if err != nil {
			return err
		}

		switch vd.Type() {
		case descriptor.VolumeDescriptorPrimary:
			log.V(logging.LEVEL_DEBUG).Info("parsing primary volume descriptor", "lba", idx/consts.ISO9660_SECTOR_SIZE)
			pvd, err := descriptor.ParsePrimaryVolumeDescriptor(vd, i.reader, i.opts)
			if err != nil {
				return err
			}
			if err := parsePathTable(i.reader, pvd, log); err != nil {
				return err
			}
			i.Primary = pvd

		case descriptor.VolumeDescriptorSupplementary:
			log.V(logging.LEVEL_DEBUG).Info("parsing supplementary volume descriptor", "lba", idx/consts.ISO9660_SECTOR_SIZE)
			if !i.opts.JolietEnabled || i.Supplementary != nil {
				break
			}
			svd, err := descriptor.ParseSupplementaryVolumeDescriptor(vd, i.reader, i.opts)
			if err != nil {
				return err
			}
			if err := parsePathTable(i.reader, svd, log); err != nil {
				return err
			}
			i.Supplementary = svd

		case descriptor.VolumeDescriptorBootRecord:
			log.V(logging.LEVEL_DEBUG).Info("parsing boot record volume descriptor", "lba", idx/consts.ISO9660_SECTOR_SIZE)
			brvd, err := descriptor.ParseBootRecordVolumeDescriptor(vd, log)
			if err != nil {
				return err
			}
			i.Boot = brvd

		case descriptor.VolumeDescriptorPartition:
			log.V(logging.LEVEL_TRACE).Info("skipping volume descriptor partition (not implemented)", "lba", idx/consts.ISO9660_SECTOR_SIZE)

		case descriptor.VolumeDescriptorSetTerminatorType:
			log.V(logging.LEVEL_DEBUG).Info("reached volume descriptor set terminator")
			done = true

		default:
			log.V(logging.LEVEL_TRACE).Info("skipping unrecognised volume descriptor type", "type", vd.Type())
		}
	}

	if i.Primary == nil {
		return isoerr.New(isoerr.KindInvalidFS, "no primary volume descriptor found before the set terminator")
	}
	if i.Primary.LogicalBlockSize != 0 && i.Primary.LogicalBlockSize != consts.ISO9660_SECTOR_SIZE {
		return isoerr.Newf(isoerr.KindInvalidFS, "unsupported logical block size: %d", i.Primary.LogicalBlockSize)
	}

	i.rootIsRockRidge = rootHasRockRidge(i.Primary.RootDirectoryEntry, i.reader, i.opts)
	i.root = i.selectRoot()
	i.parsed = true

	return nil
}

// selectRoot implements spec.md §4.6 root() precedence.
func (i *ISO9660Image) selectRoot() *directory.DirectoryEntry {
	if i.rootIsRockRidge {
		return i.Primary.RootDirectoryEntry
	}
	if i.Supplementary != nil && i.opts.PreferEnhancedVD {
		return i.Supplementary.RootDirectoryEntry
	}
	return i.Primary.RootDirectoryEntry
}

// rootHasRockRidge inspects the first non-special child of the primary
// root's own directory extent and reports whether it carried any recognised
// Rock Ridge system use entry (SP, ER, RR, NM, PX, TF, SL, CL or RE); the
// ER-derived extension set is not consulted.
func rootHasRockRidge(primaryRoot *directory.DirectoryEntry, reader io.ReaderAt, opts options.Options) bool {
	if primaryRoot == nil {
		return false
	}
	it := directory.NewIterator(reader, primaryRoot.Record.LocationOfExtent, primaryRoot.Record.DataLength, "", false, opts)
	first, err := it.Next()
	if err != nil || first == nil {
		return false
	}
	return first.HasRockRidge()
}

// HasRockRidge reports whether the active root was selected because it
// carries Rock Ridge extensions.
func (i *ISO9660Image) HasRockRidge() bool {
	return i.rootIsRockRidge
}

// Root returns the active root directory entry.
func (i *ISO9660Image) Root() *directory.DirectoryEntry {
	return i.root
}

// RootAt returns the Primary (0) or Supplementary (1) root explicitly,
// bypassing the root() precedence rule.
func (i *ISO9660Image) RootAt(idx int) *directory.DirectoryEntry {
	switch idx {
	case 0:
		if i.Primary == nil {
			return nil
		}
		return i.Primary.RootDirectoryEntry
	case 1:
		if i.Supplementary == nil {
			return nil
		}
		return i.Supplementary.RootDirectoryEntry
	default:
		return nil
	}
}

// Open resolves a slash-delimited path against the active root (spec.md
// §4.6). Empty segments (leading/trailing/doubled slashes) are discarded.
func (i *ISO9660Image) Open(p string) (*directory.DirectoryEntry, error) {
	current := i.root
	if current == nil {
		return nil, isoerr.New(isoerr.KindInvalidFS, "filesystem has not been parsed")
	}

	for _, segment := range strings.Split(p, "/") {
		if segment == "" {
			continue
		}
		joliet := current.Record.Joliet
		next, err := directory.Find(i.reader, current.Record.LocationOfExtent, current.Record.DataLength, current.FullPath(), joliet, i.opts, segment)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		current = next
	}

	return current, nil
}

// GetAllEntries walks the active root's entire directory tree breadth
// first, following Child-Link redirected directories transparently.
func (i *ISO9660Image) GetAllEntries() ([]*directory.DirectoryEntry, error) {
	if !i.Parsed() {
		if err := i.Parse(); err != nil {
			return nil, err
		}
	}

	var result []*directory.DirectoryEntry
	queue := []*directory.DirectoryEntry{i.root}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		if !current.IsDir() {
			continue
		}

		joliet := current.Record.Joliet
		it := directory.NewIterator(i.reader, current.Record.LocationOfExtent, current.Record.DataLength, current.FullPath(), joliet, i.opts)
		children, err := it.All()
		if err != nil {
			return nil, err
		}
		queue = append(queue, children...)
	}

	return result, nil
}

func (i *ISO9660Image) SystemIdentifier() string { return i.Primary.SystemIdentifier }
func (i *ISO9660Image) VolumeIdentifier() string { return i.Primary.VolumeIdentifier }
func (i *ISO9660Image) VolumeSetIdentifier() string { return i.Primary.VolumeSetIdentifier }
func (i *ISO9660Image) PublisherIdentifier() string { return i.Primary.PublisherIdentifier }
func (i *ISO9660Image) DataPreparerIdentifier() string {
	return i.Primary.DataPreparerIdentifier
}
func (i *ISO9660Image) ApplicationIdentifier() string {
	return i.Primary.ApplicationIdentifier
}
func (i *ISO9660Image) CopyrightFileIdentifier() string {
	return i.Primary.CopyRightFileIdentifier
}
func (i *ISO9660Image) AbstractFileIdentifier() string {
	return i.Primary.AbstractFileIdentifier
}
func (i *ISO9660Image) BibliographicFileIdentifier() string {
	return i.Primary.BibliographicFileIdentifier
}

// parsePathTable walks an L-type path table referenced by a volume
// descriptor, per ECMA-119 §9.4. It is informational: the directory tree
// is always navigated via directory records, never via the path table.
func parsePathTable(reader io.ReaderAt, vd descriptor.VolumeDescriptor, log logr.Logger) error {
	start := int64(vd.PathTableLocation()) * consts.ISO9660_SECTOR_SIZE
	end := start + int64(vd.PathTableSize())
	if vd.PathTableLocation() == 0 || vd.PathTableSize() <= 0 {
		return nil
	}

	table := vd.PathTable()

	offset := start
	for offset < end {
		header := make([]byte, 8)
		n, err := reader.ReadAt(header, offset)
		if err != nil && err != io.EOF {
			return isoerr.Wrap(isoerr.KindIO, err)
		}
		if n < 8 {
			return isoerr.ShortRead(n)
		}

		dirLen := int(header[0])
		recordLen := 8 + dirLen
		if dirLen%2 != 0 {
			recordLen++
		}
		if offset+int64(recordLen) > end {
			return isoerr.New(isoerr.KindInvalidFS, "path table record exceeds path table size")
		}

		buf := make([]byte, recordLen)
		if _, err := reader.ReadAt(buf, offset); err != nil && err != io.EOF {
			return isoerr.Wrap(isoerr.KindIO, err)
		}

		record := path.NewPathTableRecord(log)
		if err := record.Unmarshal(buf); err != nil {
			return err
		}
		*table = append(*table, record)

		offset += int64(recordLen)
	}

	return nil
}
