package directory

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/bgrewell/iso-kit/pkg/encoding"
	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/rockridge"
	"github.com/go-logr/logr"
)

var _ fs.FileInfo = DirectoryEntry{}

// NewEntry wraps a decoded DirectoryRecord as a DirectoryEntry.
func NewEntry(record *DirectoryRecord, reader io.ReaderAt, parentPath string, opts options.Options) *DirectoryEntry {
	return &DirectoryEntry{
		Record:     record,
		IsoReader:  reader,
		parentPath: parentPath,
		opts:       opts,
	}
}

// DirectoryEntry is an fs.FileInfo-compatible view over a DirectoryRecord,
// resolving Rock Ridge overrides (alternate name, POSIX mode) when present.
type DirectoryEntry struct {
	Record     *DirectoryRecord
	IsoReader  io.ReaderAt
	parentPath string
	opts       options.Options
}

// Name returns the Rock Ridge alternate name if one was decoded, otherwise
// the plain ISO 9660 (or Joliet) identifier with its ";version" suffix
// stripped per StripVersionInfo.
func (d DirectoryEntry) Name() string {
	if d.Record.Extra != nil && d.Record.Extra.HasAltName {
		return d.Record.Extra.AltName
	}

	switch d.Record.FileIdentifier {
	case "\x00":
		return ""
	case "\x01":
		return ".."
	}

	name := d.Record.FileIdentifier
	if d.opts.StripVersionInfo {
		base, _, err := rockridge.ParseVersionSuffix(name)
		if err == nil {
			name = base
		}
	}
	return name
}

// Size returns the data length of the entry's extent.
func (d DirectoryEntry) Size() int64 {
	return int64(d.Record.DataLength)
}

// Mode returns the Rock Ridge POSIX mode when a PX entry was decoded,
// otherwise a minimal mode derived from the ISO 9660 Directory flag.
func (d DirectoryEntry) Mode() fs.FileMode {
	if d.Record.Extra != nil && d.Record.Extra.Attributes != nil {
		return d.Record.Extra.Attributes.FileMode()
	}
	var mode fs.FileMode
	if d.IsDir() {
		mode |= fs.ModeDir
	}
	return mode
}

// ModTime prefers the Rock Ridge TF modify timestamp, falling back to the
// directory record's own recording date and time.
func (d DirectoryEntry) ModTime() time.Time {
	if d.Record.Extra != nil && d.Record.Extra.Timestamps != nil && d.Record.Extra.Timestamps.Modify != nil {
		return *d.Record.Extra.Timestamps.Modify
	}
	if t, err := encoding.DecodeDirectoryTime(d.Record.RecordingDateAndTime); err == nil {
		return t
	}
	return time.Time{}
}

// IsDir reports whether the entry is a directory, consulting the Rock
// Ridge mode's type bits when present so a relocated directory is still
// recognised after its CL rewrite.
func (d DirectoryEntry) IsDir() bool {
	if d.Record.Extra != nil && d.Record.Extra.Attributes != nil {
		return d.Record.Extra.Attributes.Mode&rockridge.TypeMask == rockridge.TypeDir
	}
	return d.Record.FileFlags.Directory
}

// IsSymlink reports whether an SL entry was decoded for this record.
func (d DirectoryEntry) IsSymlink() bool {
	return d.Record.Extra != nil && d.Record.Extra.IsSymlink
}

// SymlinkTarget returns the resolved SL target path, or "" if this entry
// is not a symbolic link.
func (d DirectoryEntry) SymlinkTarget() string {
	if !d.IsSymlink() {
		return ""
	}
	return d.Record.Extra.SymlinkTarget
}

// IsAssociatedFile reports whether the ISO 9660 Associated File flag is set
// (spec.md §3 "Associated files").
func (d DirectoryEntry) IsAssociatedFile() bool {
	return d.Record.FileFlags.AssociatedFile
}

// Relocated reports whether an RE entry marked this record as a relocated
// directory: the moved copy (under rr_moved) that a CL entry at the
// directory's original location points at.
func (d DirectoryEntry) Relocated() bool {
	return d.Record.Extra != nil && d.Record.Extra.Relocated
}

// ChildLink returns the LBA an associated CL entry redirects this
// directory's children to, and whether one was present.
func (d DirectoryEntry) ChildLink() (uint32, bool) {
	if d.Record.Extra == nil || d.Record.Extra.ChildLink == nil {
		return 0, false
	}
	return *d.Record.Extra.ChildLink, true
}

// Sys returns nil; this package has no OS-specific stat data to expose.
func (d DirectoryEntry) Sys() any {
	return nil
}

// FullPath joins the entry's resolved name onto its parent's path.
func (d DirectoryEntry) FullPath() string {
	return path.Join(d.parentPath, d.Name())
}

// HasRockRidge reports whether the underlying record carried Rock Ridge
// system use entries.
func (d DirectoryEntry) HasRockRidge() bool {
	return d.Record.HasRockRidge()
}

// IsRootEntry reports whether this entry is the "." self-reference record.
func (d DirectoryEntry) IsRootEntry() bool {
	return d.Record.FileIdentifier == "\x00"
}

// ExtractToDisk writes the entry under outputDir, joined with its FullPath.
// Directories are created (not walked; callers extracting a whole tree
// should call this once per entry returned by GetAllEntries, parents
// first). A symbolic link entry is recreated with os.Symlink rather than
// having its target's bytes copied. File contents are streamed through
// NewFileReader rather than read fully into memory first.
func (d DirectoryEntry) ExtractToDisk(outputDir string) error {
	outputPath := filepath.Join(outputDir, filepath.FromSlash(d.FullPath()))

	if d.IsDir() {
		return os.MkdirAll(outputPath, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", outputPath, err)
	}

	if d.IsSymlink() {
		_ = os.Remove(outputPath)
		if err := os.Symlink(d.SymlinkTarget(), outputPath); err != nil {
			return fmt.Errorf("failed to create symlink %s: %w", outputPath, err)
		}
		return nil
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, NewFileReader(d.IsoReader, &d)); err != nil {
		return fmt.Errorf("failed to write file %s: %w", outputPath, err)
	}

	return nil
}

// logger returns the logger this entry's record was decoded with.
func (d DirectoryEntry) logger() logr.Logger {
	return d.opts.Logger
}
