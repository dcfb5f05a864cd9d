package directory

import "strings"

// Symlink is a thin convenience view over a DirectoryEntry that carried a
// Rock Ridge SL entry.
type Symlink struct {
	entry *DirectoryEntry
}

// AsSymlink returns a Symlink view of entry, or nil if entry did not carry
// an SL system use entry.
func AsSymlink(entry *DirectoryEntry) *Symlink {
	if entry == nil || !entry.IsSymlink() {
		return nil
	}
	return &Symlink{entry: entry}
}

// Target returns the resolved link target path exactly as reconstructed
// from the entry's SL component chain.
func (s *Symlink) Target() string {
	return s.entry.SymlinkTarget()
}

// IsAbsolute reports whether the target begins with the root component
// ("/"), i.e. an SL Root or VolumeRoot flag opened the component chain.
func (s *Symlink) IsAbsolute() bool {
	return strings.HasPrefix(s.Target(), "/")
}
