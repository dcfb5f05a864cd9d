package directory

import (
	"testing"

	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/susp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsSymlink(t *testing.T) {
	rec := newFileRecord("LINK", 20, 0)
	rec.Extra = &susp.ExtraMeta{IsSymlink: true, SymlinkTarget: "/usr/bin/foo"}
	entry := NewEntry(rec, nil, "/", options.Default())

	link := AsSymlink(entry)
	require.NotNil(t, link)
	assert.Equal(t, "/usr/bin/foo", link.Target())
	assert.True(t, link.IsAbsolute())
}

func TestAsSymlinkNilForNonSymlink(t *testing.T) {
	rec := newFileRecord("FILE.TXT", 20, 10)
	entry := NewEntry(rec, nil, "/", options.Default())
	assert.Nil(t, AsSymlink(entry))
}

func TestSymlinkRelativeTarget(t *testing.T) {
	rec := newFileRecord("LINK", 20, 0)
	rec.Extra = &susp.ExtraMeta{IsSymlink: true, SymlinkTarget: "../other"}
	entry := NewEntry(rec, nil, "/", options.Default())

	link := AsSymlink(entry)
	require.NotNil(t, link)
	assert.False(t, link.IsAbsolute())
}
