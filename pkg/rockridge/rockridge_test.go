package rockridge

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalNameEntry(t *testing.T) {
	flags, name, err := UnmarshalNameEntry([]byte{0x00, 'h', 'i'})
	require.NoError(t, err)
	assert.Equal(t, "hi", name)
	assert.False(t, flags.Has(NameContinue))

	_, _, err = UnmarshalNameEntry(nil)
	assert.Error(t, err)
}

func TestUnmarshalPosixEntry(t *testing.T) {
	payload := make([]byte, 32)
	putBothEndian32(payload[0:8], 0100644)
	putBothEndian32(payload[8:16], 1)
	putBothEndian32(payload[16:24], 1000)
	putBothEndian32(payload[24:32], 1000)

	attrs, err := UnmarshalPosixEntry(payload, logr.Discard(), false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), attrs.UID)
	assert.Nil(t, attrs.Inode)
	assert.False(t, attrs.IsSymlink())

	payload40 := make([]byte, 40)
	putBothEndian32(payload40[0:8], TypeSymlink|0777)
	putBothEndian32(payload40[8:16], 1)
	putBothEndian32(payload40[16:24], 0)
	putBothEndian32(payload40[24:32], 0)
	putBothEndian32(payload40[32:40], 42)

	attrs, err = UnmarshalPosixEntry(payload40, logr.Discard(), false)
	require.NoError(t, err)
	require.NotNil(t, attrs.Inode)
	assert.Equal(t, uint32(42), *attrs.Inode)
	assert.True(t, attrs.IsSymlink())
	assert.NotZero(t, attrs.FileMode()&^0777)

	_, err = UnmarshalPosixEntry(make([]byte, 10), logr.Discard(), false)
	assert.Error(t, err)
}

func TestUnmarshalTimestampEntry(t *testing.T) {
	payload := append([]byte{byte(TimeModify)}, shortTimeBytes()...)
	flags, ts, err := UnmarshalTimestampEntry(payload)
	require.NoError(t, err)
	assert.NotZero(t, flags&TimeModify)
	require.NotNil(t, ts.Modify)
	assert.Nil(t, ts.Creation)

	_, _, err = UnmarshalTimestampEntry(nil)
	assert.Error(t, err)

	truncated := []byte{byte(TimeModify), 0x01}
	_, _, err = UnmarshalTimestampEntry(truncated)
	assert.Error(t, err)
}

func TestSymlinkComponentString(t *testing.T) {
	assert.Equal(t, "/", SymlinkComponent{Flags: SLRoot}.String())
	assert.Equal(t, "/", SymlinkComponent{Flags: SLVolumeRoot}.String())
	assert.Equal(t, ".", SymlinkComponent{Flags: SLCurrent}.String())
	assert.Equal(t, "..", SymlinkComponent{Flags: SLParent}.String())
	assert.Equal(t, "usr", SymlinkComponent{Name: "usr"}.String())
}

func TestUnmarshalSymlinkEntry(t *testing.T) {
	payload := []byte{0x00, byte(SLRoot), 0x00, 0x00, 3, 'u', 's', 'r'}
	cont, components, err := UnmarshalSymlinkEntry(payload)
	require.NoError(t, err)
	assert.False(t, cont)
	require.Len(t, components, 2)
	assert.Equal(t, "/usr", JoinSymlinkComponents(components))

	_, _, err = UnmarshalSymlinkEntry([]byte{0x02})
	assert.Error(t, err)

	_, _, err = UnmarshalSymlinkEntry([]byte{0x00, 0x00, 5, 'a'})
	assert.Error(t, err)
}

func TestParseVersionSuffix(t *testing.T) {
	base, version, err := ParseVersionSuffix("FOO.TXT;1")
	require.NoError(t, err)
	assert.Equal(t, "FOO.TXT", base)
	assert.Equal(t, uint16(1), version)

	base, version, err = ParseVersionSuffix("FOO.TXT")
	require.NoError(t, err)
	assert.Equal(t, "FOO.TXT", base)
	assert.Equal(t, uint16(1), version)

	_, _, err = ParseVersionSuffix("FOO.TXT;bad")
	assert.Error(t, err)
}

func TestValidateSuspIndicator(t *testing.T) {
	assert.NoError(t, ValidateSuspIndicator([]byte{0xBE, 0xEF}))
	assert.Error(t, ValidateSuspIndicator([]byte{0x00, 0x00}))
}

func TestResolveExtension(t *testing.T) {
	ext, ok := ResolveExtension(&ExtensionRecord{Identifier: RockRidgeExtensionIdentifier, Version: 1})
	assert.True(t, ok)
	assert.Equal(t, RockRidge1_09, ext)

	_, ok = ResolveExtension(&ExtensionRecord{Identifier: "unknown", Version: 9})
	assert.False(t, ok)
}

func TestUnmarshalExtensionRecord(t *testing.T) {
	payload := []byte{3, 0, 0, 1, 'a', 'b', 'c'}
	rec, n, err := UnmarshalExtensionRecord(payload)
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.Identifier)
	assert.Equal(t, len(payload), n)

	_, _, err = UnmarshalExtensionRecord([]byte{1, 1, 1, 0})
	assert.Error(t, err)
}

func TestUnmarshalContinuationEntry(t *testing.T) {
	payload := make([]byte, 24)
	putBothEndian32(payload[0:8], 100)
	putBothEndian32(payload[8:16], 0)
	putBothEndian32(payload[16:24], 2048)

	ce, err := UnmarshalContinuationEntry(payload, logr.Discard(), false)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), ce.BlockLocation)
	assert.Equal(t, uint32(2048), ce.Length)

	_, err = UnmarshalContinuationEntry(make([]byte, 10), logr.Discard(), false)
	assert.Error(t, err)
}

func TestUnmarshalChildLinkEntry(t *testing.T) {
	payload := make([]byte, 8)
	putBothEndian32(payload, 7)
	lba, err := UnmarshalChildLinkEntry(payload, logr.Discard(), false)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), lba)
}

func putBothEndian32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
	dst[4] = byte(v >> 24)
	dst[5] = byte(v >> 16)
	dst[6] = byte(v >> 8)
	dst[7] = byte(v)
}

func shortTimeBytes() []byte {
	return []byte{124, 6, 15, 10, 30, 0, 0}
}
