package susp

import (
	"testing"

	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/rockridge"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildEntry(sig string, version byte, payload []byte) []byte {
	buf := []byte{sig[0], sig[1], byte(4 + len(payload)), version}
	return append(buf, payload...)
}

func TestParseEntriesStopsAtZeroPadding(t *testing.T) {
	nm := buildEntry("NM", 1, []byte{0x00, 'a'})
	data := append(append([]byte{}, nm...), 0x00, 0x00, 0x00)

	entries, err := ParseEntries(data, logr.Discard())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "NM", entries[0].Signature)
}

func TestParseEntriesRejectsZeroLength(t *testing.T) {
	data := []byte{'N', 'M', 0x00, 1}
	_, err := ParseEntries(data, logr.Discard())
	assert.Error(t, err)
}

func TestParseEntriesRejectsOverrun(t *testing.T) {
	data := []byte{'N', 'M', 0xFF, 1, 'a'}
	_, err := ParseEntries(data, logr.Discard())
	assert.Error(t, err)
}

type fakeReaderAt struct {
	data map[int64][]byte
}

func (f fakeReaderAt) ReadAt(p []byte, off int64) (int, error) {
	src, ok := f.data[off]
	if !ok || len(src) < len(p) {
		return 0, assertErr{}
	}
	copy(p, src)
	return len(p), nil
}

type assertErr struct{}

func (assertErr) Error() string { return "no data at offset" }

func TestCollectEntriesFollowsContinuation(t *testing.T) {
	nmPayload := []byte{0x00, 'a'}
	nm := buildEntry("NM", 1, nmPayload)

	cePayload := make([]byte, 24)
	putBE32(cePayload[0:8], 20)
	putBE32(cePayload[16:24], 6)
	ce := buildEntry("CE", 1, cePayload)

	initial := append(append([]byte{}, nm...), ce...)

	contNM := buildEntry("NM", 1, []byte{0x00, 'b'})
	offset := int64(20)*int64(consts.ISO9660_SECTOR_SIZE) + 0

	reader := fakeReaderAt{data: map[int64][]byte{offset: contNM}}

	opts := options.Default()
	entries, err := CollectEntries(initial, reader, opts, logr.Discard())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "CE", entries[1].Signature)
	assert.Equal(t, "NM", entries[2].Signature)
}

func TestCollectEntriesDetectsCycle(t *testing.T) {
	cePayload := make([]byte, 24)
	putBE32(cePayload[0:8], 5)
	putBE32(cePayload[16:24], 28)
	ce := buildEntry("CE", 1, cePayload)

	offset := int64(5) * int64(consts.ISO9660_SECTOR_SIZE)
	reader := fakeReaderAt{data: map[int64][]byte{offset: ce}}

	opts := options.Default()
	_, err := CollectEntries(ce, reader, opts, logr.Discard())
	assert.Error(t, err)
}

func putBE32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
	dst[4] = byte(v >> 24)
	dst[5] = byte(v >> 16)
	dst[6] = byte(v >> 8)
	dst[7] = byte(v)
}

func TestAggregateNameAcrossContinuation(t *testing.T) {
	e1 := Entry{Signature: string(rockridge.SigNM), Payload: []byte{byte(rockridge.NameContinue), 'f', 'o'}}
	e2 := Entry{Signature: string(rockridge.SigNM), Payload: []byte{0x00, 'o'}}

	meta, err := Aggregate([]Entry{e1, e2}, options.Default(), logr.Discard())
	require.NoError(t, err)
	assert.True(t, meta.HasAltName)
	assert.Equal(t, "foo", meta.AltName)
	assert.True(t, meta.RockRidge)
}

func TestAggregateSymlink(t *testing.T) {
	e := Entry{Signature: string(rockridge.SigSL), Payload: []byte{0x00, byte(rockridge.SLRoot), 0x00, 0x00, 3, 'u', 's', 'r'}}

	meta, err := Aggregate([]Entry{e}, options.Default(), logr.Discard())
	require.NoError(t, err)
	assert.True(t, meta.IsSymlink)
	assert.Equal(t, "/usr", meta.SymlinkTarget)
}

func TestAggregateChildLinkAndRelocation(t *testing.T) {
	clPayload := make([]byte, 8)
	putBE32(clPayload, 99)
	cl := Entry{Signature: string(rockridge.SigCL), Payload: clPayload}
	re := Entry{Signature: string(rockridge.SigRE)}

	meta, err := Aggregate([]Entry{cl, re}, options.Default(), logr.Discard())
	require.NoError(t, err)
	require.NotNil(t, meta.ChildLink)
	assert.Equal(t, uint32(99), *meta.ChildLink)
	assert.True(t, meta.Relocated)
}

func TestAggregateUnknownSignatureTolerated(t *testing.T) {
	e := Entry{Signature: "ZZ", Payload: []byte{1, 2, 3}}
	meta, err := Aggregate([]Entry{e}, options.Default(), logr.Discard())
	require.NoError(t, err)
	assert.False(t, meta.RockRidge)
}
