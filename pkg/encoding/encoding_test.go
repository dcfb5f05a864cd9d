package encoding

import (
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalString(t *testing.T) {
	assert.Equal(t, "hello     ", string(MarshalString("hello", 10)))
	assert.Equal(t, "12345", string(MarshalString("12345", 5)))
	assert.Equal(t, "Hello", string(MarshalString("Hello, World!", 5)))
	assert.Len(t, MarshalString("anything", 0), 0)
}

func TestBothEndianUint32_Agrees(t *testing.T) {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], 12345678)
	binary.BigEndian.PutUint32(buf[4:8], 12345678)

	v, err := BothEndianUint32(buf[:], logr.Discard(), false)
	require.NoError(t, err)
	assert.Equal(t, uint32(12345678), v)
}

func TestBothEndianUint32_MismatchWarnsNotErrors(t *testing.T) {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], 100)
	binary.BigEndian.PutUint32(buf[4:8], 101)

	v, err := BothEndianUint32(buf[:], logr.Discard(), false)
	require.NoError(t, err, "a both-endian mismatch must be a warning, not an error")
	assert.Equal(t, uint32(100), v, "default tie-break is the little-endian value")

	v, err = BothEndianUint32(buf[:], logr.Discard(), true)
	require.NoError(t, err)
	assert.Equal(t, uint32(101), v, "WithBigEndianPreferred selects the big-endian value")
}

func TestBothEndianUint32_ShortBuffer(t *testing.T) {
	_, err := BothEndianUint32([]byte{0, 1, 2, 3, 4, 5, 6}, logr.Discard(), false)
	assert.Error(t, err)
}

func TestBothEndianUint16_MismatchWarnsNotErrors(t *testing.T) {
	var buf [4]byte
	binary.LittleEndian.PutUint16(buf[0:2], 300)
	binary.BigEndian.PutUint16(buf[2:4], 301)

	v, err := BothEndianUint16(buf[:], logr.Discard(), false)
	require.NoError(t, err)
	assert.Equal(t, uint16(300), v)
}

func TestDecodeDirectoryTime_Valid(t *testing.T) {
	data := []byte{120, 5, 15, 12, 34, 56, 0}
	result, err := DecodeDirectoryTime(data)
	require.NoError(t, err)
	assert.Equal(t, 2020, result.Year())
	assert.Equal(t, 5, int(result.Month()))
	assert.Equal(t, 15, result.Day())
	assert.Equal(t, 12, result.Hour())
	assert.Equal(t, 34, result.Minute())
	assert.Equal(t, 56, result.Second())
	_, offsetSeconds := result.Zone()
	assert.Equal(t, 0, offsetSeconds)
}

func TestDecodeDirectoryTime_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		errMsg string
	}{
		{"short", []byte{120, 5, 15, 12, 34, 56}, "invalid directory time length"},
		{"month", []byte{120, 0, 15, 12, 34, 56, 0}, "invalid month"},
		{"day", []byte{120, 5, 0, 12, 34, 56, 0}, "invalid day"},
		{"hour", []byte{120, 5, 15, 24, 34, 56, 0}, "invalid hour"},
		{"minute", []byte{120, 5, 15, 12, 60, 56, 0}, "invalid minute"},
		{"second", []byte{120, 5, 15, 12, 34, 60, 0}, "invalid second"},
		{"offset", []byte{120, 5, 15, 12, 34, 56, 207}, "invalid GMT offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDirectoryTime(tt.data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDecodeVolumeTime_Unset(t *testing.T) {
	data := make([]byte, 17)
	for i := range data[:16] {
		data[i] = '0'
	}
	result, err := DecodeVolumeTime(data)
	require.NoError(t, err)
	assert.True(t, result.IsZero(), "all-zero volume timestamp decodes to the sentinel zero time")
}

func TestDecodeVolumeTime_Valid(t *testing.T) {
	data := []byte("2020051512345600" + string(rune(0)))
	result, err := DecodeVolumeTime(data)
	require.NoError(t, err)
	assert.Equal(t, 2020, result.Year())
	assert.Equal(t, 5, int(result.Month()))
	assert.Equal(t, 15, result.Day())
	assert.Equal(t, 12, result.Hour())
	assert.Equal(t, 34, result.Minute())
	assert.Equal(t, 56, result.Second())
}

func TestDecodeCharacterEncoding(t *testing.T) {
	zero := make([]byte, 32)
	enc, err := DecodeCharacterEncoding(zero)
	require.NoError(t, err)
	assert.Equal(t, Iso9660, enc)

	level1 := make([]byte, 32)
	copy(level1, []byte{0x25, 0x2F, 0x40})
	enc, err = DecodeCharacterEncoding(level1)
	require.NoError(t, err)
	assert.Equal(t, Ucs2Level1, enc)

	level3 := make([]byte, 32)
	copy(level3, []byte{0x25, 0x2F, 0x45})
	enc, err = DecodeCharacterEncoding(level3)
	require.NoError(t, err)
	assert.Equal(t, Ucs2Level3, enc)

	garbage := make([]byte, 32)
	garbage[0] = 0xFF
	_, err = DecodeCharacterEncoding(garbage)
	assert.Error(t, err)
}

func TestDecodeString_ISO9660(t *testing.T) {
	s, err := DecodeString([]byte("README.TXT   "), Iso9660)
	require.NoError(t, err)
	assert.Equal(t, "README.TXT", s)
}

func TestDecodeString_UCS2(t *testing.T) {
	units := utf16.Encode([]rune("readme.txt"))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.BigEndian.PutUint16(buf[i*2:], u)
	}
	s, err := DecodeString(buf, Ucs2Level3)
	require.NoError(t, err)
	assert.True(t, strings.EqualFold(s, "readme.txt"))
}
