// Package encoding implements the ISO 9660 / ECMA-119 primitive wire
// encodings: both-endian integers, the two on-disc timestamp formats, the
// character-encoding escape-sequence tag, and string decoding under that
// tag.
package encoding

import (
	"encoding/binary"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/bgrewell/iso-kit/pkg/isoerr"
	"github.com/go-logr/logr"
)

// CharacterEncoding identifies how a volume descriptor's string fields (and
// the identifiers within its directory tree) are encoded.
type CharacterEncoding int

const (
	// Iso9660 is plain ISO-9660 ASCII/UTF-8, trimmed of trailing spaces.
	Iso9660 CharacterEncoding = iota
	// Ucs2Level1 is Joliet level 1 (UTF-16BE).
	Ucs2Level1
	// Ucs2Level2 is Joliet level 2 (UTF-16BE).
	Ucs2Level2
	// Ucs2Level3 is Joliet level 3 (UTF-16BE).
	Ucs2Level3
)

func (c CharacterEncoding) IsUCS2() bool {
	return c == Ucs2Level1 || c == Ucs2Level2 || c == Ucs2Level3
}

// MarshalString encodes the given string as a byte array padded to the given length.
func MarshalString(s string, padToLength int) []byte {
	if len(s) > padToLength {
		s = s[:padToLength]
	}
	missingPadding := padToLength - len(s)
	s = s + strings.Repeat(" ", missingPadding)
	return []byte(s)
}

// BothEndianUint32 decodes a 32-bit integer stored twice, as little-endian
// then big-endian, per ECMA-119 §7.3.3. A mismatch between the two
// representations is logged as a warning, never returned as an error; the
// little-endian value is returned unless preferBigEndian is set.
func BothEndianUint32(data []byte, log logr.Logger, preferBigEndian bool) (uint32, error) {
	if len(data) < 8 {
		return 0, isoerr.New(isoerr.KindTryFromInt, "both-endian uint32 needs 8 bytes")
	}
	lsb := binary.LittleEndian.Uint32(data[0:4])
	msb := binary.BigEndian.Uint32(data[4:8])
	if lsb != msb {
		log.V(1).Info("both-endian uint32 mismatch", "littleEndian", lsb, "bigEndian", msb)
	}
	if preferBigEndian {
		return msb, nil
	}
	return lsb, nil
}

// BothEndianUint16 is BothEndianUint32's 16-bit counterpart, per ECMA-119 §7.2.3.
func BothEndianUint16(data []byte, log logr.Logger, preferBigEndian bool) (uint16, error) {
	if len(data) < 4 {
		return 0, isoerr.New(isoerr.KindTryFromInt, "both-endian uint16 needs 4 bytes")
	}
	lsb := binary.LittleEndian.Uint16(data[0:2])
	msb := binary.BigEndian.Uint16(data[2:4])
	if lsb != msb {
		log.V(1).Info("both-endian uint16 mismatch", "littleEndian", lsb, "bigEndian", msb)
	}
	if preferBigEndian {
		return msb, nil
	}
	return lsb, nil
}

// DecodeDirectoryTime converts the 7-byte directory-record timestamp into a
// Go time.Time, per ECMA-119 §9.1.5.
func DecodeDirectoryTime(data []byte) (time.Time, error) {
	if len(data) != 7 {
		return time.Time{}, isoerr.Newf(isoerr.KindInvalidFS, "invalid directory time length: expected 7 bytes, got %d", len(data))
	}

	year := int(data[0]) + 1900
	month := time.Month(data[1])
	day := int(data[2])
	hour := int(data[3])
	minute := int(data[4])
	second := int(data[5])
	offset := int8(data[6])

	if month < 1 || month > 12 {
		return time.Time{}, isoerr.Newf(isoerr.KindInvalidFS, "invalid month: %d", month)
	}
	if day < 1 || day > 31 {
		return time.Time{}, isoerr.Newf(isoerr.KindInvalidFS, "invalid day: %d", day)
	}
	if hour < 0 || hour > 23 {
		return time.Time{}, isoerr.Newf(isoerr.KindInvalidFS, "invalid hour: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return time.Time{}, isoerr.Newf(isoerr.KindInvalidFS, "invalid minute: %d", minute)
	}
	if second < 0 || second > 59 {
		return time.Time{}, isoerr.Newf(isoerr.KindInvalidFS, "invalid second: %d", second)
	}
	if offset < -48 || offset > 52 {
		return time.Time{}, isoerr.Newf(isoerr.KindInvalidFS, "invalid GMT offset: %d", offset)
	}

	offsetSeconds := int(offset) * 15 * 60
	location := time.FixedZone("ISO9660", offsetSeconds)
	return time.Date(year, month, day, hour, minute, second, 0, location), nil
}

// DecodeVolumeTime converts the 17-byte ASCII volume-descriptor timestamp
// (YYYYMMDDHHMMSShh plus a signed quarter-hour timezone byte) into a Go
// time.Time, per ECMA-119 §8.4.26.1. An all-zero or all-space field denotes
// an unset timestamp; the sentinel is reported as the zero time.Time.
func DecodeVolumeTime(data []byte) (time.Time, error) {
	if len(data) != 17 {
		return time.Time{}, isoerr.Newf(isoerr.KindInvalidFS, "invalid volume time length: expected 17 bytes, got %d", len(data))
	}

	digits := data[:16]
	if isAllZeroOrSpace(digits) {
		return time.Time{}, nil
	}

	parseField := func(lo, hi int) (int, bool) {
		n := 0
		for i := lo; i < hi; i++ {
			c := digits[i]
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		return n, true
	}

	year, ok1 := parseField(0, 4)
	month, ok2 := parseField(4, 6)
	day, ok3 := parseField(6, 8)
	hour, ok4 := parseField(8, 10)
	minute, ok5 := parseField(10, 12)
	second, ok6 := parseField(12, 14)
	hundredths, ok7 := parseField(14, 16)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return time.Time{}, isoerr.New(isoerr.KindInvalidFS, "volume timestamp is not all-numeric")
	}

	offset := int8(data[16])
	offsetSeconds := int(offset) * 15 * 60
	location := time.FixedZone("ISO9660", offsetSeconds)
	nanos := hundredths * 10 * int(time.Millisecond)
	return time.Date(year, time.Month(month), day, hour, minute, second, nanos, location), nil
}

func isAllZeroOrSpace(b []byte) bool {
	for _, c := range b {
		if c != '0' && c != ' ' && c != 0x00 {
			return false
		}
	}
	return true
}

// DecodeCharacterEncoding decodes the 32-byte character-encoding escape
// sequence field found in a Primary or Supplementary volume descriptor, per
// spec.md §4.2. Unknown patterns are rejected as InvalidFS.
func DecodeCharacterEncoding(data []byte) (CharacterEncoding, error) {
	if len(data) < 32 {
		return Iso9660, isoerr.New(isoerr.KindInvalidFS, "character encoding field must be 32 bytes")
	}
	switch {
	case len(data) >= 3 && data[0] == 0x25 && data[1] == 0x2F && data[2] == 0x40:
		return Ucs2Level1, nil
	case len(data) >= 3 && data[0] == 0x25 && data[1] == 0x2F && data[2] == 0x43:
		return Ucs2Level2, nil
	case len(data) >= 3 && data[0] == 0x25 && data[1] == 0x2F && data[2] == 0x45:
		return Ucs2Level3, nil
	case isAllZero(data[:32]):
		return Iso9660, nil
	default:
		return Iso9660, isoerr.New(isoerr.KindInvalidFS, "unrecognised character encoding escape sequence")
	}
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// DecodeString decodes raw bytes under the given CharacterEncoding,
// trimming trailing padding. ISO9660 strings are interpreted as
// UTF-8/ASCII; UCS-2 strings are interpreted as UTF-16 big-endian.
func DecodeString(data []byte, enc CharacterEncoding) (string, error) {
	if !enc.IsUCS2() {
		return strings.TrimRight(string(data), " "), nil
	}

	if len(data)%2 != 0 {
		return "", isoerr.New(isoerr.KindUTF16, "odd byte length for UCS-2 string")
	}
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(data[i*2 : i*2+2])
	}
	decoded := utf16.Decode(units)
	return strings.TrimRight(string(decoded), " "), nil
}
