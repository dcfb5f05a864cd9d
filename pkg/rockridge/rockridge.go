// Package rockridge decodes the payload of individual Rock Ridge / SUSP
// system-use entries once the outer signature/length/version/payload frame
// has already been split out by package susp.
package rockridge

import (
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/bgrewell/iso-kit/pkg/encoding"
	"github.com/bgrewell/iso-kit/pkg/isoerr"
	"github.com/go-logr/logr"
)

// Signature identifies a SUSP/Rock Ridge record type by its two-byte tag.
type Signature string

const (
	SigCE Signature = "CE"
	SigSP Signature = "SP"
	SigER Signature = "ER"
	SigNM Signature = "NM"
	SigPX Signature = "PX"
	SigTF Signature = "TF"
	SigSL Signature = "SL"
	SigCL Signature = "CL"
	SigRE Signature = "RE"
	SigRR Signature = "RR"
)

// RockRidgeExtensionIdentifier is the ER identifier string SUSP-compliant
// Rock Ridge volumes advertise.
const RockRidgeExtensionIdentifier = "RRIP_1991A"

// IEEEExtensionIdentifier is the later IEEE P1282 ER identifier.
const IEEEExtensionIdentifier = "IEEE_P1282"

// Extension enumerates the Rock Ridge revisions detectable from an ER entry.
type Extension int

const (
	RockRidge1_09 Extension = iota
	RockRidge1_12
)

// NameFlags is the one-byte flag field of an NM entry.
type NameFlags uint8

const (
	NameContinue NameFlags = 1 << 0
	NameCurrent  NameFlags = 1 << 1
	NameParent   NameFlags = 1 << 2
	NameHost     NameFlags = 1 << 5
)

func (f NameFlags) Has(bit NameFlags) bool { return f&bit != 0 }

// UnmarshalNameEntry decodes an NM entry payload: one flags byte followed
// by the (possibly empty) name component. Per spec.md §4.4, when
// Current or Parent is set the Name Content is absent.
func UnmarshalNameEntry(payload []byte) (NameFlags, string, error) {
	if len(payload) < 1 {
		return 0, "", isoerr.New(isoerr.KindParse, "NM entry too short")
	}
	flags := NameFlags(payload[0])
	name := string(payload[1:])
	return flags, name, nil
}

// Rock Ridge POSIX mode type-field constants (st_mode & 0170000).
const (
	TypeMask    = 0170000
	TypeSocket  = 0140000
	TypeSymlink = 0120000
	TypeRegular = 0100000
	TypeBlock   = 0060000
	TypeDir     = 0040000
	TypeChar    = 0020000
	TypeFIFO    = 0010000
)

// PosixAttributes is the decoded body of a PX entry.
type PosixAttributes struct {
	Mode  uint32
	Links uint32
	UID   uint32
	GID   uint32
	Inode *uint32
}

// IsSymlink reports whether the PX mode's type field denotes a symbolic link.
func (p *PosixAttributes) IsSymlink() bool {
	return p != nil && p.Mode&TypeMask == TypeSymlink
}

// FileMode converts the PX POSIX mode bits into a Go fs.FileMode.
func (p *PosixAttributes) FileMode() fs.FileMode {
	if p == nil {
		return 0
	}
	var mode fs.FileMode

	switch p.Mode & TypeMask {
	case TypeSocket:
		mode |= fs.ModeSocket
	case TypeSymlink:
		mode |= fs.ModeSymlink
	case TypeBlock:
		mode |= fs.ModeDevice
	case TypeDir:
		mode |= fs.ModeDir
	case TypeChar:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case TypeFIFO:
		mode |= fs.ModeNamedPipe
	}

	mode |= fs.FileMode(p.Mode & 0777)

	if p.Mode&04000 != 0 {
		mode |= fs.ModeSetuid
	}
	if p.Mode&02000 != 0 {
		mode |= fs.ModeSetgid
	}
	if p.Mode&01000 != 0 {
		mode |= fs.ModeSticky
	}

	return mode
}

// UnmarshalPosixEntry decodes a PX entry payload. The inode field is
// present when Rock Ridge 1.12 is in use (40-byte payload) and absent for
// 1.09 (32-byte payload).
func UnmarshalPosixEntry(payload []byte, log logr.Logger, preferBigEndian bool) (*PosixAttributes, error) {
	if len(payload) != 32 && len(payload) != 40 {
		return nil, isoerr.Newf(isoerr.KindParse, "PX entry has unexpected length %d", len(payload))
	}

	mode, err := encoding.BothEndianUint32(payload[0:8], log, preferBigEndian)
	if err != nil {
		return nil, err
	}
	links, err := encoding.BothEndianUint32(payload[8:16], log, preferBigEndian)
	if err != nil {
		return nil, err
	}
	uid, err := encoding.BothEndianUint32(payload[16:24], log, preferBigEndian)
	if err != nil {
		return nil, err
	}
	gid, err := encoding.BothEndianUint32(payload[24:32], log, preferBigEndian)
	if err != nil {
		return nil, err
	}

	attrs := &PosixAttributes{Mode: mode, Links: links, UID: uid, GID: gid}

	if len(payload) == 40 {
		inode, err := encoding.BothEndianUint32(payload[32:40], log, preferBigEndian)
		if err != nil {
			return nil, err
		}
		attrs.Inode = &inode
	}

	return attrs, nil
}

// TimestampFlags is the one-byte flag field of a TF entry.
type TimestampFlags uint8

const (
	TimeCreation   TimestampFlags = 1 << 0
	TimeModify     TimestampFlags = 1 << 1
	TimeAccess     TimestampFlags = 1 << 2
	TimeAttributes TimestampFlags = 1 << 3
	TimeBackup     TimestampFlags = 1 << 4
	TimeExpiration TimestampFlags = 1 << 5
	TimeEffective  TimestampFlags = 1 << 6
	TimeLongForm   TimestampFlags = 1 << 7
)

// Timestamps aggregates the POSIX-style times that may be carried across
// one or more TF entries.
type Timestamps struct {
	Creation   *time.Time
	Modify     *time.Time
	Access     *time.Time
	Attributes *time.Time
	Backup     *time.Time
	Expiration *time.Time
	Effective  *time.Time
}

// decodeShortFormTime parses TF's default 7-byte timestamp, identical in
// layout to a directory record's recording-date field.
func decodeShortFormTime(b []byte) (time.Time, error) {
	return encoding.DecodeDirectoryTime(b)
}

// decodeLongFormTime parses a TF entry flagged LongForm: the 17-byte ASCII
// timestamp used elsewhere for volume-descriptor times.
func decodeLongFormTime(b []byte) (time.Time, error) {
	return encoding.DecodeVolumeTime(b)
}

// UnmarshalTimestampEntry decodes a TF entry payload: one flags byte
// followed by one timestamp per set bit among the seven time-kind flags, in
// flag-bit order (Creation, Modify, Access, Attributes, Backup, Expiration,
// Effective). The width of each timestamp (7 bytes, or 17 when LongForm is
// set) is uniform across the whole entry, per spec.md §4.4.
func UnmarshalTimestampEntry(payload []byte) (TimestampFlags, *Timestamps, error) {
	if len(payload) < 1 {
		return 0, nil, isoerr.New(isoerr.KindParse, "TF entry too short")
	}
	flags := TimestampFlags(payload[0])
	rest := payload[1:]

	width := 7
	longForm := flags&TimeLongForm != 0
	if longForm {
		width = 17
	}

	ts := &Timestamps{}
	order := []struct {
		bit    TimestampFlags
		assign func(*time.Time)
	}{
		{TimeCreation, func(t *time.Time) { ts.Creation = t }},
		{TimeModify, func(t *time.Time) { ts.Modify = t }},
		{TimeAccess, func(t *time.Time) { ts.Access = t }},
		{TimeAttributes, func(t *time.Time) { ts.Attributes = t }},
		{TimeBackup, func(t *time.Time) { ts.Backup = t }},
		{TimeExpiration, func(t *time.Time) { ts.Expiration = t }},
		{TimeEffective, func(t *time.Time) { ts.Effective = t }},
	}

	offset := 0
	for _, slot := range order {
		if flags&slot.bit == 0 {
			continue
		}
		if offset+width > len(rest) {
			return flags, nil, isoerr.New(isoerr.KindParse, "TF entry truncated")
		}
		var t time.Time
		var err error
		if longForm {
			t, err = decodeLongFormTime(rest[offset : offset+width])
		} else {
			t, err = decodeShortFormTime(rest[offset : offset+width])
		}
		if err != nil {
			return flags, nil, err
		}
		slot.assign(&t)
		offset += width
	}

	return flags, ts, nil
}

// SymlinkRecordFlags is the one-byte flag field of a single SL component record.
type SymlinkRecordFlags uint8

const (
	SLContinue   SymlinkRecordFlags = 1 << 0
	SLCurrent    SymlinkRecordFlags = 1 << 1
	SLParent     SymlinkRecordFlags = 1 << 2
	SLRoot       SymlinkRecordFlags = 1 << 3
	SLVolumeRoot SymlinkRecordFlags = 1 << 4
	SLHostname   SymlinkRecordFlags = 1 << 5
)

// SymlinkComponent is one decoded component record within an SL entry.
type SymlinkComponent struct {
	Flags SymlinkRecordFlags
	Name  string
}

// String renders the component per spec.md §4.4's interpretation: Root and
// VolumeRoot are treated as synonyms, both producing a leading path
// separator; Current -> ".", Parent -> "..", else the raw component text.
func (c SymlinkComponent) String() string {
	switch {
	case c.Flags&(SLRoot|SLVolumeRoot) != 0:
		return "/"
	case c.Flags&SLCurrent != 0:
		return "."
	case c.Flags&SLParent != 0:
		return ".."
	default:
		return c.Name
	}
}

// UnmarshalSymlinkEntry decodes an SL entry payload: one should-continue
// byte (0 or 1) followed by one or more component records, each a flags
// byte and a length-prefixed name.
func UnmarshalSymlinkEntry(payload []byte) (shouldContinue bool, components []SymlinkComponent, err error) {
	if len(payload) < 1 {
		return false, nil, isoerr.New(isoerr.KindParse, "SL entry too short")
	}
	switch payload[0] {
	case 0x00:
		shouldContinue = false
	case 0x01:
		shouldContinue = true
	default:
		return false, nil, isoerr.Newf(isoerr.KindParse, "SL should_continue byte must be 0 or 1, got %d", payload[0])
	}

	rest := payload[1:]
	for len(rest) > 0 {
		if len(rest) < 2 {
			return false, nil, isoerr.New(isoerr.KindParse, "SL component record truncated")
		}
		flags := SymlinkRecordFlags(rest[0])
		n := int(rest[1])
		if 2+n > len(rest) {
			return false, nil, isoerr.New(isoerr.KindParse, "SL component length exceeds payload")
		}
		name := string(rest[2 : 2+n])
		components = append(components, SymlinkComponent{Flags: flags, Name: name})
		rest = rest[2+n:]
	}

	return shouldContinue, components, nil
}

// JoinSymlinkComponents concatenates a resolved component sequence with '/',
// per spec.md §4.4's SL aggregation rule.
func JoinSymlinkComponents(components []SymlinkComponent) string {
	parts := make([]string, 0, len(components))
	for _, c := range components {
		parts = append(parts, c.String())
	}
	joined := strings.Join(parts, "/")
	if strings.HasPrefix(joined, "//") {
		joined = joined[1:]
	}
	return joined
}

// ContinuationArea is the decoded body of a CE entry.
type ContinuationArea struct {
	BlockLocation uint32
	Offset        uint32
	Length        uint32
}

// UnmarshalContinuationEntry decodes a CE entry payload: three both-endian
// 32-bit integers (block location, byte offset, byte length).
func UnmarshalContinuationEntry(payload []byte, log logr.Logger, preferBigEndian bool) (*ContinuationArea, error) {
	if len(payload) != 24 {
		return nil, isoerr.Newf(isoerr.KindParse, "CE entry must be 24 bytes, got %d", len(payload))
	}
	block, err := encoding.BothEndianUint32(payload[0:8], log, preferBigEndian)
	if err != nil {
		return nil, err
	}
	off, err := encoding.BothEndianUint32(payload[8:16], log, preferBigEndian)
	if err != nil {
		return nil, err
	}
	length, err := encoding.BothEndianUint32(payload[16:24], log, preferBigEndian)
	if err != nil {
		return nil, err
	}
	return &ContinuationArea{BlockLocation: block, Offset: off, Length: length}, nil
}

// UnmarshalChildLinkEntry decodes a CL entry payload: a single both-endian
// 32-bit LBA.
func UnmarshalChildLinkEntry(payload []byte, log logr.Logger, preferBigEndian bool) (uint32, error) {
	if len(payload) != 8 {
		return 0, isoerr.Newf(isoerr.KindParse, "CL entry must be 8 bytes, got %d", len(payload))
	}
	return encoding.BothEndianUint32(payload, log, preferBigEndian)
}

// ExtensionRecord is one entry of an ER entry's (possibly repeated) body.
type ExtensionRecord struct {
	Identifier  string
	Description string
	Source      string
	Version     byte
}

// UnmarshalExtensionRecord decodes a single ER sub-record: id_len, desc_len,
// src_len, version bytes, followed by the three strings. It returns the
// number of payload bytes consumed so callers can walk a repeated ER body.
func UnmarshalExtensionRecord(payload []byte) (*ExtensionRecord, int, error) {
	if len(payload) < 4 {
		return nil, 0, isoerr.New(isoerr.KindParse, "ER entry too short")
	}
	idLen := int(payload[0])
	descLen := int(payload[1])
	srcLen := int(payload[2])
	version := payload[3]

	need := 4 + idLen + descLen + srcLen
	if need > len(payload) {
		return nil, 0, isoerr.New(isoerr.KindParse, "ER entry field lengths exceed payload")
	}

	off := 4
	id := string(payload[off : off+idLen])
	off += idLen
	desc := string(payload[off : off+descLen])
	off += descLen
	src := string(payload[off : off+srcLen])
	off += srcLen

	return &ExtensionRecord{Identifier: id, Description: desc, Source: src, Version: version}, off, nil
}

// ResolveExtension maps a known (identifier, version) ER pair to a Rock
// Ridge Extension. ok is false for an unrecognised pair.
func ResolveExtension(rec *ExtensionRecord) (ext Extension, ok bool) {
	switch {
	case rec.Identifier == RockRidgeExtensionIdentifier && rec.Version == 1:
		return RockRidge1_09, true
	case rec.Identifier == IEEEExtensionIdentifier && rec.Version == 1:
		return RockRidge1_12, true
	default:
		return 0, false
	}
}

// RRHintFlags is the one-byte hint bitset of a (Rock Ridge 1.09 only) RR entry.
type RRHintFlags uint8

const (
	RRHintPX RRHintFlags = 1 << 0
	RRHintPN RRHintFlags = 1 << 1
	RRHintSL RRHintFlags = 1 << 2
	RRHintNM RRHintFlags = 1 << 3
	RRHintCL RRHintFlags = 1 << 4
	RRHintPL RRHintFlags = 1 << 5
	RRHintRE RRHintFlags = 1 << 6
	RRHintTF RRHintFlags = 1 << 7
)

// UnmarshalRockRidgeHintEntry decodes an RR entry's one-byte hint bitset.
func UnmarshalRockRidgeHintEntry(payload []byte) (RRHintFlags, error) {
	if len(payload) < 1 {
		return 0, isoerr.New(isoerr.KindParse, "RR entry too short")
	}
	return RRHintFlags(payload[0]), nil
}

// SuspIndicatorMagic is the required two-byte magic of an SP entry.
var SuspIndicatorMagic = [2]byte{0xBE, 0xEF}

// ValidateSuspIndicator checks an SP entry's payload begins with the
// required magic tag, per spec.md §4.4.
func ValidateSuspIndicator(payload []byte) error {
	if len(payload) < 2 || payload[0] != SuspIndicatorMagic[0] || payload[1] != SuspIndicatorMagic[1] {
		return isoerr.New(isoerr.KindInvalidFS, "SP entry missing SUSP indicator magic")
	}
	return nil
}

// ParseVersionSuffix splits a trailing ";nnn" version suffix off a file
// identifier, per spec.md §3. Identifiers without a semicolon return
// version 1 unchanged.
func ParseVersionSuffix(identifier string) (base string, version uint16, err error) {
	idx := strings.LastIndexByte(identifier, ';')
	if idx < 0 {
		return identifier, 1, nil
	}
	base = identifier[:idx]
	suffix := identifier[idx+1:]
	if suffix == "" {
		return base, 1, nil
	}
	n, perr := strconv.ParseUint(suffix, 10, 16)
	if perr != nil {
		return base, 0, isoerr.Wrap(isoerr.KindParseInt, perr)
	}
	return base, uint16(n), nil
}
