package directory

import (
	"io"

	"github.com/bgrewell/iso-kit/pkg/encoding"
	"github.com/bgrewell/iso-kit/pkg/isoerr"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/susp"
	"github.com/go-logr/logr"
)

// NewRecord creates an empty DirectoryRecord ready for Unmarshal.
func NewRecord(logger logr.Logger) *DirectoryRecord {
	return &DirectoryRecord{logger: logger}
}

// DirectoryRecord is a single ISO 9660 directory record (ECMA-119 §9.1),
// decoded with its Rock Ridge / SUSP system use area folded into an
// ExtraMeta when extensions are present.
type DirectoryRecord struct {
	LengthOfDirectoryRecord uint8
	ExtendedAttributeRecord uint8
	LocationOfExtent        uint32
	DataLength              uint32
	RecordingDateAndTime    []byte
	FileFlags               *FileFlags
	FileUnitSize            uint8
	InterleaveGapSize       uint8
	VolumeSequenceNumber    uint16
	FileIdentifierLength    uint8
	FileIdentifier          string
	SystemUse               []byte
	Extra                   *susp.ExtraMeta
	Joliet                  bool
	CharacterEncoding       encoding.CharacterEncoding
	logger                  logr.Logger
}

// Unmarshal decodes a DirectoryRecord from its on-disc form. isoReader is
// needed to chase any CE continuation areas referenced from the system use
// field.
func (dr *DirectoryRecord) Unmarshal(data []byte, isoReader io.ReaderAt, opts options.Options) error {
	if len(data) < 34 {
		return isoerr.Newf(isoerr.KindInvalidFS, "directory record shorter than the 34-byte minimum (33-byte fixed header plus a 1-byte identifier): got %d bytes", len(data))
	}

	dr.logger = opts.Logger

	dr.LengthOfDirectoryRecord = data[0]
	dr.ExtendedAttributeRecord = data[1]

	loc, err := encoding.BothEndianUint32(data[2:10], opts.Logger, opts.BigEndianPreferred)
	if err != nil {
		return err
	}
	dr.LocationOfExtent = loc

	length, err := encoding.BothEndianUint32(data[10:18], opts.Logger, opts.BigEndianPreferred)
	if err != nil {
		return err
	}
	dr.DataLength = length

	dr.RecordingDateAndTime = append([]byte(nil), data[18:25]...)

	dr.FileFlags = &FileFlags{}
	dr.FileFlags.Set(data[25])
	dr.FileUnitSize = data[26]
	dr.InterleaveGapSize = data[27]

	seq, err := encoding.BothEndianUint16(data[28:32], opts.Logger, opts.BigEndianPreferred)
	if err != nil {
		return err
	}
	dr.VolumeSequenceNumber = seq

	dr.FileIdentifierLength = data[32]

	if int(33+dr.FileIdentifierLength) > len(data) {
		return isoerr.New(isoerr.KindInvalidFS, "file identifier extends beyond the directory record")
	}
	rawIdentifier := data[33 : 33+dr.FileIdentifierLength]

	if dr.Joliet && dr.FileIdentifierLength != 1 {
		name, err := encoding.DecodeString(rawIdentifier, encoding.Ucs2Level3)
		if err != nil {
			return err
		}
		dr.FileIdentifier = name
	} else {
		dr.FileIdentifier = string(rawIdentifier)
	}

	systemUseStart := int(33 + dr.FileIdentifierLength)
	if dr.FileIdentifierLength%2 == 0 {
		systemUseStart++
	}

	recordEnd := int(dr.LengthOfDirectoryRecord)
	if recordEnd == 0 || recordEnd > len(data) {
		recordEnd = len(data)
	}

	if systemUseStart < recordEnd {
		dr.SystemUse = append([]byte(nil), data[systemUseStart:recordEnd]...)
	}

	if len(dr.SystemUse) > 0 && opts.RockRidgeEnabled {
		entries, err := susp.CollectEntries(dr.SystemUse, isoReader, opts, opts.Logger)
		if err != nil {
			return err
		}
		extra, err := susp.Aggregate(entries, opts, opts.Logger)
		if err != nil {
			return err
		}
		dr.Extra = extra
	}

	dr.logger.V(logging.LEVEL_TRACE).Info("unmarshalled directory record",
		"identifier", dr.FileIdentifier, "extent", dr.LocationOfExtent, "length", dr.DataLength)

	return nil
}

// HasRockRidge reports whether this record carried any recognised Rock
// Ridge / SUSP system use entries.
func (dr *DirectoryRecord) HasRockRidge() bool {
	return dr.Extra != nil && dr.Extra.RockRidge
}

// IsSpecial reports whether the identifier is the single-byte "." (0x00)
// or ".." (0x01) self/parent marker, per spec.md §3.
func (dr *DirectoryRecord) IsSpecial() bool {
	return len(dr.FileIdentifier) == 1 && (dr.FileIdentifier[0] == 0x00 || dr.FileIdentifier[0] == 0x01)
}
