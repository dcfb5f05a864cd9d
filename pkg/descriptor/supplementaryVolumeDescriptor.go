package descriptor

import (
	"encoding/binary"
	"io"
	"strings"

	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/bgrewell/iso-kit/pkg/directory"
	"github.com/bgrewell/iso-kit/pkg/encoding"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/bgrewell/iso-kit/pkg/options"
	"github.com/bgrewell/iso-kit/pkg/path"
)

// ParseSupplementaryVolumeDescriptor decodes a Supplementary Volume
// Descriptor body (ECMA-119 §8.5), which is also where Joliet's escape
// sequences and UCS-2 identifiers live (spec.md §5).
func ParseSupplementaryVolumeDescriptor(vd VolumeDescriptor, isoFile io.ReaderAt, opts options.Options) (*SupplementaryVolumeDescriptor, error) {
	log := opts.Logger
	log.V(logging.LEVEL_TRACE).Info("parsing supplementary volume descriptor")

	svd := &SupplementaryVolumeDescriptor{isoFile: isoFile}
	if err := svd.Unmarshal(vd.Data(), isoFile, opts); err != nil {
		return nil, err
	}

	if svd.Type() != VolumeDescriptorSupplementary {
		log.V(logging.LEVEL_TRACE).Info("unexpected volume descriptor type for an SVD", "type", svd.Type())
	}
	if svd.Identifier() != consts.ISO9660_STD_IDENTIFIER {
		log.V(logging.LEVEL_TRACE).Info("unexpected standard identifier", "got", svd.Identifier())
	}

	switch svd.Version() {
	case 1, 2:
		log.V(logging.LEVEL_TRACE).Info("volume descriptor version recognized", "version", svd.Version())
	default:
		log.V(logging.LEVEL_TRACE).Info("unexpected supplementary volume descriptor version", "got", svd.Version())
	}

	if svd.IsJoliet() {
		log.V(logging.LEVEL_TRACE).Info("joliet escape sequence detected", "level", svd.JolietLevel())
	}

	return svd, nil
}

// SupplementaryVolumeDescriptor is the decoded Supplementary Volume
// Descriptor. When its EscapeSequences field carries one of the Joliet
// level escapes, its string fields and directory tree are UCS-2BE rather
// than d-characters.
type SupplementaryVolumeDescriptor struct {
	rawData                     [consts.ISO9660_SECTOR_SIZE]byte
	vdType                      VolumeDescriptorType
	standardIdentifier          string
	volumeDescriptorVersion     int8
	VolumeFlags                 [1]byte
	SystemIdentifier            string
	VolumeIdentifier            string
	VolumeSpaceSize             uint32
	EscapeSequences             [32]byte
	VolumeSetSize               uint16
	VolumeSequenceNumber        uint16
	LogicalBlockSize            uint16
	pathTableSize               int32
	LPathTableLocation          uint32
	LOptionalPathTableLocation  uint32
	MPathTableLocation          uint32
	MOptionalPathTableLocation  uint32
	RootDirectoryEntry          *directory.DirectoryEntry
	VolumeSetIdentifier         string
	PublisherIdentifier         string
	DataPreparerIdentifier      string
	ApplicationIdentifier       string
	CopyRightFileIdentifier     string
	AbstractFileIdentifier      string
	BibliographicFileIdentifier string
	VolumeCreationDate          string
	VolumeModificationDate      string
	VolumeExpirationDate        string
	VolumeEffectiveDate         string
	FileStructureVersion        byte
	ApplicationUse              [consts.ISO9660_APPLICATION_USE_SIZE]byte
	pathTable                   []*path.PathTableRecord
	isoFile                     io.ReaderAt
	isJoliet                    bool
	jolietLevel                 encoding.CharacterEncoding
}

func (svd *SupplementaryVolumeDescriptor) Type() VolumeDescriptorType { return svd.vdType }
func (svd *SupplementaryVolumeDescriptor) Identifier() string         { return svd.standardIdentifier }
func (svd *SupplementaryVolumeDescriptor) Version() int8              { return svd.volumeDescriptorVersion }
func (svd *SupplementaryVolumeDescriptor) Data() [consts.ISO9660_SECTOR_SIZE]byte {
	return svd.rawData
}
func (svd *SupplementaryVolumeDescriptor) PathTableLocation() uint32 { return svd.LPathTableLocation }
func (svd *SupplementaryVolumeDescriptor) PathTableSize() int32      { return svd.pathTableSize }

func (svd *SupplementaryVolumeDescriptor) PathTable() *[]*path.PathTableRecord {
	if svd.pathTable == nil {
		svd.pathTable = make([]*path.PathTableRecord, 0)
	}
	return &svd.pathTable
}

// IsJoliet reports whether this SVD's escape sequence matched one of the
// three Joliet levels.
func (svd *SupplementaryVolumeDescriptor) IsJoliet() bool { return svd.isJoliet }

// JolietLevel returns the decoded Joliet UCS-2 level, valid only when
// IsJoliet is true.
func (svd *SupplementaryVolumeDescriptor) JolietLevel() encoding.CharacterEncoding {
	return svd.jolietLevel
}

// Unmarshal decodes a 2048-byte Supplementary Volume Descriptor sector.
func (svd *SupplementaryVolumeDescriptor) Unmarshal(data [consts.ISO9660_SECTOR_SIZE]byte, isoFile io.ReaderAt, opts options.Options) (err error) {
	svd.rawData = data

	copy(svd.EscapeSequences[:], data[88:120])
	switch string(svd.EscapeSequences[0:3]) {
	case consts.JOLIET_LEVEL_1_ESCAPE:
		svd.isJoliet = true
		svd.jolietLevel = encoding.Ucs2Level1
	case consts.JOLIET_LEVEL_2_ESCAPE:
		svd.isJoliet = true
		svd.jolietLevel = encoding.Ucs2Level2
	case consts.JOLIET_LEVEL_3_ESCAPE:
		svd.isJoliet = true
		svd.jolietLevel = encoding.Ucs2Level3
	default:
		svd.isJoliet = false
		svd.jolietLevel = encoding.Iso9660
	}

	rootRecord := directory.NewRecord(opts.Logger)
	rootRecord.Joliet = svd.isJoliet
	rootRecord.CharacterEncoding = svd.jolietLevel
	if err = rootRecord.Unmarshal(data[156:190], isoFile, opts); err != nil {
		return err
	}

	svd.vdType = VolumeDescriptorType(data[0])
	svd.standardIdentifier = string(data[1:6])
	svd.volumeDescriptorVersion = int8(data[6])
	copy(svd.VolumeFlags[:], data[7:8])

	enc := svd.jolietLevel
	if svd.SystemIdentifier, err = encoding.DecodeString(data[8:40], enc); err != nil {
		return err
	}
	if svd.VolumeIdentifier, err = encoding.DecodeString(data[40:72], enc); err != nil {
		return err
	}

	if svd.VolumeSpaceSize, err = encoding.BothEndianUint32(data[80:88], opts.Logger, opts.BigEndianPreferred); err != nil {
		return err
	}
	if svd.VolumeSetSize, err = encoding.BothEndianUint16(data[120:124], opts.Logger, opts.BigEndianPreferred); err != nil {
		return err
	}
	if svd.VolumeSequenceNumber, err = encoding.BothEndianUint16(data[124:128], opts.Logger, opts.BigEndianPreferred); err != nil {
		return err
	}
	if svd.LogicalBlockSize, err = encoding.BothEndianUint16(data[128:132], opts.Logger, opts.BigEndianPreferred); err != nil {
		return err
	}
	size32, err := encoding.BothEndianUint32(data[132:140], opts.Logger, opts.BigEndianPreferred)
	if err != nil {
		return err
	}
	svd.pathTableSize = int32(size32)

	svd.LPathTableLocation = binary.LittleEndian.Uint32(data[140:144])
	svd.LOptionalPathTableLocation = binary.LittleEndian.Uint32(data[144:148])
	svd.MPathTableLocation = binary.BigEndian.Uint32(data[148:152])
	svd.MOptionalPathTableLocation = binary.BigEndian.Uint32(data[152:156])

	svd.RootDirectoryEntry = directory.NewEntry(rootRecord, isoFile, "", opts)

	if svd.VolumeSetIdentifier, err = encoding.DecodeString(data[190:318], enc); err != nil {
		return err
	}
	if svd.PublisherIdentifier, err = encoding.DecodeString(data[318:446], enc); err != nil {
		return err
	}
	if svd.DataPreparerIdentifier, err = encoding.DecodeString(data[446:574], enc); err != nil {
		return err
	}
	if svd.ApplicationIdentifier, err = encoding.DecodeString(data[574:702], enc); err != nil {
		return err
	}
	svd.CopyRightFileIdentifier = strings.TrimRight(string(data[702:739]), " ")
	svd.AbstractFileIdentifier = strings.TrimRight(string(data[739:776]), " ")
	svd.BibliographicFileIdentifier = strings.TrimRight(string(data[776:813]), " ")
	svd.VolumeCreationDate = string(data[813:830])
	svd.VolumeModificationDate = string(data[830:847])
	svd.VolumeExpirationDate = string(data[847:864])
	svd.VolumeEffectiveDate = string(data[864:881])
	svd.FileStructureVersion = data[881]
	copy(svd.ApplicationUse[:], data[883:1395])

	return nil
}
