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

// ParsePrimaryVolumeDescriptor decodes a Primary Volume Descriptor body
// (ECMA-119 §8.4) from an already-header-parsed VolumeDescriptor.
func ParsePrimaryVolumeDescriptor(vd VolumeDescriptor, isoFile io.ReaderAt, opts options.Options) (*PrimaryVolumeDescriptor, error) {
	log := opts.Logger
	log.V(logging.LEVEL_TRACE).Info("parsing primary volume descriptor")

	pvd := &PrimaryVolumeDescriptor{isoFile: isoFile}
	if err := pvd.Unmarshal(vd.Data(), isoFile, opts); err != nil {
		return nil, err
	}

	if pvd.Type() != VolumeDescriptorPrimary {
		log.V(logging.LEVEL_TRACE).Info("unexpected volume descriptor type for a PVD", "type", pvd.Type())
	}
	if pvd.Identifier() != consts.ISO9660_STD_IDENTIFIER {
		log.V(logging.LEVEL_TRACE).Info("unexpected standard identifier", "got", pvd.Identifier())
	}
	if pvd.Version() != consts.ISO9660_VOLUME_DESC_VERSION {
		log.V(logging.LEVEL_TRACE).Info("unexpected volume descriptor version", "got", pvd.Version())
	}

	return pvd, nil
}

// PrimaryVolumeDescriptor is the decoded Primary Volume Descriptor.
type PrimaryVolumeDescriptor struct {
	rawData                     [consts.ISO9660_SECTOR_SIZE]byte
	vdType                      VolumeDescriptorType
	standardIdentifier          string
	volumeDescriptorVersion     int8
	SystemIdentifier            string
	VolumeIdentifier            string
	VolumeSpaceSize             uint32
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
}

func (pvd *PrimaryVolumeDescriptor) PathTableLocation() uint32 { return pvd.LPathTableLocation }
func (pvd *PrimaryVolumeDescriptor) PathTableSize() int32      { return pvd.pathTableSize }

func (pvd *PrimaryVolumeDescriptor) PathTable() *[]*path.PathTableRecord {
	if pvd.pathTable == nil {
		pvd.pathTable = make([]*path.PathTableRecord, 0)
	}
	return &pvd.pathTable
}

func (pvd *PrimaryVolumeDescriptor) Type() VolumeDescriptorType { return pvd.vdType }
func (pvd *PrimaryVolumeDescriptor) Identifier() string         { return pvd.standardIdentifier }
func (pvd *PrimaryVolumeDescriptor) Version() int8              { return pvd.volumeDescriptorVersion }
func (pvd *PrimaryVolumeDescriptor) Data() [consts.ISO9660_SECTOR_SIZE]byte {
	return pvd.rawData
}

// Unmarshal decodes a 2048-byte Primary Volume Descriptor sector.
func (pvd *PrimaryVolumeDescriptor) Unmarshal(data [consts.ISO9660_SECTOR_SIZE]byte, isoFile io.ReaderAt, opts options.Options) (err error) {
	pvd.rawData = data

	rootRecord := directory.NewRecord(opts.Logger)
	if err = rootRecord.Unmarshal(data[156:190], isoFile, opts); err != nil {
		return err
	}

	pvd.vdType = VolumeDescriptorType(data[0])
	pvd.standardIdentifier = string(data[1:6])
	pvd.volumeDescriptorVersion = int8(data[6])
	pvd.SystemIdentifier = strings.TrimRight(string(data[8:40]), " ")
	pvd.VolumeIdentifier = strings.TrimRight(string(data[40:72]), " ")

	if pvd.VolumeSpaceSize, err = encoding.BothEndianUint32(data[80:88], opts.Logger, opts.BigEndianPreferred); err != nil {
		return err
	}
	if pvd.VolumeSetSize, err = encoding.BothEndianUint16(data[120:124], opts.Logger, opts.BigEndianPreferred); err != nil {
		return err
	}
	if pvd.VolumeSequenceNumber, err = encoding.BothEndianUint16(data[124:128], opts.Logger, opts.BigEndianPreferred); err != nil {
		return err
	}
	if pvd.LogicalBlockSize, err = encoding.BothEndianUint16(data[128:132], opts.Logger, opts.BigEndianPreferred); err != nil {
		return err
	}
	size32, err := encoding.BothEndianUint32(data[132:140], opts.Logger, opts.BigEndianPreferred)
	if err != nil {
		return err
	}
	pvd.pathTableSize = int32(size32)

	// The path table location fields are each single-endian (ECMA-119
	// §8.4.14-17): an L-type-path-table pair in little-endian followed by
	// an M-type pair in big-endian, rather than one both-endian field.
	pvd.LPathTableLocation = binary.LittleEndian.Uint32(data[140:144])
	pvd.LOptionalPathTableLocation = binary.LittleEndian.Uint32(data[144:148])
	pvd.MPathTableLocation = binary.BigEndian.Uint32(data[148:152])
	pvd.MOptionalPathTableLocation = binary.BigEndian.Uint32(data[152:156])

	pvd.RootDirectoryEntry = directory.NewEntry(rootRecord, isoFile, "", opts)

	pvd.VolumeSetIdentifier = strings.TrimRight(string(data[190:318]), " ")
	pvd.PublisherIdentifier = strings.TrimRight(string(data[318:446]), " ")
	pvd.DataPreparerIdentifier = strings.TrimRight(string(data[446:574]), " ")
	pvd.ApplicationIdentifier = strings.TrimRight(string(data[574:702]), " ")
	pvd.CopyRightFileIdentifier = strings.TrimRight(string(data[702:739]), " ")
	pvd.AbstractFileIdentifier = strings.TrimRight(string(data[739:776]), " ")
	pvd.BibliographicFileIdentifier = strings.TrimRight(string(data[776:813]), " ")
	pvd.VolumeCreationDate = string(data[813:830])
	pvd.VolumeModificationDate = string(data[830:847])
	pvd.VolumeExpirationDate = string(data[847:864])
	pvd.VolumeEffectiveDate = string(data[864:881])
	pvd.FileStructureVersion = data[881]
	copy(pvd.ApplicationUse[:], data[883:1395])

	return nil
}
