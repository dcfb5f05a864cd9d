package descriptor

import (
	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/bgrewell/iso-kit/pkg/isoerr"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/bgrewell/iso-kit/pkg/path"
	"github.com/go-logr/logr"
)

// VolumeDescriptorType is the one-byte type tag at the start of every
// volume descriptor (ECMA-119 §8.1).
type VolumeDescriptorType byte

const (
	VolumeDescriptorBootRecord    VolumeDescriptorType = 0x00
	VolumeDescriptorPrimary       VolumeDescriptorType = 0x01
	VolumeDescriptorSupplementary VolumeDescriptorType = 0x02
	VolumeDescriptorPartition     VolumeDescriptorType = 0x03
	VolumeDescriptorSetTerminatorType VolumeDescriptorType = 0xFF
)

// ParseVolumeDescriptor reads the common 7-byte header (type, "CD001",
// version) of one 2048-byte volume descriptor sector, without interpreting
// its type-specific body.
func ParseVolumeDescriptor(data []byte, logger logr.Logger) (VolumeDescriptor, error) {
	logger.V(logging.LEVEL_TRACE).Info("parsing volume descriptor header")
	vd := &volumeDescriptor{logger: logger}
	if err := vd.Unmarshal(data); err != nil {
		return nil, err
	}
	return vd, nil
}

// VolumeDescriptor is the common interface every decoded volume descriptor
// satisfies, letting the volume descriptor set scan in iso.go inspect the
// header before dispatching to a type-specific parser.
type VolumeDescriptor interface {
	Type() VolumeDescriptorType
	Identifier() string
	Version() int8
	PathTableLocation() uint32
	PathTableSize() int32
	PathTable() *[]*path.PathTableRecord
	Data() [consts.ISO9660_SECTOR_SIZE]byte
}

type volumeDescriptor struct {
	vdType     VolumeDescriptorType
	identifier string
	version    int8
	data       [consts.ISO9660_SECTOR_SIZE]byte
	logger     logr.Logger
}

func (vd *volumeDescriptor) Type() VolumeDescriptorType { return vd.vdType }
func (vd *volumeDescriptor) Identifier() string         { return vd.identifier }
func (vd *volumeDescriptor) Version() int8              { return vd.version }
func (vd *volumeDescriptor) Data() [consts.ISO9660_SECTOR_SIZE]byte {
	return vd.data
}
func (vd *volumeDescriptor) PathTableLocation() uint32            { return 0 }
func (vd *volumeDescriptor) PathTableSize() int32                 { return 0 }
func (vd *volumeDescriptor) PathTable() *[]*path.PathTableRecord  { return nil }

func (vd *volumeDescriptor) Unmarshal(data []byte) error {
	if len(data) < consts.ISO9660_VOLUME_DESC_HEADER_SIZE {
		return isoerr.New(isoerr.KindInvalidFS, "volume descriptor shorter than its 7-byte header")
	}
	vd.vdType = VolumeDescriptorType(data[0])
	vd.identifier = string(data[1:6])
	vd.version = int8(data[6])
	copy(vd.data[:], data)
	return nil
}

// VolumeDescriptorSetTerminator is the type-255 sentinel that ends the
// volume descriptor set (ECMA-119 §8.3).
type VolumeDescriptorSetTerminator struct {
	StandardIdentifier string
}
