package descriptor

import (
	"strings"

	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/bgrewell/iso-kit/pkg/logging"
	"github.com/go-logr/logr"
)

// ParseBootRecordVolumeDescriptor decodes a Boot Record volume descriptor
// body (ECMA-119 §8.2). The disc's El Torito boot catalog, if any, lives
// in BootSystemUse; interpreting it is a non-goal.
func ParseBootRecordVolumeDescriptor(vd VolumeDescriptor, logger logr.Logger) (*BootRecordVolumeDescriptor, error) {
	logger.V(logging.LEVEL_TRACE).Info("parsing boot record volume descriptor")

	brvd := &BootRecordVolumeDescriptor{}
	if err := brvd.Unmarshal(vd.Data()); err != nil {
		return nil, err
	}

	if brvd.Type != VolumeDescriptorBootRecord {
		logger.V(logging.LEVEL_TRACE).Info("unexpected volume descriptor type for a boot record", "type", brvd.Type)
	}
	if brvd.StandardIdentifier != consts.ISO9660_STD_IDENTIFIER {
		logger.V(logging.LEVEL_TRACE).Info("unexpected standard identifier", "got", brvd.StandardIdentifier)
	}
	if brvd.VolumeDescriptorVersion != consts.ISO9660_VOLUME_DESC_VERSION {
		logger.V(logging.LEVEL_TRACE).Info("unexpected volume descriptor version", "got", brvd.VolumeDescriptorVersion)
	}

	return brvd, nil
}

// BootRecordVolumeDescriptor is the decoded Boot Record volume descriptor.
type BootRecordVolumeDescriptor struct {
	Type                    VolumeDescriptorType
	StandardIdentifier      string
	VolumeDescriptorVersion int
	BootSystemIdentifier    string
	BootIdentifier          string
	BootSystemUse           [1977]byte
}

// Unmarshal decodes a 2048-byte Boot Record volume descriptor sector.
func (brvd *BootRecordVolumeDescriptor) Unmarshal(data [consts.ISO9660_SECTOR_SIZE]byte) error {
	brvd.Type = VolumeDescriptorType(data[0])
	brvd.StandardIdentifier = string(data[1:6])
	brvd.VolumeDescriptorVersion = int(data[6])
	brvd.BootSystemIdentifier = strings.TrimRight(string(data[7:39]), " \x00")
	brvd.BootIdentifier = strings.TrimRight(string(data[39:71]), " \x00")
	copy(brvd.BootSystemUse[:], data[71:consts.ISO9660_SECTOR_SIZE])

	return nil
}
