package consts

// ISOType represents the type of optical disc filesystem image.
type ISOType int

const (
	// ISO9660 is presently the only supported image type. UDF is an explicit
	// non-goal.
	ISO9660 ISOType = iota
)

const (
	// Number of system area sectors.
	ISO9660_SYSTEM_AREA_SECTORS = 16

	// Standard ISO9660 identifier.
	ISO9660_STD_IDENTIFIER = "CD001"

	// ISO9660 volume descriptor version (always 1).
	ISO9660_VOLUME_DESC_VERSION = 1

	// ISO9660 default sector size. Non-2048 logical block sizes are a
	// non-goal; this is the only size this package understands.
	ISO9660_SECTOR_SIZE = 2048

	// ISO9660 volume descriptor header size: type(1) + "CD001"(5) + version(1).
	ISO9660_VOLUME_DESC_HEADER_SIZE = 7

	// ISO9660 application use area size.
	ISO9660_APPLICATION_USE_SIZE = 512

	// JOLIET level 1, 2, and 3 escape sequences.
	JOLIET_LEVEL_1_ESCAPE = "%/@"
	JOLIET_LEVEL_2_ESCAPE = "%/C"
	JOLIET_LEVEL_3_ESCAPE = "%/E"

	// a-characters set which are specified in the International Reference Version at the following positions.
	//   | 2/0 - 2/2
	//   | 2/5 - 2/15
	//   | 3/0 - 3/15
	//   | 4/1 - 4/15
	//   | 5/0 - 5/10
	//   | 5/15
	A_CHARACTERS = " !\"%&'()*+,-./0123456789:;<=>?ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

	// d-characters: 37 characters in the following positions of the International Reference Version
	// | 3/0 - 3/9
	// | 4/1 - 5/10
	// | 5/15
	D_CHARACTERS = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

	// d1-characters: the permitted subset of d-characters for level 1
	// identifiers once an implementation allows a wider interchange level;
	// kept distinct from D_CHARACTERS so validation can be tightened per
	// interchange level without disturbing callers.
	D1_CHARACTERS = ""

	// Separators allowed by ISO9660 0x2E and 0x3B.
	ISO9660_SEPARATOR_1 = "."
	ISO9660_SEPARATOR_2 = ";"

	// ISO9660 Filler 0x20 (space).
	ISO9660_FILLER = " "
)

// Default cap on SUSP continuation chains (CE, and NM/SL record chains),
// guarding against pathological or maliciously crafted images looping
// forever. See spec §9 "Continuation chains".
const DefaultMaxContinuations = 256
