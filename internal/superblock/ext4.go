package superblock

import "encoding/binary"

// The ext4 superblock sits 1024 bytes in; the magic is a little-endian u16
// at byte 0x38 of the structure.
const (
	ext4Offset      = 1024
	ext4MagicOffset = ext4Offset + 0x38
	ext4Magic       = 0xEF53
)

// ext4Super covers the superblock through the volume name. The remaining
// fields are irrelevant for identification.
type ext4Super struct {
	InodesCount         uint32
	BlocksCountLo       uint32
	RBlocksCountLo      uint32
	FreeBlocksCountLo   uint32
	FreeInodesCount     uint32
	FirstDataBlock      uint32
	LogBlockSize        uint32
	LogClusterSize      uint32
	BlocksPerGroup      uint32
	ClustersPerGroup    uint32
	InodesPerGroup      uint32
	Mtime               uint32
	Wtime               uint32
	MntCount            uint16
	MaxMntCount         uint16
	Magic               uint16
	State               uint16
	Errors              uint16
	MinorRevLevel       uint16
	LastCheck           uint32
	CheckInterval       uint32
	CreatorOS           uint32
	RevLevel            uint32
	DefResuid           uint16
	DefResgid           uint16
	FirstIno            uint32
	InodeSize           uint16
	BlockGroupNr        uint16
	FeatureCompat       uint32
	FeatureIncompat     uint32
	FeatureROCompat     uint32
	FSID                [16]byte
	VolumeName          [16]byte
	LastMounted         [64]byte
	AlgorithmUsageBmp   uint32
	PreallocBlocks      uint8
	PreallocDirBlocks   uint8
	ReservedGdtBlocks   uint16
	JournalUUID         [16]byte
}

var ext4Probe = probe{
	kind:        Ext4,
	magicOffset: ext4MagicOffset,
	magicLen:    2,
	match: func(magic []byte) bool {
		return binary.LittleEndian.Uint16(magic) == ext4Magic
	},
	decode: func(prefix []byte) (Superblock, error) {
		var sb ext4Super
		if err := decodeAt(prefix, ext4Offset, binary.LittleEndian, &sb); err != nil {
			return nil, err
		}
		return &sb, nil
	},
}

func (s *ext4Super) Kind() Kind { return Ext4 }

func (s *ext4Super) UUID() (string, error) {
	return formatUUID(s.FSID), nil
}

func (s *ext4Super) Label() (string, error) {
	return trimNul(s.VolumeName[:]), nil
}
