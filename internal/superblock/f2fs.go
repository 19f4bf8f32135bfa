package superblock

import (
	"encoding/binary"
	"unicode/utf16"
)

// The F2FS superblock sits 1024 bytes in and opens with its magic.
const (
	f2fsOffset = 1024
	f2fsMagic  = 0xF2F52010

	f2fsMaxVolumeLen = 512
)

// f2fsSuper covers the superblock through the volume name; layout and
// address fields past it are irrelevant for identification.
type f2fsSuper struct {
	Magic              uint32
	MajorVer           uint16
	MinorVer           uint16
	LogSectorsize      uint32
	LogSectorsPerBlock uint32
	LogBlocksize       uint32
	LogBlocksPerSeg    uint32
	SegsPerSec         uint32
	SecsPerZone        uint32
	ChecksumOffset     uint32
	BlockCount         uint64
	SectionCount       uint32
	SegmentCount       uint32
	SegmentCountCkpt   uint32
	SegmentCountSit    uint32
	SegmentCountNat    uint32
	SegmentCountSsa    uint32
	SegmentCountMain   uint32
	Segment0Blkaddr    uint32
	CpBlkaddr          uint32
	SitBlkaddr         uint32
	NatBlkaddr         uint32
	SsaBlkaddr         uint32
	MainBlkaddr        uint32
	RootIno            uint32
	NodeIno            uint32
	MetaIno            uint32
	FSID               [16]byte
	VolumeName         [f2fsMaxVolumeLen]uint16
}

var f2fsProbe = probe{
	kind:        F2FS,
	magicOffset: f2fsOffset,
	magicLen:    4,
	match: func(magic []byte) bool {
		return binary.LittleEndian.Uint32(magic) == f2fsMagic
	},
	decode: func(prefix []byte) (Superblock, error) {
		var sb f2fsSuper
		if err := decodeAt(prefix, f2fsOffset, binary.LittleEndian, &sb); err != nil {
			return nil, err
		}
		return &sb, nil
	},
}

func (s *f2fsSuper) Kind() Kind { return F2FS }

func (s *f2fsSuper) UUID() (string, error) {
	return formatUUID(s.FSID), nil
}

// Label decodes the fixed UTF-16LE volume name and strips its NUL padding.
func (s *f2fsSuper) Label() (string, error) {
	decoded := utf16.Decode(s.VolumeName[:])
	for i, r := range decoded {
		if r == 0 {
			decoded = decoded[:i]
			break
		}
	}
	return string(decoded), nil
}
