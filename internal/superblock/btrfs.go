package superblock

import (
	"bytes"
	"encoding/binary"
)

// The btrfs superblock lives at 64KiB; the magic is the little-endian u64
// "_BHRfS_M" 64 bytes into the structure.
const (
	btrfsOffset      = 0x10000
	btrfsMagicOffset = btrfsOffset + 64
)

var btrfsMagic = []byte("_BHRfS_M")

// btrfsSuper is a partial superblock: enough to verify the magic and pull
// out the filesystem id. The label lives in the device tree, which we do
// not walk.
type btrfsSuper struct {
	Csum       [32]byte
	FSID       [16]byte
	Bytenr     uint64
	Flags      uint64
	Magic      [8]byte
	Generation uint64
	Root       uint64
	ChunkRoot  uint64
	LogRoot    uint64
}

var btrfsProbe = probe{
	kind:        Btrfs,
	magicOffset: btrfsMagicOffset,
	magicLen:    8,
	match: func(magic []byte) bool {
		return bytes.Equal(magic, btrfsMagic)
	},
	decode: func(prefix []byte) (Superblock, error) {
		var sb btrfsSuper
		if err := decodeAt(prefix, btrfsOffset, binary.LittleEndian, &sb); err != nil {
			return nil, err
		}
		return &sb, nil
	},
}

func (s *btrfsSuper) Kind() Kind { return Btrfs }

func (s *btrfsSuper) UUID() (string, error) {
	return formatUUID(s.FSID), nil
}

func (s *btrfsSuper) Label() (string, error) {
	return "", ErrUnsupportedFeature
}
