package superblock

import (
	"bytes"
	"encoding/binary"
)

// XFS puts its superblock at byte 0 and opens with "XFSB". All integer
// fields are big-endian.
const xfsOffset = 0

var xfsMagic = []byte("XFSB")

// xfsSuper covers the superblock through the filesystem name.
type xfsSuper struct {
	Magicnum  uint32
	Blocksize uint32
	Dblocks   uint64
	Rblocks   uint64
	Rextents  uint64
	FSID      [16]byte
	Logstart  uint64
	Rootino   uint64
	Rbmino    uint64
	Rsumino   uint64
	Rextsize  uint32
	Agblocks  uint32
	Agcount   uint32
	Rbmblocks uint32
	Logblocks uint32
	Versionnum uint16
	Sectsize  uint16
	Inodesize uint16
	Inopblock uint16
	Fname     [12]byte
}

var xfsProbe = probe{
	kind:        Xfs,
	magicOffset: xfsOffset,
	magicLen:    4,
	match: func(magic []byte) bool {
		return bytes.Equal(magic, xfsMagic)
	},
	decode: func(prefix []byte) (Superblock, error) {
		var sb xfsSuper
		if err := decodeAt(prefix, xfsOffset, binary.BigEndian, &sb); err != nil {
			return nil, err
		}
		return &sb, nil
	},
}

func (s *xfsSuper) Kind() Kind { return Xfs }

func (s *xfsSuper) UUID() (string, error) {
	return formatUUID(s.FSID), nil
}

func (s *xfsSuper) Label() (string, error) {
	return trimNul(s.Fname[:]), nil
}
