// Package superblock identifies filesystems from their on-disk superblocks.
//
// Each supported format declares where its magic lives, what it looks like,
// and where its superblock structure starts. Identification probes the
// formats in a fixed order against a bounded prefix of the device and
// returns the first match, exposing the filesystem kind, UUID and label.
package superblock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// PrefixSize is how much of a device identification needs: it covers the
// largest superblock offset in the probe table (btrfs at 64KiB) with room
// for the structure behind it.
const PrefixSize = 128 * 1024

var (
	// ErrUnknownSuperblock means no supported filesystem was recognized.
	ErrUnknownSuperblock = errors.New("unknown superblock")
	// ErrInvalidSuperblock means a magic matched but the structure behind
	// it could not be decoded.
	ErrInvalidSuperblock = errors.New("invalid superblock")
	// ErrUnsupportedFeature marks metadata a format stores somewhere we do
	// not parse, e.g. btrfs labels.
	ErrUnsupportedFeature = errors.New("unsupported feature")
)

// Kind enumerates the detectable filesystem types.
type Kind int

const (
	Btrfs Kind = iota
	Ext4
	Luks2
	F2FS
	Xfs
	Fat
)

func (k Kind) String() string {
	switch k {
	case Btrfs:
		return "btrfs"
	case Ext4:
		return "ext4"
	case Luks2:
		return "luks2"
	case F2FS:
		return "f2fs"
	case Xfs:
		return "xfs"
	case Fat:
		return "fat"
	default:
		return "unknown"
	}
}

// Superblock is a successfully identified filesystem header.
type Superblock interface {
	Kind() Kind
	// UUID returns the filesystem identity in its native rendering:
	// hyphenated for 16-byte ids, XXXX-XXXX for FAT volume ids.
	UUID() (string, error)
	// Label returns the volume label, empty if unset.
	Label() (string, error)
}

// A probe knows how to match and decode one format. magicOffset addresses
// the magic within the device; decode sees the whole prefix and is only
// called once the magic matched.
type probe struct {
	kind        Kind
	magicOffset int64
	magicLen    int
	match       func(magic []byte) bool
	decode      func(prefix []byte) (Superblock, error)
}

// Probed in order of likelihood on installer targets.
var probes = []probe{
	ext4Probe,
	btrfsProbe,
	f2fsProbe,
	xfsProbe,
	luks2Probe,
	fatProbe,
}

// FromBytes identifies a filesystem from a raw prefix of a device or image.
// A format whose magic does not match is skipped; a matching magic with an
// undecodable body fails identification outright.
func FromBytes(b []byte) (Superblock, error) {
	for _, p := range probes {
		end := p.magicOffset + int64(p.magicLen)
		if int64(len(b)) < end {
			continue
		}
		if !p.match(b[p.magicOffset:end]) {
			continue
		}
		sb, err := p.decode(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.kind, ErrUnknownSuperblock)
		}
		return sb, nil
	}
	return nil, ErrUnknownSuperblock
}

// FromReader reads the identification prefix from the start of r and
// identifies it. Short devices propagate the read error.
func FromReader(r io.ReadSeeker) (Superblock, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, PrefixSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return FromBytes(buf)
}

// decodeAt reads a fixed-layout structure starting at off. Packed on-disk
// layouts are decoded field-wise by encoding/binary, so alignment of the
// source bytes is irrelevant.
func decodeAt(prefix []byte, off int64, order binary.ByteOrder, v any) error {
	if int64(len(prefix)) < off {
		return ErrInvalidSuperblock
	}
	if err := binary.Read(io.NewSectionReader(bytesReaderAt(prefix), off, int64(len(prefix))-off), order, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	return nil
}

type bytesReaderAt []byte

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// trimNul strips a fixed UTF-8 field down to its NUL terminator.
func trimNul(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// formatUUID renders a 16-byte filesystem id as a hyphenated UUID string.
func formatUUID(id [16]byte) string {
	return uuid.UUID(id).String()
}
