package partition

import (
	"fmt"

	"github.com/diskfs/go-diskfs/partition/gpt"
)

// LinuxExtendedBoot is the freedesktop XBOOTLDR partition type, which
// go-diskfs does not name.
const LinuxExtendedBoot = gpt.Type("BC13C2FF-59E6-4262-A352-B275FD6F7172")

// TableType enumerates partition table flavors. Only GPT is implemented;
// the MBR slot is reserved.
type TableType int

const (
	TableGPT TableType = iota
	TableMBR
)

// GptAttributes decorate a planned GPT partition entry.
type GptAttributes struct {
	// TypeGUID identifies the partition type; Microsoft basic data when
	// unset.
	TypeGUID gpt.Type
	// Name is the human-readable GPT partition name.
	Name string
	// UUID is the per-partition GUID, empty to let the table assign one.
	UUID string
}

// TableAttributes is the per-table-flavor arm of partition attributes.
type TableAttributes struct {
	Type TableType
	Gpt  GptAttributes
}

// AsGpt returns the GPT attributes when this is a GPT entry.
func (t TableAttributes) AsGpt() (GptAttributes, bool) {
	if t.Type != TableGPT {
		return GptAttributes{}, false
	}
	return t.Gpt, true
}

// PartitionAttributes is everything a planned partition carries beyond its
// region: table entry decoration, semantic role and target filesystem.
type PartitionAttributes struct {
	Table      TableAttributes
	Role       PartitionRole
	Filesystem Filesystem
}

// PartitionTypeGuid is the configuration vocabulary for well-known GPT
// partition types.
type PartitionTypeGuid int

const (
	EfiSystemPartition PartitionTypeGuid = iota
	ExtendedBootLoader
	LinuxSwapPartition
	LinuxFilesystemPartition
)

func (p PartitionTypeGuid) String() string {
	switch p {
	case EfiSystemPartition:
		return "EFI System Partition"
	case ExtendedBootLoader:
		return "Linux Extended Boot"
	case LinuxSwapPartition:
		return "Linux Swap"
	case LinuxFilesystemPartition:
		return "Linux Filesystem"
	default:
		return "unknown"
	}
}

// AsGuid returns the go-diskfs GPT type for this partition type.
func (p PartitionTypeGuid) AsGuid() gpt.Type {
	switch p {
	case EfiSystemPartition:
		return gpt.EFISystemPartition
	case ExtendedBootLoader:
		return LinuxExtendedBoot
	case LinuxSwapPartition:
		return gpt.LinuxSwap
	default:
		return gpt.LinuxFilesystem
	}
}

// ParsePartitionTypeGuid maps the configuration vocabulary onto a type
// GUID.
func ParsePartitionTypeGuid(s string) (PartitionTypeGuid, error) {
	switch s {
	case "efi-system-partition":
		return EfiSystemPartition, nil
	case "linux-extended-boot":
		return ExtendedBootLoader, nil
	case "linux-swap":
		return LinuxSwapPartition, nil
	case "linux-fs":
		return LinuxFilesystemPartition, nil
	default:
		return 0, fmt.Errorf("unknown partition type %q", s)
	}
}
