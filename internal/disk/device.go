package disk

import (
	"fmt"
	"path/filepath"
	"unicode"
)

// Partition is one existing partition on a discovered block device. Offsets
// and sizes are in 512-byte sectors, matching the sysfs view.
type Partition struct {
	// Number is the kernel partition number, 1-based.
	Number uint32
	// Start is the first sector of the partition.
	Start uint64
	// End is the sector one past the last sector of the partition.
	End uint64
	// Size is the partition length in sectors.
	Size uint64
	// Name is the kernel name, e.g. "sda1".
	Name string
	// Node is the sysfs node for the partition.
	Node string
	// Device is the device path, e.g. "/dev/sda1".
	Device string
}

// BlockDevice is a discovered whole disk.
type BlockDevice struct {
	// Name is the kernel name, e.g. "sda".
	Name string
	// Sectors is the device size in 512-byte sectors.
	Sectors uint64
	// Device is the device path, e.g. "/dev/sda".
	Device string
	// Model is the hardware model string, if the device reports one.
	Model string
	// Vendor is the hardware vendor string, if the device reports one.
	Vendor string
	// Partitions lists existing partitions, ordered by start.
	Partitions []Partition
}

// Size returns the device size in bytes.
func (d *BlockDevice) Size() uint64 {
	return d.Sectors * SectorSize
}

// PartitionPath returns the device path for the n-th partition (1-based).
// Disks whose name ends in a digit (nvme0n1, loop0, mock0) take a "p"
// separator before the partition number.
func (d *BlockDevice) PartitionPath(n uint32) string {
	name := d.Name
	if len(name) > 0 && unicode.IsDigit(rune(name[len(name)-1])) {
		return filepath.Join("/dev", fmt.Sprintf("%sp%d", name, n))
	}
	return filepath.Join("/dev", fmt.Sprintf("%s%d", name, n))
}
