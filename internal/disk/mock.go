package disk

import "fmt"

// NewMockDevice creates an in-memory block device named mock0 with the given
// size in bytes. It carries the same shape as a discovered disk so planners
// and provisioners can run against it in tests and plan previews.
func NewMockDevice(sizeBytes uint64) *BlockDevice {
	return NewNamedMockDevice("mock0", sizeBytes)
}

// NewNamedMockDevice creates a mock device with an explicit kernel name.
func NewNamedMockDevice(name string, sizeBytes uint64) *BlockDevice {
	return &BlockDevice{
		Name:    name,
		Sectors: sizeBytes / SectorSize,
		Device:  fmt.Sprintf("/dev/%s", name),
		Model:   "Mock Device",
		Vendor:  "Mock Vendor",
	}
}

// AddMockPartition appends a partition covering [startBytes, endBytes) to a
// mock device, numbering it after the existing ones.
func AddMockPartition(d *BlockDevice, startBytes, endBytes uint64) {
	number := uint32(len(d.Partitions) + 1)
	start := startBytes / SectorSize
	end := endBytes / SectorSize

	d.Partitions = append(d.Partitions, Partition{
		Number: number,
		Start:  start,
		End:    end,
		Size:   end - start,
		Name:   fmt.Sprintf("%sp%d", d.Name, number),
		Node:   fmt.Sprintf("/sys/class/block/%s/%sp%d", d.Name, d.Name, number),
		Device: fmt.Sprintf("/dev/%sp%d", d.Name, number),
	})
}
