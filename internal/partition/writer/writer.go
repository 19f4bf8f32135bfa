// Package writer applies a planner's journal to a block device: it
// recreates or amends the GPT, keeps the kernel's partition view in step,
// and scrubs stale filesystem signatures from newly planned partitions.
package writer

import (
	"fmt"
	"io"
	"os"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/google/uuid"

	"github.com/open-edge-platform/disk-provisioner/internal/disk"
	"github.com/open-edge-platform/disk-provisioner/internal/partition/planner"
	"github.com/open-edge-platform/disk-provisioner/internal/utils/logger"
)

var log = logger.Logger()

// headScrubSize is how much of the disk head, and of each new partition,
// gets zeroed: enough to cover MBR/GPT/ISO remnants and every superblock
// offset we recognize except btrfs backups.
const headScrubSize = 2 * 1024 * 1024

const zeroBlockSize = 64 * 1024

// DuplicatePartitionIDError means the journal adds a partition id that is
// already live.
type DuplicatePartitionIDError struct {
	ID uint32
}

func (e *DuplicatePartitionIDError) Error() string {
	return fmt.Sprintf("duplicate partition id %d", e.ID)
}

// DeviceSizeChangedError means the device no longer has the size the plan
// was computed against.
type DeviceSizeChangedError struct {
	Planned  uint64
	Observed uint64
}

func (e *DeviceSizeChangedError) Error() string {
	return fmt.Sprintf("device size changed: planned against %d bytes, observed %d", e.Planned, e.Observed)
}

// DiskWriter applies the layout planned for one device.
type DiskWriter struct {
	device  *disk.BlockDevice
	planner *planner.Planner
	kernel  kernelNotifier
}

// New creates a writer binding a device to its planner.
func New(device *disk.BlockDevice, p *planner.Planner) *DiskWriter {
	return &DiskWriter{device: device, planner: p, kernel: blkpgNotifier{}}
}

// Simulate validates the planned changes against the device opened
// read-only and dry-runs the table construction. It does not modify the
// device and may be called repeatedly.
func (w *DiskWriter) Simulate() error {
	f, err := os.OpenFile(w.device.Device, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.validate(f); err != nil {
		return err
	}
	_, err = w.buildTable()
	return err
}

// Write commits the planned changes: forget kernel partitions, rewrite or
// amend the GPT, sync, scrub the heads of new partitions, and republish
// the layout to the kernel. A failure part way through may leave partial
// writes on the device.
func (w *DiskWriter) Write() error {
	f, err := os.OpenFile(w.device.Device, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.validate(f); err != nil {
		return err
	}
	table, err := w.buildTable()
	if err != nil {
		return err
	}

	blockDev := isBlockDevice(f)
	if blockDev {
		if err := w.kernel.Remove(f); err != nil {
			return err
		}
	}

	if w.planner.WipeDisk() {
		// Erase ISO/MBR/GPT/ZFS remnants before laying down the new table.
		if err := zeroRegion(f, 0, headScrubSize); err != nil {
			return err
		}
	}

	if err := w.writeTable(table); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}

	// Newly planned partitions get their heads scrubbed so stale
	// signatures cannot shadow the filesystems made next.
	for _, change := range w.planner.Changes() {
		add, ok := change.(planner.AddPartition)
		if !ok {
			continue
		}
		size := min(add.End-add.Start, headScrubSize)
		if err := zeroRegion(f, add.Start, size); err != nil {
			return err
		}
	}
	if err := f.Sync(); err != nil {
		return err
	}

	if blockDev {
		if err := w.kernel.Publish(f, w.planner.CurrentLayout()); err != nil {
			return err
		}
	} else {
		log.Debugf("%s is not a block device, skipping kernel partition sync", w.device.Device)
	}
	return nil
}

// validate checks the device still matches the plan and that no partition
// id is added twice while live.
func (w *DiskWriter) validate(f *os.File) error {
	observed, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if observed%disk.SectorSize != 0 {
		return fmt.Errorf("device size %d is not a sector multiple", observed)
	}
	if uint64(observed) != w.device.Size() {
		return &DeviceSizeChangedError{Planned: w.device.Size(), Observed: uint64(observed)}
	}

	live := map[uint32]bool{}
	for _, change := range w.planner.Changes() {
		switch c := change.(type) {
		case planner.AddPartition:
			if live[c.PartitionID] {
				return &DuplicatePartitionIDError{ID: c.PartitionID}
			}
			live[c.PartitionID] = true
		case planner.DeletePartition:
			delete(live, c.PartitionID)
		}
	}
	return nil
}

// buildTable replays the journal into a GPT table: the existing entries
// (none, when wiping) with each change applied in order.
func (w *DiskWriter) buildTable() (*gpt.Table, error) {
	entries := map[uint32]*gpt.Partition{}

	if !w.planner.WipeDisk() {
		existing, err := w.readTable()
		if err != nil {
			return nil, err
		}
		for i, p := range existing.Partitions {
			if p.Start == 0 && p.End == 0 {
				continue
			}
			entries[uint32(i+1)] = p
		}
	}

	for _, change := range w.planner.Changes() {
		switch c := change.(type) {
		case planner.AddPartition:
			entry := &gpt.Partition{
				Start: c.Start / disk.SectorSize,
				End:   c.End/disk.SectorSize - 1,
				Size:  c.End - c.Start,
				Type:  gpt.MicrosoftBasicData,
			}
			if c.Attributes != nil {
				if attrs, ok := c.Attributes.Table.AsGpt(); ok {
					if attrs.TypeGUID != "" {
						entry.Type = attrs.TypeGUID
					}
					entry.Name = attrs.Name
					entry.GUID = attrs.UUID
				}
			}
			entries[c.PartitionID] = entry
		case planner.DeletePartition:
			delete(entries, c.PartitionID)
		}
	}

	var maxID uint32
	for id := range entries {
		if id > maxID {
			maxID = id
		}
	}
	parts := make([]*gpt.Partition, maxID)
	for i := range parts {
		parts[i] = &gpt.Partition{Type: gpt.Unused}
	}
	for id, entry := range entries {
		parts[id-1] = entry
	}

	return &gpt.Table{
		LogicalSectorSize:  disk.SectorSize,
		PhysicalSectorSize: disk.SectorSize,
		ProtectiveMBR:      true,
		GUID:               uuid.New().String(),
		Partitions:         parts,
	}, nil
}

// readTable loads the device's current GPT.
func (w *DiskWriter) readTable() (*gpt.Table, error) {
	d, err := diskfs.Open(w.device.Device, diskfs.WithOpenMode(diskfs.ReadOnly), diskfs.WithSectorSize(disk.SectorSize))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", w.device.Device, err)
	}
	defer d.Close()

	table, err := d.GetPartitionTable()
	if err != nil {
		return nil, fmt.Errorf("read partition table on %s: %w", w.device.Device, err)
	}
	gptTable, ok := table.(*gpt.Table)
	if !ok {
		return nil, fmt.Errorf("%s does not carry a GPT", w.device.Device)
	}
	return gptTable, nil
}

// writeTable persists the GPT, along with its protective MBR, through the
// GPT library.
func (w *DiskWriter) writeTable(table *gpt.Table) error {
	d, err := diskfs.Open(w.device.Device, diskfs.WithSectorSize(disk.SectorSize))
	if err != nil {
		return fmt.Errorf("open %s: %w", w.device.Device, err)
	}
	defer d.Close()

	if err := d.Partition(table); err != nil {
		return fmt.Errorf("write partition table on %s: %w", w.device.Device, err)
	}
	return nil
}

// zeroRegion writes zeros over [offset, offset+size) in 64KiB blocks.
func zeroRegion(f *os.File, offset, size uint64) error {
	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		return err
	}
	zeros := make([]byte, zeroBlockSize)
	for size >= zeroBlockSize {
		if _, err := f.Write(zeros); err != nil {
			return err
		}
		size -= zeroBlockSize
	}
	if size > 0 {
		if _, err := f.Write(zeros[:size]); err != nil {
			return err
		}
	}
	return nil
}
