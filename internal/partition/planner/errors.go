package planner

import (
	"errors"
	"fmt"

	"github.com/open-edge-platform/disk-provisioner/internal/disk"
	"github.com/open-edge-platform/disk-provisioner/internal/partition"
)

// ErrNoFreeRegions is returned when a gap-based allocation strategy finds
// no free space to work with.
var ErrNoFreeRegions = errors.New("no free regions available")

// RegionOutOfBoundsError means a requested interval escapes the usable
// range of the disk.
type RegionOutOfBoundsError struct {
	Start uint64
	End   uint64
}

func (e *RegionOutOfBoundsError) Error() string {
	return fmt.Sprintf("region [%d, %d) out of usable bounds", e.Start, e.End)
}

// PartitionOverlapError means a requested interval collides with an
// existing partition.
type PartitionOverlapError struct {
	Start    uint64
	End      uint64
	Existing partition.Region
}

func (e *PartitionOverlapError) Error() string {
	return fmt.Sprintf("region [%d, %d) overlaps partition %d at %s",
		e.Start, e.End, e.Existing.PartitionID, e.Existing)
}

// InvalidSizeError means the interval collapsed to nothing after snapping.
type InvalidSizeError struct {
	Start uint64
	End   uint64
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("invalid partition size: [%s, %s)", disk.FormatSize(e.Start), disk.FormatSize(e.End))
}

// PartitionNotFoundError means the referenced partition id is not in the
// current layout.
type PartitionNotFoundError struct {
	ID uint32
}

func (e *PartitionNotFoundError) Error() string {
	return fmt.Sprintf("partition %d not found", e.ID)
}
