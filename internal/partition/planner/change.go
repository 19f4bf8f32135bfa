package planner

import (
	"fmt"

	"github.com/open-edge-platform/disk-provisioner/internal/disk"
	"github.com/open-edge-platform/disk-provisioner/internal/partition"
)

// Change is one entry in the planner's undo journal.
type Change interface {
	fmt.Stringer
	sealedChange()
}

// AddPartition records a planned partition covering [Start, End).
type AddPartition struct {
	Start       uint64
	End         uint64
	PartitionID uint32
	Attributes  *partition.PartitionAttributes
}

func (AddPartition) sealedChange() {}

func (c AddPartition) String() string {
	return fmt.Sprintf("add partition %d: %s at %s",
		c.PartitionID, disk.FormatSize(c.End-c.Start), disk.FormatSize(c.Start))
}

// DeletePartition records a removed partition with enough state to put it
// back on undo.
type DeletePartition struct {
	PartitionID uint32
	// OriginalIndex is the slot the region held in the layout, so undo
	// restores the original ordering.
	OriginalIndex int
	Region        partition.Region
	Attributes    *partition.PartitionAttributes
}

func (DeletePartition) sealedChange() {}

func (c DeletePartition) String() string {
	return fmt.Sprintf("delete partition %d: %s at %s",
		c.PartitionID, disk.FormatSize(c.Region.Size()), disk.FormatSize(c.Region.Start))
}
