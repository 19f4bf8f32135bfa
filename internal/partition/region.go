// Package partition holds the domain types shared by the planner, the
// strategy allocator, the disk writer and the formatter: byte regions,
// partition attributes, roles, filesystem specs and GPT type GUIDs.
package partition

import (
	"fmt"

	"github.com/open-edge-platform/disk-provisioner/internal/disk"
)

// Region is a half-open byte interval [Start, End) on a disk. Both
// endpoints are sector multiples. PartitionID links the region to a planned
// or existing partition; zero means free space.
type Region struct {
	Start       uint64
	End         uint64
	PartitionID uint32
}

// NewRegion builds a region covering [start, end).
func NewRegion(start, end uint64) Region {
	return Region{Start: start, End: end}
}

// Size returns the region length in bytes.
func (r Region) Size() uint64 {
	return r.End - r.Start
}

// Overlaps reports whether two half-open regions intersect.
func (r Region) Overlaps(other Region) bool {
	return r.Start < other.End && other.Start < r.End
}

// Contains reports whether other lies entirely within r.
func (r Region) Contains(other Region) bool {
	return other.Start >= r.Start && other.End <= r.End
}

func (r Region) String() string {
	return fmt.Sprintf("[%s, %s) %s", disk.FormatSize(r.Start), disk.FormatSize(r.End), disk.FormatSize(r.Size()))
}
