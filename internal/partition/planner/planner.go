// Package planner models the intended partition layout of a single disk as
// a transactional, undoable sequence of changes. The planner is
// authoritative on alignment: callers pass byte offsets, the planner snaps
// them, and downstream writers must not re-snap.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/open-edge-platform/disk-provisioner/internal/disk"
	"github.com/open-edge-platform/disk-provisioner/internal/partition"
)

// DefaultAlignment is the partition alignment applied to all planned
// offsets: 1 MiB, 2048 sectors.
const DefaultAlignment = 1024 * 1024

// Planner tracks the difference between a disk's discovered layout and the
// layout we intend to write, as an ordered journal of reversible changes.
// It is bound to one device snapshot and never shared across disks.
type Planner struct {
	device *disk.BlockDevice

	original []partition.Region
	current  []partition.Region
	changes  []Change

	wipeDisk  bool
	nextID    uint32
	diskSize  uint64
	alignment uint64

	firstUsable uint64
	lastUsable  uint64
}

// NewPlanner builds a planner over a snapshot of the given device, seeding
// the layout from its discovered partitions.
func NewPlanner(device *disk.BlockDevice) *Planner {
	p := &Planner{
		device:    device,
		diskSize:  device.Size(),
		alignment: DefaultAlignment,
		nextID:    1,
	}

	p.firstUsable = p.alignment
	p.lastUsable = disk.AlignDown(p.diskSize-p.alignment, p.alignment)

	for _, part := range device.Partitions {
		p.original = append(p.original, partition.Region{
			Start:       part.Start * disk.SectorSize,
			End:         part.End * disk.SectorSize,
			PartitionID: part.Number,
		})
		if part.Number >= p.nextID {
			p.nextID = part.Number + 1
		}
	}
	sortByStart(p.original)

	p.current = append(p.current, p.original...)
	return p
}

// Device returns the device snapshot this planner is bound to.
func (p *Planner) Device() *disk.BlockDevice {
	return p.device
}

// Offsets returns the first and last usable byte offsets. The space outside
// them is reserved for partition table headers.
func (p *Planner) Offsets() (first, last uint64) {
	return p.firstUsable, p.lastUsable
}

// WipeDisk reports whether the partition table is to be recreated from
// scratch.
func (p *Planner) WipeDisk() bool {
	return p.wipeDisk
}

// HasChanges reports whether any planned changes are outstanding.
func (p *Planner) HasChanges() bool {
	return len(p.changes) > 0
}

// Changes returns the journal in application order.
func (p *Planner) Changes() []Change {
	out := make([]Change, len(p.changes))
	copy(out, p.changes)
	return out
}

// CurrentLayout returns the working layout, sorted by start.
func (p *Planner) CurrentLayout() []partition.Region {
	out := make([]partition.Region, len(p.current))
	copy(out, p.current)
	return out
}

// OriginalLayout returns the layout at construction, sorted by start.
func (p *Planner) OriginalLayout() []partition.Region {
	out := make([]partition.Region, len(p.original))
	copy(out, p.original)
	return out
}

// PlanInitializeDisk wipes the layout: every existing partition is
// journaled as deleted, the wipe latch is set, and partition ids restart
// from 1.
func (p *Planner) PlanInitializeDisk() error {
	for len(p.current) > 0 {
		last := len(p.current) - 1
		region := p.current[last]
		p.current = p.current[:last]
		p.changes = append(p.changes, DeletePartition{
			PartitionID:   region.PartitionID,
			OriginalIndex: last,
			Region:        region,
		})
	}
	p.wipeDisk = true
	p.nextID = 1
	return nil
}

// PlanAddPartition plans a partition covering [start, end) after snapping
// both endpoints to the alignment. It returns the assigned partition id.
func (p *Planner) PlanAddPartition(start, end uint64) (uint32, error) {
	return p.PlanAddPartitionWithAttributes(start, end, nil)
}

// PlanAddPartitionWithAttributes is PlanAddPartition carrying table entry
// decoration, role and filesystem for the new partition.
func (p *Planner) PlanAddPartitionWithAttributes(start, end uint64, attrs *partition.PartitionAttributes) (uint32, error) {
	start = disk.AlignUp(start, p.alignment)
	end = disk.AlignDown(end, p.alignment)

	if start >= end {
		return 0, &InvalidSizeError{Start: start, End: end}
	}
	if start < p.firstUsable || end > p.lastUsable {
		return 0, &RegionOutOfBoundsError{Start: start, End: end}
	}

	region := partition.Region{Start: start, End: end}
	for _, existing := range p.current {
		if region.Overlaps(existing) {
			return 0, &PartitionOverlapError{Start: start, End: end, Existing: existing}
		}
	}

	region.PartitionID = p.nextID
	p.nextID++

	p.current = append(p.current, region)
	sortByStart(p.current)

	p.changes = append(p.changes, AddPartition{
		Start:       start,
		End:         end,
		PartitionID: region.PartitionID,
		Attributes:  attrs,
	})
	return region.PartitionID, nil
}

// PlanDeletePartition removes the partition with the given id, journaling
// enough state to restore it on undo.
func (p *Planner) PlanDeletePartition(id uint32) error {
	for i, region := range p.current {
		if region.PartitionID != id {
			continue
		}
		p.current = append(p.current[:i], p.current[i+1:]...)
		p.changes = append(p.changes, DeletePartition{
			PartitionID:   id,
			OriginalIndex: i,
			Region:        region,
			Attributes:    p.attributesFor(id),
		})
		return nil
	}
	return &PartitionNotFoundError{ID: id}
}

// Undo reverses the most recent change. It reports whether a change was
// undone. Undoing the last outstanding change clears the wipe latch.
func (p *Planner) Undo() bool {
	if len(p.changes) == 0 {
		return false
	}

	last := len(p.changes) - 1
	change := p.changes[last]
	p.changes = p.changes[:last]

	switch c := change.(type) {
	case AddPartition:
		for i, region := range p.current {
			if region.PartitionID == c.PartitionID {
				p.current = append(p.current[:i], p.current[i+1:]...)
				break
			}
		}
		// The id itself is not handed back; reuse would confuse the
		// journal replay.
	case DeletePartition:
		p.current = append(p.current, c.Region)
		sortByStart(p.current)
		if c.PartitionID >= p.nextID {
			p.nextID = c.PartitionID + 1
		}
	}

	if len(p.changes) == 0 {
		p.wipeDisk = false
	}
	return true
}

// DescribeChanges renders the journal as a human-readable diff for plan
// previews.
func (p *Planner) DescribeChanges() string {
	if len(p.changes) == 0 {
		return "No changes planned"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Planned changes for %s:\n", p.device.Device)
	if p.wipeDisk {
		b.WriteString("  wipe partition table\n")
	}
	for _, change := range p.changes {
		fmt.Fprintf(&b, "  %s\n", change)
	}

	b.WriteString("Resulting layout:\n")
	for _, region := range p.current {
		fmt.Fprintf(&b, "  partition %d: %s - %s (%s)\n",
			region.PartitionID,
			disk.FormatPosition(region.Start, p.diskSize),
			disk.FormatPosition(region.End, p.diskSize),
			disk.FormatSize(region.Size()))
	}
	return b.String()
}

// attributesFor recovers the attributes a planned partition was added with,
// nil for pre-existing partitions.
func (p *Planner) attributesFor(id uint32) *partition.PartitionAttributes {
	for i := len(p.changes) - 1; i >= 0; i-- {
		if add, ok := p.changes[i].(AddPartition); ok && add.PartitionID == id {
			return add.Attributes
		}
	}
	return nil
}

func sortByStart(regions []partition.Region) {
	sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })
}
