// Package strategy turns high-level partition requirements into planner
// operations. Rather than planning individual changes, consumers pick an
// allocation mode, list their partition requests in order, and apply the
// strategy to a planner; on any failure the planner is rewound to where it
// started.
package strategy

import (
	"fmt"
	"strings"

	"github.com/open-edge-platform/disk-provisioner/internal/disk"
	"github.com/open-edge-platform/disk-provisioner/internal/partition"
	"github.com/open-edge-platform/disk-provisioner/internal/partition/planner"
)

// AllocationMode selects where a strategy's partitions go.
type AllocationMode int

const (
	// InitializeWholeDisk wipes the table and lays out the entire disk.
	InitializeWholeDisk AllocationMode = iota
	// LargestFree targets the largest free region on the existing table.
	LargestFree
	// FirstFit targets the first free region in start order.
	FirstFit
	// SpecificRegion targets a caller-supplied, caller-aligned region.
	SpecificRegion
)

// SizeKind discriminates a request's size requirement.
type SizeKind int

const (
	// Exact asks for precisely Min bytes.
	Exact SizeKind = iota
	// AtLeast asks for Min bytes, taking more if available.
	AtLeast
	// Range asks for between Min and Max bytes.
	Range
	// Remaining takes whatever is left in the target region.
	Remaining
)

// SizeRequirement bounds how large a requested partition may be.
type SizeRequirement struct {
	Kind SizeKind
	Min  uint64
	Max  uint64
}

// ExactSize requires precisely n bytes.
func ExactSize(n uint64) SizeRequirement {
	return SizeRequirement{Kind: Exact, Min: n}
}

// AtLeastSize requires min bytes and grows with available space.
func AtLeastSize(min uint64) SizeRequirement {
	return SizeRequirement{Kind: AtLeast, Min: min}
}

// RangeSize requires between min and max bytes.
func RangeSize(min, max uint64) SizeRequirement {
	return SizeRequirement{Kind: Range, Min: min, Max: max}
}

// RemainingSize takes all space left in the target region.
func RemainingSize() SizeRequirement {
	return SizeRequirement{Kind: Remaining}
}

func (s SizeRequirement) describe() string {
	switch s.Kind {
	case Exact:
		return fmt.Sprintf("exactly %s", disk.FormatSize(s.Min))
	case AtLeast:
		return fmt.Sprintf("at least %s", disk.FormatSize(s.Min))
	case Range:
		return fmt.Sprintf("between %s and %s", disk.FormatSize(s.Min), disk.FormatSize(s.Max))
	default:
		return "remaining space"
	}
}

// PartitionRequest is one partition for the strategy to plan.
type PartitionRequest struct {
	Size       SizeRequirement
	Attributes *partition.PartitionAttributes
}

// Strategy plans partition layouts according to an allocation mode and an
// ordered request list. Strategies hold no planner; they are applied to
// one.
type Strategy struct {
	mode     AllocationMode
	region   partition.Region
	requests []PartitionRequest
}

// New creates a strategy with the given allocation mode.
func New(mode AllocationMode) *Strategy {
	return &Strategy{mode: mode}
}

// NewForRegion creates a SpecificRegion strategy targeting r. The region is
// taken as provided; the caller aligns it.
func NewForRegion(r partition.Region) *Strategy {
	return &Strategy{mode: SpecificRegion, region: r}
}

// AddRequest appends a partition request. Order matters: fixed and flexible
// requests are placed in input order.
func (s *Strategy) AddRequest(req PartitionRequest) {
	s.requests = append(s.requests, req)
}

// Requests returns the request list in order.
func (s *Strategy) Requests() []PartitionRequest {
	out := make([]PartitionRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// findFreeRegions computes the gaps in the planner's current layout plus
// the tail after the last partition, in start order.
func (s *Strategy) findFreeRegions(p *planner.Planner) []partition.Region {
	var regions []partition.Region
	current, diskEnd := p.Offsets()

	for _, region := range p.CurrentLayout() {
		if region.Start > current {
			regions = append(regions, partition.NewRegion(current, region.Start))
		}
		if region.End > current {
			current = region.End
		}
	}
	if current < diskEnd {
		regions = append(regions, partition.NewRegion(current, diskEnd))
	}
	return regions
}

// Describe renders a stable human-readable description: the allocation mode
// on the first line, one indented line per request.
func (s *Strategy) Describe() string {
	var b strings.Builder
	switch s.mode {
	case InitializeWholeDisk:
		b.WriteString("Initialize new partition layout on entire disk")
	case LargestFree:
		b.WriteString("Use largest free region")
	case FirstFit:
		b.WriteString("Use first available region")
	case SpecificRegion:
		fmt.Fprintf(&b, "Use specific region: %s", s.region)
	}

	if len(s.requests) > 0 {
		b.WriteString("\nRequested partitions:\n")
		for i, req := range s.requests {
			fmt.Fprintf(&b, "  %d: %s\n", i+1, req.Size.describe())
		}
	}
	return b.String()
}

// Apply plans the requested partitions on p. Either every request is
// planned or p is rewound to the state it held when Apply began, so
// strategies compose on one planner without leaking partial state.
func (s *Strategy) Apply(p *planner.Planner) error {
	baseline := len(p.Changes())
	rewind := func() {
		for len(p.Changes()) > baseline {
			p.Undo()
		}
	}

	target, err := s.target(p)
	if err != nil {
		return err
	}

	current := target.Start
	remaining := target.Size()

	type flexible struct {
		index int
		min   uint64
		max   uint64 // 0 means uncapped
	}

	var (
		flexibles   []flexible
		totalFixed  uint64
		minFlexible uint64
	)

	// First pass: classify requests and total up the space they need.
	for i, req := range s.requests {
		switch req.Size.Kind {
		case Exact:
			totalFixed += req.Size.Min
		case AtLeast:
			minFlexible += req.Size.Min
			flexibles = append(flexibles, flexible{index: i, min: req.Size.Min})
		case Range:
			minFlexible += req.Size.Min
			flexibles = append(flexibles, flexible{index: i, min: req.Size.Min, max: req.Size.Max})
		case Remaining:
			flexibles = append(flexibles, flexible{index: i})
		}
	}

	if totalFixed+minFlexible > remaining {
		rewind()
		return &planner.RegionOutOfBoundsError{Start: current, End: current + totalFixed + minFlexible}
	}

	// Second pass: place the exact-size requests in input order.
	for _, req := range s.requests {
		if req.Size.Kind != Exact {
			continue
		}
		size := req.Size.Min
		if _, err := p.PlanAddPartitionWithAttributes(current, current+size, req.Attributes); err != nil {
			rewind()
			return err
		}
		current += size
		remaining -= size
	}

	// Third pass: distribute what is left over the flexible requests. Each
	// takes its minimum plus a fair share; the last takes everything.
	remainingFlexible := len(flexibles)
	for _, flex := range flexibles {
		remainingFlexible--

		if flex.min > remaining {
			rewind()
			return &planner.RegionOutOfBoundsError{Start: current, End: current + flex.min}
		}

		var size uint64
		if remainingFlexible == 0 {
			size = remaining
		} else {
			size = flex.min + remaining/uint64(remainingFlexible+1)
		}
		if flex.max > 0 && size > flex.max {
			size = flex.max
		}
		if size < flex.min {
			size = flex.min
		}

		attrs := s.requests[flex.index].Attributes
		if _, err := p.PlanAddPartitionWithAttributes(current, current+size, attrs); err != nil {
			rewind()
			return err
		}
		current += size
		remaining -= size
	}

	return nil
}

// target resolves the allocation mode to a concrete region.
func (s *Strategy) target(p *planner.Planner) (partition.Region, error) {
	switch s.mode {
	case InitializeWholeDisk:
		if err := p.PlanInitializeDisk(); err != nil {
			return partition.Region{}, err
		}
		first, last := p.Offsets()
		return partition.NewRegion(first, last), nil

	case LargestFree:
		free := s.findFreeRegions(p)
		if len(free) == 0 {
			return partition.Region{}, planner.ErrNoFreeRegions
		}
		largest := free[0]
		for _, region := range free[1:] {
			if region.Size() > largest.Size() {
				largest = region
			}
		}
		return largest, nil

	case FirstFit:
		free := s.findFreeRegions(p)
		if len(free) == 0 {
			return partition.Region{}, planner.ErrNoFreeRegions
		}
		return free[0], nil

	default:
		return s.region, nil
	}
}
