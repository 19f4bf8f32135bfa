package provision

import (
	"github.com/open-edge-platform/disk-provisioner/internal/disk"
	"github.com/open-edge-platform/disk-provisioner/internal/partition"
	"github.com/open-edge-platform/disk-provisioner/internal/partition/planner"
	"github.com/open-edge-platform/disk-provisioner/internal/partition/strategy"
	"github.com/open-edge-platform/disk-provisioner/internal/utils/logger"
)

var log = logger.Logger()

// DevicePlan is one disk's share of a plan: the device, its populated
// planner and the strategy that populated it.
type DevicePlan struct {
	Device   *disk.BlockDevice
	Planner  *planner.Planner
	Strategy *strategy.Strategy
}

// Plan is one candidate provisioning outcome: every disk the strategy
// needs, bound and planned, plus side tables for formatting and mounting.
type Plan struct {
	Strategy *StrategyDefinition

	// DeviceAssignments maps the strategy's disk ids to their plans.
	DeviceAssignments map[string]*DevicePlan

	// Filesystems maps partition device paths to the filesystems they get.
	Filesystems map[string]partition.Filesystem

	// RoleMounts maps partition roles to the device paths that fill them.
	RoleMounts map[partition.PartitionRole]string
}

// Provisioner matches strategy definitions to discovered devices.
// It owns the planners it creates; strategies never hold one.
type Provisioner struct {
	strategies []*StrategyDefinition
	devices    []*disk.BlockDevice
}

// NewProvisioner creates an empty provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// AddStrategy registers a strategy definition.
func (p *Provisioner) AddStrategy(def *StrategyDefinition) {
	p.strategies = append(p.strategies, def)
}

// PushDevice registers a discovered block device.
func (p *Provisioner) PushDevice(dev *disk.BlockDevice) {
	p.devices = append(p.devices, dev)
}

// matches reports whether a device satisfies a selector's predicates.
func (s *DiskSelector) matches(dev *disk.BlockDevice) bool {
	if s.Name != "" && s.Name != dev.Name {
		return false
	}
	if s.MinSize > 0 && dev.Size() < uint64(s.MinSize) {
		return false
	}
	if s.MaxSize > 0 && dev.Size() > uint64(s.MaxSize) {
		return false
	}
	return true
}

// Plan produces zero or more candidate plans, one per strategy whose disk
// selectors can all be bound and whose allocations all succeed. The caller
// picks one; the first is conventionally authoritative.
func (p *Provisioner) Plan() []*Plan {
	var plans []*Plan

	for _, def := range p.strategies {
		plan, ok := p.planStrategy(def)
		if !ok {
			continue
		}
		plans = append(plans, plan)
	}
	return plans
}

func (p *Provisioner) planStrategy(def *StrategyDefinition) (*Plan, bool) {
	// Bind each disk selector to the first unused matching device.
	assignments := map[string]*disk.BlockDevice{}
	used := map[string]bool{}
	for i := range def.Disks {
		sel := &def.Disks[i]
		var bound *disk.BlockDevice
		for _, dev := range p.devices {
			if used[dev.Device] || !sel.matches(dev) {
				continue
			}
			bound = dev
			break
		}
		if bound == nil {
			log.Debugf("strategy %s: no device matches disk %q", def.Name, sel.ID)
			return nil, false
		}
		assignments[sel.ID] = bound
		used[bound.Device] = true
	}

	plan := &Plan{
		Strategy:          def,
		DeviceAssignments: map[string]*DevicePlan{},
		Filesystems:       map[string]partition.Filesystem{},
		RoleMounts:        map[partition.PartitionRole]string{},
	}

	for diskID, dev := range assignments {
		st, err := def.strategyFor(diskID)
		if err != nil {
			log.Warnf("strategy %s: %v", def.Name, err)
			return nil, false
		}

		pl := planner.NewPlanner(dev)
		if err := st.Apply(pl); err != nil {
			log.Debugf("strategy %s does not fit %s: %v", def.Name, dev.Device, err)
			return nil, false
		}

		plan.DeviceAssignments[diskID] = &DevicePlan{Device: dev, Planner: pl, Strategy: st}
		plan.collectSideTables(dev, pl)
	}
	return plan, true
}

// strategyFor builds the allocation strategy covering one of the
// definition's disks. A partition-table command for the disk implies
// initializing it whole; otherwise allocations target the largest free
// region of the existing table.
func (def *StrategyDefinition) strategyFor(diskID string) (*strategy.Strategy, error) {
	mode := strategy.LargestFree
	if def.PartitionTable != nil && def.PartitionTable.Disk == diskID {
		mode = strategy.InitializeWholeDisk
	}

	st := strategy.New(mode)
	for i := range def.Partitions {
		cmd := &def.Partitions[i]
		if cmd.Disk != diskID {
			continue
		}
		attrs, err := cmd.Attributes()
		if err != nil {
			return nil, err
		}
		st.AddRequest(strategy.PartitionRequest{
			Size:       cmd.Constraints.SizeRequirement(),
			Attributes: attrs,
		})
	}
	return st, nil
}

// collectSideTables derives the filesystem and role-mount maps from the
// planner's journal.
func (plan *Plan) collectSideTables(dev *disk.BlockDevice, pl *planner.Planner) {
	for _, change := range pl.Changes() {
		add, ok := change.(planner.AddPartition)
		if !ok || add.Attributes == nil {
			continue
		}
		path := dev.PartitionPath(add.PartitionID)
		if add.Attributes.Filesystem != nil {
			plan.Filesystems[path] = add.Attributes.Filesystem
		}
		if add.Attributes.Role != partition.RoleNone {
			plan.RoleMounts[add.Attributes.Role] = path
		}
	}
}
