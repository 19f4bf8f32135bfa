package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/disk-provisioner/internal/disk"
	"github.com/open-edge-platform/disk-provisioner/internal/provision"
)

var (
	planMockSize string
	planUseMock  bool
)

// createPlanCommand creates the plan subcommand.
func createPlanCommand() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan CONFIG_FILE",
		Short: "preview the partition plans a strategy document produces",
		Long: `Plan loads a strategy document, matches its strategies against
the machine's block devices (or a mock disk), and prints each candidate
plan: the allocation strategy, the planned changes and the resulting
layout. Nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: executePlan,
	}

	planCmd.Flags().BoolVar(&planUseMock, "mock", false,
		"Plan against an in-memory mock disk instead of discovered devices")
	planCmd.Flags().StringVar(&planMockSize, "mock-size", "500GiB",
		"Size of the mock disk (with --mock)")
	return planCmd
}

func executePlan(cmd *cobra.Command, args []string) error {
	doc, err := provision.LoadDocument(args[0])
	if err != nil {
		return err
	}

	prov := provision.NewProvisioner()
	for i := range doc.Strategies {
		prov.AddStrategy(&doc.Strategies[i])
	}

	if planUseMock {
		size, err := provision.ParseSize(planMockSize)
		if err != nil {
			return err
		}
		prov.PushDevice(disk.NewMockDevice(size))
	} else {
		devices, err := disk.Discover()
		if err != nil {
			return fmt.Errorf("discover block devices: %w", err)
		}
		for _, dev := range devices {
			prov.PushDevice(dev)
		}
	}

	plans := prov.Plan()
	if len(plans) == 0 {
		return fmt.Errorf("no strategy matches the available disks")
	}

	out := cmd.OutOrStdout()
	for _, plan := range plans {
		fmt.Fprintf(out, "Plan: %s\n", plan.Strategy.Name)
		if plan.Strategy.Summary != "" {
			fmt.Fprintf(out, "  %s\n", plan.Strategy.Summary)
		}
		for diskID, dp := range plan.DeviceAssignments {
			fmt.Fprintf(out, "\nDisk %q -> %s (%s)\n", diskID, dp.Device.Device, disk.FormatSize(dp.Device.Size()))
			fmt.Fprintln(out, dp.Strategy.Describe())
			fmt.Fprintln(out, dp.Planner.DescribeChanges())
		}
		for role, device := range plan.RoleMounts {
			if mount := role.MountPath(); mount != "" {
				fmt.Fprintf(out, "mount %s at %s\n", device, mount)
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}
