package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/open-edge-platform/disk-provisioner/internal/disk"
	"github.com/open-edge-platform/disk-provisioner/internal/partition/formatter"
	"github.com/open-edge-platform/disk-provisioner/internal/partition/writer"
	"github.com/open-edge-platform/disk-provisioner/internal/provision"
	"github.com/open-edge-platform/disk-provisioner/internal/sparsefile"
	"github.com/open-edge-platform/disk-provisioner/internal/utils/logger"
)

var (
	applyDevice    string
	applyImage     string
	applyImageSize string
	applySkipMkfs  bool
)

// createApplyCommand creates the apply subcommand.
func createApplyCommand() *cobra.Command {
	applyCmd := &cobra.Command{
		Use:   "apply CONFIG_FILE",
		Short: "apply a strategy document to a disk",
		Long: `Apply loads a strategy document, plans it against the target
disk, simulates the write, commits the partition table and formats the
new partitions. The target is either a block device (--device) or a
sparse image file (--image), which is created on demand and attached to
a loop device so the partitions get device nodes.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if (applyDevice == "") == (applyImage == "") {
				return fmt.Errorf("exactly one of --device or --image is required")
			}
			return nil
		},
		RunE: executeApply,
	}

	applyCmd.Flags().StringVar(&applyDevice, "device", "",
		"Block device to partition, e.g. /dev/sdb")
	applyCmd.Flags().StringVar(&applyImage, "image", "",
		"Sparse image file to partition instead of a device")
	applyCmd.Flags().StringVar(&applyImageSize, "image-size", "32GiB",
		"Size of the image file created for --image")
	applyCmd.Flags().BoolVar(&applySkipMkfs, "skip-format", false,
		"Write the partition table but do not run mkfs")
	return applyCmd
}

func executeApply(cmd *cobra.Command, args []string) (err error) {
	log := logger.Logger()

	doc, err := provision.LoadDocument(args[0])
	if err != nil {
		return err
	}

	target := applyDevice
	var loop *sparsefile.LoopDevice
	if applyImage != "" {
		size, err := provision.ParseSize(applyImageSize)
		if err != nil {
			return err
		}
		if err := sparsefile.Create(applyImage, size); err != nil {
			return err
		}

		loop, err = sparsefile.NewLoopDevice()
		if err != nil {
			return err
		}
		if err := loop.Attach(applyImage); err != nil {
			return err
		}
		defer func() {
			if detachErr := loop.Detach(); detachErr != nil && err == nil {
				err = detachErr
			}
		}()
		target = loop.Path
	}

	dev, err := lookupDevice(target)
	if err != nil {
		return err
	}

	prov := provision.NewProvisioner()
	for i := range doc.Strategies {
		prov.AddStrategy(&doc.Strategies[i])
	}
	prov.PushDevice(dev)

	plans := prov.Plan()
	if len(plans) == 0 {
		return fmt.Errorf("no strategy in %s fits %s", args[0], target)
	}
	plan := plans[0]
	log.Infof("Applying plan %q to %s", plan.Strategy.Name, target)

	for diskID, dp := range plan.DeviceAssignments {
		log.Infof("Disk %q: %s", diskID, dp.Strategy.Describe())
		log.Infof("%s", dp.Planner.DescribeChanges())

		w := writer.New(dp.Device, dp.Planner)
		if err := w.Simulate(); err != nil {
			return fmt.Errorf("simulate on %s: %w", dp.Device.Device, err)
		}
		log.Infof("Simulation passed for %s", dp.Device.Device)

		if err := w.Write(); err != nil {
			return fmt.Errorf("write to %s: %w", dp.Device.Device, err)
		}
	}

	if applySkipMkfs {
		log.Infof("Skipping filesystem creation as requested")
	} else if err := formatPlanned(plan); err != nil {
		return err
	}

	for role, device := range plan.RoleMounts {
		if mount := role.MountPath(); mount != "" {
			log.Infof("To mount: %s as %s (%s)", device, role, mount)
		}
	}
	return nil
}

// formatPlanned runs mkfs for every filesystem the plan assigns.
func formatPlanned(plan *provision.Plan) error {
	log := logger.Logger()
	if len(plan.Filesystems) == 0 {
		return nil
	}

	bar := progressbar.Default(int64(len(plan.Filesystems)), "formatting")
	for device, fs := range plan.Filesystems {
		if _, err := os.Stat(device); err != nil {
			return fmt.Errorf("partition device %s not present: %w", device, err)
		}
		if err := formatter.New(fs).WithForce().Format(device); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	log.Infof("Formatted %d filesystems", len(plan.Filesystems))
	return nil
}

// lookupDevice resolves a device path to a discovered BlockDevice,
// falling back to a synthetic entry for paths sysfs does not know (image
// files during tests).
func lookupDevice(path string) (*disk.BlockDevice, error) {
	devices, err := disk.Discover()
	if err == nil {
		for _, dev := range devices {
			if dev.Device == path {
				return dev, nil
			}
		}
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, fmt.Errorf("no such device %s", path)
	}
	if info.Size() > 0 {
		return &disk.BlockDevice{
			Name:    filepath.Base(path),
			Sectors: uint64(info.Size()) / disk.SectorSize,
			Device:  path,
		}, nil
	}
	return nil, fmt.Errorf("cannot determine the size of %s", path)
}
