package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/disk-provisioner/internal/superblock"
	"github.com/open-edge-platform/disk-provisioner/internal/utils/imagefile"
	"github.com/open-edge-platform/disk-provisioner/internal/utils/logger"
)

// Compressed images are inflated up to this much; identification only
// needs the head of the image anyway.
const identifyInflateLimit = 16 << 20

var showLuksConfig bool

// createIdentifyCommand creates the identify subcommand.
func createIdentifyCommand() *cobra.Command {
	identifyCmd := &cobra.Command{
		Use:   "identify DEVICE_OR_IMAGE",
		Short: "identify the filesystem on a device or image",
		Long: `Identify reads the superblock of a block device or raw image
file (optionally zstd/xz compressed) and reports the filesystem kind,
UUID and label. For LUKS2 volumes the JSON keyslot metadata can be
printed as well.`,
		Args: cobra.ExactArgs(1),
		RunE: executeIdentify,
	}

	identifyCmd.Flags().BoolVar(&showLuksConfig, "luks-config", false,
		"Print the LUKS2 JSON config when the volume is LUKS2")
	return identifyCmd
}

func executeIdentify(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	path := args[0]

	r, closeFn, err := imagefile.Open(path, identifyInflateLimit)
	if err != nil {
		return err
	}
	defer closeFn()

	sb, err := superblock.FromReader(r)
	if err != nil {
		return fmt.Errorf("identify %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Type:  %s\n", sb.Kind())

	if uuid, err := sb.UUID(); err == nil {
		fmt.Fprintf(out, "UUID:  %s\n", uuid)
	}
	label, err := sb.Label()
	switch {
	case errors.Is(err, superblock.ErrUnsupportedFeature):
		log.Debugf("%s: label extraction unsupported for %s", path, sb.Kind())
	case err != nil:
		return err
	case label != "":
		fmt.Fprintf(out, "Label: %s\n", label)
	}

	if showLuksConfig {
		hdr, ok := sb.(*superblock.Luks2Header)
		if !ok {
			return fmt.Errorf("%s is not a LUKS2 volume", path)
		}
		cfg, err := hdr.ReadConfig(r)
		if err != nil {
			return fmt.Errorf("read LUKS2 config: %w", err)
		}
		pretty, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", pretty)
	}
	return nil
}
