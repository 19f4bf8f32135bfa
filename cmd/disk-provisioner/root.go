package main

import (
	"github.com/spf13/cobra"

	"github.com/open-edge-platform/disk-provisioner/internal/utils/logger"
)

var verbose bool

// newRootCommand assembles the CLI.
func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "disk-provisioner",
		Short: "plan and write partition layouts for OS installation",
		Long: `disk-provisioner turns declarative strategy documents into GPT
partition layouts: it discovers block devices, matches them against
strategies, previews the resulting plans, and can commit a plan to disk
and format the new partitions.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbose(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(createIdentifyCommand())
	rootCmd.AddCommand(createPlanCommand())
	rootCmd.AddCommand(createApplyCommand())
	return rootCmd
}
