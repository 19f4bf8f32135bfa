// Package formatter builds and runs the mkfs invocations for planned
// filesystems. Each filesystem maps to one external tool; the only
// per-tool variance is which flags carry the UUID, label and force
// options.
package formatter

import (
	"fmt"
	"strconv"

	"github.com/open-edge-platform/disk-provisioner/internal/partition"
	"github.com/open-edge-platform/disk-provisioner/internal/utils/logger"
	"github.com/open-edge-platform/disk-provisioner/internal/utils/shell"
)

var log = logger.Logger()

// MkfsCommand returns the formatting tool for a filesystem spec.
func MkfsCommand(fs partition.Filesystem) string {
	switch f := fs.(type) {
	case partition.Fat32:
		return "mkfs.fat"
	case partition.Standard:
		switch f.Type {
		case partition.F2fs:
			return "mkfs.f2fs"
		case partition.Xfs:
			return "mkfs.xfs"
		case partition.Swap:
			return "mkswap"
		default:
			return "mkfs.ext4"
		}
	default:
		return ""
	}
}

// UUIDArgs returns the flags that set the filesystem identity. The flag
// differs per tool: mkfs.fat takes a volume id via -i, mkfs.xfs takes -m
// uuid=, the rest take -U.
func UUIDArgs(fs partition.Filesystem) []string {
	switch f := fs.(type) {
	case partition.Fat32:
		if f.VolumeID == nil {
			return nil
		}
		return []string{"-i", strconv.FormatUint(uint64(*f.VolumeID), 10)}
	case partition.Standard:
		if f.UUID == "" {
			return nil
		}
		if f.Type == partition.Xfs {
			return []string{"-m", fmt.Sprintf("uuid=%s", f.UUID)}
		}
		return []string{"-U", f.UUID}
	default:
		return nil
	}
}

// LabelArgs returns the flags that set the volume label.
func LabelArgs(fs partition.Filesystem) []string {
	switch f := fs.(type) {
	case partition.Fat32:
		if f.Label == "" {
			return nil
		}
		return []string{"-n", f.Label}
	case partition.Standard:
		if f.Label == "" {
			return nil
		}
		if f.Type == partition.F2fs {
			return []string{"-l", f.Label}
		}
		return []string{"-L", f.Label}
	default:
		return nil
	}
}

// ForceArgs returns the flags that let the tool clobber existing
// signatures. mkfs.fat has no such flag.
func ForceArgs(fs partition.Filesystem) []string {
	switch f := fs.(type) {
	case partition.Standard:
		if f.Type == partition.Ext4 {
			return []string{"-F"}
		}
		return []string{"-f"}
	default:
		return nil
	}
}

// Formatter formats one device with one filesystem.
type Formatter struct {
	Filesystem partition.Filesystem
	Force      bool

	exec shell.Executor
}

// New creates a formatter for the given filesystem using the default
// executor.
func New(fs partition.Filesystem) *Formatter {
	return &Formatter{Filesystem: fs, exec: shell.Default}
}

// WithForce makes the format clobber existing signatures.
func (f *Formatter) WithForce() *Formatter {
	f.Force = true
	return f
}

// WithExecutor substitutes the command executor; tests intercept here.
func (f *Formatter) WithExecutor(exec shell.Executor) *Formatter {
	f.exec = exec
	return f
}

// Args returns the full argv, tool first, for formatting the given device.
func (f *Formatter) Args(device string) []string {
	args := []string{MkfsCommand(f.Filesystem)}
	args = append(args, UUIDArgs(f.Filesystem)...)
	args = append(args, LabelArgs(f.Filesystem)...)
	if f.Force {
		args = append(args, ForceArgs(f.Filesystem)...)
	}
	return append(args, device)
}

// Format runs the formatting tool against the device. Tool output is
// captured; a non-zero exit surfaces as an error carrying it.
func (f *Formatter) Format(device string) error {
	argv := f.Args(device)
	log.Infof("Formatting %s as %s", device, f.Filesystem)
	out, err := f.exec.Run(argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("format %s: %w", device, err)
	}
	log.Debugf("%s output: %s", argv[0], out)
	return nil
}
