// Package sparsefile creates sparse backing files and drives loop devices
// over them, so the full partitioning pipeline can run against a file
// instead of real hardware.
package sparsefile

import (
	"fmt"
	"os"
)

// Create makes a sparse file of the given size, replacing any existing
// file at path.
func Create(path string, size uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return fmt.Errorf("grow %s to %d bytes: %w", path, size, err)
	}
	return nil
}
