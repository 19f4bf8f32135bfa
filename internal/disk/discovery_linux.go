package disk

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/open-edge-platform/disk-provisioner/internal/utils/logger"
)

var log = logger.Logger()

// sysBlockPath is overridable so discovery can run against a fixture tree.
var sysBlockPath = "/sys/block"

// Discover enumerates whole disks from sysfs, including their existing
// partitions. Device-mapper and ram devices are skipped.
func Discover() ([]*BlockDevice, error) {
	entries, err := os.ReadDir(sysBlockPath)
	if err != nil {
		return nil, err
	}

	var devices []*BlockDevice
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "dm-") || strings.HasPrefix(name, "ram") || strings.HasPrefix(name, "zram") {
			continue
		}

		dev, err := readDevice(name)
		if err != nil {
			log.Debugf("skipping %s: %v", name, err)
			continue
		}
		if dev.Sectors == 0 {
			continue
		}
		devices = append(devices, dev)
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	return devices, nil
}

func readDevice(name string) (*BlockDevice, error) {
	base := filepath.Join(sysBlockPath, name)

	sectors, err := readUint(filepath.Join(base, "size"))
	if err != nil {
		return nil, err
	}

	dev := &BlockDevice{
		Name:    name,
		Sectors: sectors,
		Device:  filepath.Join("/dev", name),
		Model:   readString(filepath.Join(base, "device", "model")),
		Vendor:  readString(filepath.Join(base, "device", "vendor")),
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), name) {
			continue
		}
		part, err := readPartition(base, entry.Name())
		if err != nil {
			continue
		}
		dev.Partitions = append(dev.Partitions, part)
	}

	sort.Slice(dev.Partitions, func(i, j int) bool { return dev.Partitions[i].Start < dev.Partitions[j].Start })
	return dev, nil
}

func readPartition(base, name string) (Partition, error) {
	node := filepath.Join(base, name)

	number, err := readUint(filepath.Join(node, "partition"))
	if err != nil {
		return Partition{}, err
	}
	start, err := readUint(filepath.Join(node, "start"))
	if err != nil {
		return Partition{}, err
	}
	size, err := readUint(filepath.Join(node, "size"))
	if err != nil {
		return Partition{}, err
	}

	return Partition{
		Number: uint32(number),
		Start:  start,
		End:    start + size,
		Size:   size,
		Name:   name,
		Node:   node,
		Device: filepath.Join("/dev", name),
	}, nil
}

func readUint(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}

func readString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
