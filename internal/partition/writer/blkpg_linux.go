package writer

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/open-edge-platform/disk-provisioner/internal/partition"
)

// maxKernelPartitions bounds the partition numbers swept when telling the
// kernel to forget a disk's partitions. GPT defaults to 128 entries.
const maxKernelPartitions = 128

func blkpgIoctl(f *os.File, op int32, start, length uint64, pno int32) error {
	part := unix.BlkpgPartition{
		Start:  int64(start),
		Length: int64(length),
		Pno:    pno,
	}
	arg := unix.BlkpgIoctlArg{
		Op:      op,
		Datalen: int32(unsafe.Sizeof(part)),
		Data:    (*byte)(unsafe.Pointer(&part)),
	}

	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), unix.BLKPG, uintptr(unsafe.Pointer(&arg))); errno != 0 {
		return errno
	}
	return nil
}

// removeKernelPartitions asks the kernel to drop every partition of the
// disk from its view. Entries the kernel never had report ENXIO, which is
// not an error here.
func removeKernelPartitions(f *os.File) error {
	for pno := int32(1); pno <= maxKernelPartitions; pno++ {
		err := blkpgIoctl(f, unix.BLKPG_DEL_PARTITION, 0, 0, pno)
		if err == nil || errors.Is(err, unix.ENXIO) {
			continue
		}
		// Busy partitions (mounted, held open) must fail loudly: writing a
		// new table under them is how disks get corrupted.
		return fmt.Errorf("delete kernel partition %d: %w", pno, err)
	}
	return nil
}

// createKernelPartitions publishes the planned layout to the kernel,
// entry by entry.
func createKernelPartitions(f *os.File, layout []partition.Region) error {
	for _, region := range layout {
		err := blkpgIoctl(f, unix.BLKPG_ADD_PARTITION, region.Start, region.Size(), int32(region.PartitionID))
		if err != nil && !errors.Is(err, unix.EBUSY) {
			return fmt.Errorf("add kernel partition %d: %w", region.PartitionID, err)
		}
	}
	return nil
}

// rescanPartitions asks the kernel to re-read the partition table,
// reconciling its view with the freshly written GPT.
func rescanPartitions(f *os.File) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), unix.BLKRRPART, 0); errno != 0 {
		// EINVAL means some partition is still in use; the per-entry BLKPG
		// adds above already published the layout in that case.
		if errors.Is(syscall.Errno(errno), unix.EINVAL) || errors.Is(syscall.Errno(errno), unix.EBUSY) {
			return nil
		}
		return fmt.Errorf("rescan partitions: %w", syscall.Errno(errno))
	}
	return nil
}

// kernelNotifier abstracts the partition-event ioctls so writer tests can
// run against image files.
type kernelNotifier interface {
	Remove(f *os.File) error
	Publish(f *os.File, layout []partition.Region) error
}

type blkpgNotifier struct{}

func (blkpgNotifier) Remove(f *os.File) error {
	return removeKernelPartitions(f)
}

func (blkpgNotifier) Publish(f *os.File, layout []partition.Region) error {
	if err := createKernelPartitions(f, layout); err != nil {
		return err
	}
	return rescanPartitions(f)
}

// isBlockDevice reports whether f refers to a real block device rather
// than an image file. Kernel notifications only apply to the former.
func isBlockDevice(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	return ok && st.Mode&syscall.S_IFMT == syscall.S_IFBLK
}
