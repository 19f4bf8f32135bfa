package sparsefile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/open-edge-platform/disk-provisioner/internal/utils/logger"
)

var log = logger.Logger()

// LoopDevice is a kernel loop device claimed through /dev/loop-control.
type LoopDevice struct {
	// Path is the device path, e.g. /dev/loop7.
	Path string

	f *os.File
}

// NewLoopDevice claims the first free loop device.
func NewLoopDevice() (*LoopDevice, error) {
	ctl, err := os.OpenFile("/dev/loop-control", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open loop-control: %w", err)
	}
	defer ctl.Close()

	n, err := unix.IoctlRetInt(int(ctl.Fd()), unix.LOOP_CTL_GET_FREE)
	if err != nil {
		return nil, fmt.Errorf("get free loop device: %w", err)
	}
	return &LoopDevice{Path: fmt.Sprintf("/dev/loop%d", n)}, nil
}

// Attach binds the loop device to a backing file.
func (l *LoopDevice) Attach(backing string) error {
	back, err := os.OpenFile(backing, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", backing, err)
	}
	defer back.Close()

	dev, err := os.OpenFile(l.Path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.Path, err)
	}

	if err := unix.IoctlSetInt(int(dev.Fd()), unix.LOOP_SET_FD, int(back.Fd())); err != nil {
		dev.Close()
		return fmt.Errorf("attach %s to %s: %w", backing, l.Path, err)
	}

	l.f = dev
	log.Debugf("attached %s to %s", backing, l.Path)
	return nil
}

// Detach releases the loop device.
func (l *LoopDevice) Detach() error {
	if l.f == nil {
		return nil
	}
	defer func() {
		l.f.Close()
		l.f = nil
	}()

	if err := unix.IoctlSetInt(int(l.f.Fd()), unix.LOOP_CLR_FD, 0); err != nil {
		return fmt.Errorf("detach %s: %w", l.Path, err)
	}
	return nil
}
