package formatter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/open-edge-platform/disk-provisioner/internal/partition"
)

func volID(v uint32) *uint32 { return &v }

func TestFat32Args(t *testing.T) {
	f := New(partition.Fat32{Label: "BOOT", VolumeID: volID(1234)})
	got := f.Args("/dev/mock0p1")
	want := []string{"mkfs.fat", "-i", "1234", "-n", "BOOT", "/dev/mock0p1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v want %v", got, want)
	}
}

func TestExt4Args(t *testing.T) {
	f := New(partition.Standard{
		Type:  partition.Ext4,
		Label: "root",
		UUID:  "731af94c-9990-4eed-944d-5d230dbe8a0d",
	}).WithForce()

	got := f.Args("/dev/mock0p2")
	want := []string{
		"mkfs.ext4",
		"-U", "731af94c-9990-4eed-944d-5d230dbe8a0d",
		"-L", "root",
		"-F",
		"/dev/mock0p2",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v want %v", got, want)
	}
}

func TestXfsUUIDUsesMetaOption(t *testing.T) {
	f := New(partition.Standard{
		Type: partition.Xfs,
		UUID: "45e8a3bf-8114-400f-95b0-380d0fb7d42d",
	})
	got := f.Args("/dev/sda1")
	want := []string{"mkfs.xfs", "-m", "uuid=45e8a3bf-8114-400f-95b0-380d0fb7d42d", "/dev/sda1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v want %v", got, want)
	}
}

func TestF2fsLabelFlag(t *testing.T) {
	f := New(partition.Standard{Type: partition.F2fs, Label: "data"}).WithForce()
	got := f.Args("/dev/sda2")
	want := []string{"mkfs.f2fs", "-l", "data", "-f", "/dev/sda2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v want %v", got, want)
	}
}

func TestSwapCommand(t *testing.T) {
	f := New(partition.Standard{Type: partition.Swap, Label: "swap"})
	got := f.Args("/dev/sda3")
	want := []string{"mkswap", "-L", "swap", "/dev/sda3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v want %v", got, want)
	}
}

type fakeExecutor struct {
	argv []string
	err  error
}

func (f *fakeExecutor) Run(name string, args ...string) (string, error) {
	f.argv = append([]string{name}, args...)
	return "", f.err
}

func (f *fakeExecutor) RunSilent(name string, args ...string) (string, error) {
	return f.Run(name, args...)
}

func TestFormatRunsThroughExecutor(t *testing.T) {
	exec := &fakeExecutor{}
	f := New(partition.Fat32{Label: "EFI"}).WithForce().WithExecutor(exec)

	if err := f.Format("/dev/mock0p1"); err != nil {
		t.Fatalf("format: %v", err)
	}
	want := []string{"mkfs.fat", "-n", "EFI", "/dev/mock0p1"}
	if !reflect.DeepEqual(exec.argv, want) {
		t.Errorf("argv = %v want %v", exec.argv, want)
	}
}

func TestFormatPropagatesToolFailure(t *testing.T) {
	boom := errors.New("exit status 1")
	exec := &fakeExecutor{err: boom}
	f := New(partition.Standard{Type: partition.Ext4}).WithExecutor(exec)

	if err := f.Format("/dev/mock0p1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
