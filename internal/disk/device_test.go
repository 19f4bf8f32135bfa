package disk

import "testing"

func TestPartitionPathNaming(t *testing.T) {
	sda := &BlockDevice{Name: "sda"}
	if got := sda.PartitionPath(2); got != "/dev/sda2" {
		t.Errorf("sda partition path = %q", got)
	}

	nvme := &BlockDevice{Name: "nvme0n1"}
	if got := nvme.PartitionPath(3); got != "/dev/nvme0n1p3" {
		t.Errorf("nvme partition path = %q", got)
	}
}

func TestMockDevice(t *testing.T) {
	const gib = 1024 * 1024 * 1024
	d := NewMockDevice(500 * gib)

	if d.Device != "/dev/mock0" {
		t.Errorf("device path = %q", d.Device)
	}
	if d.Size() != 500*gib {
		t.Errorf("size = %d", d.Size())
	}
	if got := d.PartitionPath(1); got != "/dev/mock0p1" {
		t.Errorf("partition path = %q", got)
	}

	AddMockPartition(d, 0, 100*1024*1024)
	AddMockPartition(d, 100*1024*1024, 200*1024*1024)

	if len(d.Partitions) != 2 {
		t.Fatalf("partitions = %d", len(d.Partitions))
	}
	p := d.Partitions[1]
	if p.Number != 2 || p.Device != "/dev/mock0p2" {
		t.Errorf("partition 2 = %+v", p)
	}
	if p.Start != 100*1024*1024/SectorSize || p.Size != 100*1024*1024/SectorSize {
		t.Errorf("partition 2 geometry = %+v", p)
	}
}
