package provision

import (
	"errors"
	"strings"
	"testing"

	"github.com/open-edge-platform/disk-provisioner/internal/partition"
	"github.com/open-edge-platform/disk-provisioner/internal/partition/strategy"
)

const wholeDiskDoc = `
strategies:
  - name: whole_disk
    summary: Wipe the disk and install with a standard UEFI layout
    disks:
      - id: target
        min-size: 32GiB
    partition-table:
      type: gpt
    partitions:
      - id: efi
        role: efi
        type: efi-system-partition
        constraints: { min: 512MiB, max: 512MiB }
        filesystem: { type: fat32, label: EFI }
      - id: boot
        role: xbootldr
        type: linux-extended-boot
        constraints: { min: 1GiB, max: 1GiB }
        filesystem: { type: ext4, label: Boot }
      - id: swap
        role: swap
        type: linux-swap
        constraints: { min: 4GiB, max: 8GiB }
        filesystem: { type: swap }
      - id: root
        role: root
        type: linux-fs
        constraints: { min: 20GiB }
        filesystem: { type: ext4, label: Root }
`

func TestParseWholeDiskDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(wholeDiskDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Strategies) != 1 {
		t.Fatalf("strategies = %d", len(doc.Strategies))
	}

	def := doc.Strategies[0]
	if def.Name != "whole_disk" {
		t.Errorf("name = %q", def.Name)
	}
	if def.Disks[0].MinSize != 32<<30 {
		t.Errorf("min-size = %d", def.Disks[0].MinSize)
	}
	if def.PartitionTable == nil || def.PartitionTable.Disk != "target" {
		t.Errorf("partition-table = %+v", def.PartitionTable)
	}
	if len(def.Partitions) != 4 {
		t.Fatalf("partitions = %d", len(def.Partitions))
	}

	efi := def.Partitions[0]
	if efi.Disk != "target" {
		t.Errorf("implied disk = %q", efi.Disk)
	}
	if req := efi.Constraints.SizeRequirement(); req.Kind != strategy.Exact || req.Min != 512<<20 {
		t.Errorf("efi requirement = %+v", req)
	}
	if req := def.Partitions[2].Constraints.SizeRequirement(); req.Kind != strategy.Range {
		t.Errorf("swap requirement = %+v", req)
	}
	if req := def.Partitions[3].Constraints.SizeRequirement(); req.Kind != strategy.AtLeast {
		t.Errorf("root requirement = %+v", req)
	}

	attrs, err := efi.Attributes()
	if err != nil {
		t.Fatalf("attributes: %v", err)
	}
	if attrs.Role != partition.RoleEFI {
		t.Errorf("role = %v", attrs.Role)
	}
	if attrs.Table.Gpt.Name != "EFI System Partition" {
		t.Errorf("gpt name = %q", attrs.Table.Gpt.Name)
	}
	if _, ok := attrs.Filesystem.(partition.Fat32); !ok {
		t.Errorf("filesystem = %T", attrs.Filesystem)
	}
}

func TestParseSizeGrammar(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"512B", 512},
		{"4KiB", 4096},
		{"512MiB", 512 << 20},
		{"20GiB", 20 << 30},
		{"1TiB", 1 << 40},
		{"4096", 4096},
	}
	for _, c := range cases {
		got, err := ParseSize(c.in)
		if err != nil {
			t.Errorf("ParseSize(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseSize(%q) = %d want %d", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "GiB", "12MB", "1.5GiB", "x12KiB"} {
		if _, err := ParseSize(bad); err == nil {
			t.Errorf("ParseSize(%q) succeeded", bad)
		}
	}
}

func TestSchemaRejectsMissingConstraints(t *testing.T) {
	doc := `
strategies:
  - name: broken
    disks: [{id: target}]
    partitions:
      - id: root
`
	var parseErr *ParseError
	if _, err := ParseDocument([]byte(doc)); !errors.As(err, &parseErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestSchemaRejectsUnknownNode(t *testing.T) {
	doc := `
strategies:
  - name: broken
    disks: [{id: target}]
    wibble: true
    partitions:
      - id: root
        constraints: { remaining: true }
`
	var parseErr *ParseError
	if _, err := ParseDocument([]byte(doc)); !errors.As(err, &parseErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestBadSizeCarriesPosition(t *testing.T) {
	doc := `
strategies:
  - name: broken
    disks: [{id: target}]
    partitions:
      - id: root
        constraints: { min: 20potatoes }
`
	_, err := ParseDocument([]byte(doc))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid size") {
		t.Errorf("err = %v", err)
	}
}

func TestBadRoleGivesAdvice(t *testing.T) {
	doc := `
strategies:
  - name: broken
    disks: [{id: target}]
    partitions:
      - id: root
        role: kernel
        constraints: { remaining: true }
`
	_, err := ParseDocument([]byte(doc))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "supported") {
		t.Errorf("err = %v", err)
	}
}

func TestDanglingDiskReference(t *testing.T) {
	doc := `
strategies:
  - name: broken
    disks: [{id: target}]
    partitions:
      - id: root
        disk: elsewhere
        constraints: { remaining: true }
`
	var parseErr *ParseError
	if _, err := ParseDocument([]byte(doc)); !errors.As(err, &parseErr) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(parseErr.Msg, "elsewhere") {
		t.Errorf("msg = %q", parseErr.Msg)
	}
}
