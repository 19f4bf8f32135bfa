// Package provision binds declarative strategy documents to discovered
// block devices and turns them into per-disk partition plans.
//
// A document is YAML holding a list of strategies. Each strategy names the
// disks it needs (as predicates), whether a fresh partition table is
// created, and the ordered partitions to allocate with their size
// constraints, roles and filesystems. Documents are validated against an
// embedded JSON Schema before decoding, so structural mistakes surface as
// diagnostics rather than zero values.
package provision

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/open-edge-platform/disk-provisioner/internal/partition"
	"github.com/open-edge-platform/disk-provisioner/internal/partition/strategy"
)

// ParseError is a diagnostic pointing at a document location.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Msg    string
	Advice string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		fmt.Fprintf(&b, "%s:", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "%d:%d:", e.Line, e.Column)
	}
	fmt.Fprintf(&b, " %s", e.Msg)
	if e.Advice != "" {
		fmt.Fprintf(&b, " (%s)", e.Advice)
	}
	return b.String()
}

func nodeErr(node *yaml.Node, msg, advice string) *ParseError {
	e := &ParseError{Msg: msg, Advice: advice}
	if node != nil {
		e.Line = node.Line
		e.Column = node.Column
	}
	return e
}

// Size is a byte count decoded from a storage-unit string such as "512MiB".
type Size uint64

var sizeUnits = []struct {
	suffix     string
	multiplier uint64
}{
	{"TiB", 1 << 40},
	{"GiB", 1 << 30},
	{"MiB", 1 << 20},
	{"KiB", 1 << 10},
	{"B", 1},
}

// ParseSize decodes a storage size with a B/KiB/MiB/GiB/TiB suffix. A bare
// integer counts bytes.
func ParseSize(s string) (uint64, error) {
	text := strings.TrimSpace(s)
	for _, unit := range sizeUnits {
		if !strings.HasSuffix(text, unit.suffix) {
			continue
		}
		digits := strings.TrimSpace(strings.TrimSuffix(text, unit.suffix))
		value, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size %q", s)
		}
		return value * unit.multiplier, nil
	}
	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: expected a B, KiB, MiB, GiB or TiB suffix", s)
	}
	return value, nil
}

func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	value, err := ParseSize(node.Value)
	if err != nil {
		return nodeErr(node, err.Error(), "sizes look like 512MiB or 20GiB")
	}
	*s = Size(value)
	return nil
}

// Role wraps a partition role with document-aware decoding.
type Role struct {
	partition.PartitionRole
}

func (r *Role) UnmarshalYAML(node *yaml.Node) error {
	role, err := partition.ParseRole(node.Value)
	if err != nil {
		return nodeErr(node, err.Error(), "'efi', 'xbootldr', 'boot', 'root', 'swap' and 'home' are supported")
	}
	r.PartitionRole = role
	return nil
}

// TypeGuid wraps a partition type GUID name with document-aware decoding.
type TypeGuid struct {
	partition.PartitionTypeGuid
}

func (t *TypeGuid) UnmarshalYAML(node *yaml.Node) error {
	guid, err := partition.ParsePartitionTypeGuid(node.Value)
	if err != nil {
		return nodeErr(node, err.Error(),
			"'efi-system-partition', 'linux-extended-boot', 'linux-swap' and 'linux-fs' are supported")
	}
	t.PartitionTypeGuid = guid
	return nil
}

// Constraints bound a partition's size. min alone means at-least, min with
// max means a range, equal min and max mean exact, and remaining (or
// neither bound) takes whatever is left.
type Constraints struct {
	Min       Size `yaml:"min"`
	Max       Size `yaml:"max"`
	Remaining bool `yaml:"remaining"`
}

// SizeRequirement translates the constraints into an allocation request.
func (c Constraints) SizeRequirement() strategy.SizeRequirement {
	switch {
	case c.Remaining || (c.Min == 0 && c.Max == 0):
		return strategy.RemainingSize()
	case c.Max == 0:
		return strategy.AtLeastSize(uint64(c.Min))
	case c.Min == c.Max:
		return strategy.ExactSize(uint64(c.Min))
	default:
		return strategy.RangeSize(uint64(c.Min), uint64(c.Max))
	}
}

// FilesystemSpec is the filesystem child of a partition command.
type FilesystemSpec struct {
	Type     string `yaml:"type"`
	Label    string `yaml:"label"`
	UUID     string `yaml:"uuid"`
	VolumeID *uint32 `yaml:"volume_id"`

	node yaml.Node
}

func (f *FilesystemSpec) UnmarshalYAML(node *yaml.Node) error {
	type plain FilesystemSpec
	if err := node.Decode((*plain)(f)); err != nil {
		return err
	}
	f.node = *node
	return nil
}

// Filesystem resolves the spec into a formatting target.
func (f *FilesystemSpec) Filesystem() (partition.Filesystem, error) {
	fs, err := partition.ParseFilesystem(f.Type)
	if err != nil {
		return nil, nodeErr(&f.node, err.Error(), "'fat32', 'ext4', 'f2fs', 'xfs' and 'swap' are supported")
	}
	switch v := fs.(type) {
	case partition.Fat32:
		v.Label = f.Label
		v.VolumeID = f.VolumeID
		return v, nil
	case partition.Standard:
		v.Label = f.Label
		v.UUID = f.UUID
		return v, nil
	}
	return fs, nil
}

// DiskSelector names a disk the strategy needs and the predicates a
// discovered device must satisfy to fill the slot.
type DiskSelector struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	MinSize Size   `yaml:"min-size"`
	MaxSize Size   `yaml:"max-size"`
}

// PartitionTableSpec asks for a fresh table on one of the selected disks.
type PartitionTableSpec struct {
	Type string `yaml:"type"`
	Disk string `yaml:"disk"`
}

// PartitionCommand is one create-partition entry.
type PartitionCommand struct {
	ID          string          `yaml:"id"`
	Disk        string          `yaml:"disk"`
	Role        *Role           `yaml:"role"`
	Type        *TypeGuid       `yaml:"type"`
	Constraints Constraints     `yaml:"constraints"`
	Filesystem  *FilesystemSpec `yaml:"filesystem"`
}

// Attributes resolves the command's decoration for the planner.
func (c *PartitionCommand) Attributes() (*partition.PartitionAttributes, error) {
	attrs := &partition.PartitionAttributes{
		Table: partition.TableAttributes{Type: partition.TableGPT},
	}
	if c.Type != nil {
		attrs.Table.Gpt.TypeGUID = c.Type.AsGuid()
		attrs.Table.Gpt.Name = c.Type.String()
	}
	if c.Role != nil {
		attrs.Role = c.Role.PartitionRole
	}
	if c.Filesystem != nil {
		fs, err := c.Filesystem.Filesystem()
		if err != nil {
			return nil, err
		}
		attrs.Filesystem = fs
	}
	return attrs, nil
}

// StrategyDefinition is one named strategy in a document.
type StrategyDefinition struct {
	Name           string              `yaml:"name"`
	Summary        string              `yaml:"summary"`
	Disks          []DiskSelector      `yaml:"disks"`
	PartitionTable *PartitionTableSpec `yaml:"partition-table"`
	Partitions     []PartitionCommand  `yaml:"partitions"`
}

// Document is a parsed strategy document.
type Document struct {
	Strategies []StrategyDefinition `yaml:"strategies"`
}

// LoadDocument reads, schema-validates and decodes a strategy document.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) && parseErr.Path == "" {
			parseErr.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// ParseDocument schema-validates and decodes a strategy document.
func ParseDocument(data []byte) (*Document, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := doc.normalize(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// normalize fills implied disk references and rejects dangling ones.
func (d *Document) normalize() error {
	for i := range d.Strategies {
		def := &d.Strategies[i]

		ids := map[string]bool{}
		for _, sel := range def.Disks {
			ids[sel.ID] = true
		}
		defaultDisk := ""
		if len(def.Disks) == 1 {
			defaultDisk = def.Disks[0].ID
		}

		if def.PartitionTable != nil && def.PartitionTable.Disk == "" {
			def.PartitionTable.Disk = defaultDisk
		}
		if def.PartitionTable != nil && !ids[def.PartitionTable.Disk] {
			return &ParseError{
				Msg:    fmt.Sprintf("strategy %q: partition-table references unknown disk %q", def.Name, def.PartitionTable.Disk),
				Advice: "declare the disk under 'disks' or drop the explicit reference",
			}
		}

		for j := range def.Partitions {
			cmd := &def.Partitions[j]
			if cmd.Disk == "" {
				cmd.Disk = defaultDisk
			}
			if !ids[cmd.Disk] {
				return &ParseError{
					Msg:    fmt.Sprintf("strategy %q: partition %q references unknown disk %q", def.Name, cmd.ID, cmd.Disk),
					Advice: "declare the disk under 'disks' or drop the explicit reference",
				}
			}
		}
	}
	return nil
}
