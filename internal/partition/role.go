package partition

import "fmt"

// PartitionRole is the semantic tag for a planned partition, used to derive
// where it gets mounted during installation.
type PartitionRole int

const (
	RoleNone PartitionRole = iota
	RoleEFI
	RoleExtendedBoot
	RoleBoot
	RoleRoot
	RoleSwap
	RoleHome
)

func (r PartitionRole) String() string {
	switch r {
	case RoleEFI:
		return "efi"
	case RoleExtendedBoot:
		return "xbootldr"
	case RoleBoot:
		return "boot"
	case RoleRoot:
		return "root"
	case RoleSwap:
		return "swap"
	case RoleHome:
		return "home"
	default:
		return "none"
	}
}

// MountPath returns where a partition with this role is mounted in the
// installed system. Swap has no mount point.
func (r PartitionRole) MountPath() string {
	switch r {
	case RoleEFI:
		return "/efi"
	case RoleExtendedBoot, RoleBoot:
		return "/boot"
	case RoleRoot:
		return "/"
	case RoleHome:
		return "/home"
	default:
		return ""
	}
}

// ParseRole maps the configuration vocabulary onto a role.
func ParseRole(s string) (PartitionRole, error) {
	switch s {
	case "efi":
		return RoleEFI, nil
	case "xbootldr", "extended-boot":
		return RoleExtendedBoot, nil
	case "boot":
		return RoleBoot, nil
	case "root":
		return RoleRoot, nil
	case "swap":
		return RoleSwap, nil
	case "home":
		return RoleHome, nil
	default:
		return RoleNone, fmt.Errorf("unknown partition role %q", s)
	}
}
