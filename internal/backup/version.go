package backup

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Version is an iOS version as recorded in a backup's Info.plist
type Version struct {
	Major  int
	Minor  int
	Bugfix int
}

// MinimumSupportedVersion is the oldest iOS version whose backup layout is supported
var MinimumSupportedVersion = Version{Major: 11}

// ParseVersion parses "X", "X.Y" or "X.Y.Z". Missing components are 0 and
// anything past the third component is ignored.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, fmt.Errorf("empty version string")
	}

	parts := strings.Split(s, ".")
	var nums [3]int
	for i := 0; i < len(parts) && i < len(nums); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a number", s, parts[i])
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Bugfix: nums[2]}, nil
}

// Compare returns -1, 0 or +1 ordering v against other by major, minor, then bugfix
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Bugfix, other.Bugfix)
}

// LessOrEqual reports whether v <= other
func (v Version) LessOrEqual(other Version) bool {
	return v.Compare(other) <= 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Bugfix)
}
