package hypervisor

import (
	"strconv"
	"strings"
)

// Version is the hypervisor tool version as reported by its version query,
// e.g. "4.3.12r93733".
type Version struct {
	Major int
	Minor int
	Build int
	Raw   string
}

// ParseVersion parses a version string of the form "major.minor.build"
// with an optional revision suffix ("r93733", "_Ubuntu", ...). Missing
// components parse as zero; the raw input is kept verbatim.
func ParseVersion(raw string) Version {
	v := Version{Raw: strings.TrimSpace(raw)}

	s := v.Raw
	// Cut the revision/vendor suffix: everything from the first character
	// that is neither a digit nor a dot.
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			s = s[:i]
			break
		}
	}

	parts := strings.Split(s, ".")
	if len(parts) > 0 {
		v.Major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		v.Minor, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		v.Build, _ = strconv.Atoi(parts[2])
	}
	return v
}

// String returns the dotted form without any revision suffix.
func (v Version) String() string {
	return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Build)
}
