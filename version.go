package smrproxy

import "fmt"

// Version identifies this build of the module. It follows semver and is
// bumped on any change to the public API or wire-visible behavior (the
// retire queue's slot layout, the epoch encoding).
const (
	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)

// Info describes the running build, mirroring what callers typically
// log at startup next to their own service version.
type Info struct {
	Major int
	Minor int
	Patch int
}

// String renders Info as "major.minor.patch".
func (i Info) String() string {
	return fmt.Sprintf("%d.%d.%d", i.Major, i.Minor, i.Patch)
}

// BuildInfo returns the module's version triple.
func BuildInfo() Info {
	return Info{Major: VersionMajor, Minor: VersionMinor, Patch: VersionPatch}
}
