// Package version provides ordered product versions for version-dependent
// widget selection.
//
// Versions follow semantic versioning with an optional leading "v"
// ("2.0.0", "v2.1", "3.0.0-rc.1"). Comparison is delegated to
// golang.org/x/mod/semver. [Lowest] sorts before every parsed version and
// acts as an always-matching floor in threshold tables.
package version

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is an ordered, comparable product version. The zero value is
// invalid; use [Parse] or [Lowest].
type Version struct {
	raw    string
	canon  string
	lowest bool
}

// Lowest is the floor version: it compares below every parsed version.
var Lowest = Version{raw: "lowest", lowest: true}

// Parse parses s as a semantic version. A missing "v" prefix is accepted.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if strings.EqualFold(raw, "lowest") {
		return Lowest, nil
	}
	v := raw
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	return Version{raw: raw, canon: semver.Canonical(v)}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid reports whether v was produced by Parse or is Lowest.
func (v Version) IsValid() bool {
	return v.lowest || v.canon != ""
}

// IsLowest reports whether v is the floor version.
func (v Version) IsLowest() bool {
	return v.lowest
}

// Compare returns -1, 0 or +1 as v is less than, equal to or greater than o.
func (v Version) Compare(o Version) int {
	switch {
	case v.lowest && o.lowest:
		return 0
	case v.lowest:
		return -1
	case o.lowest:
		return 1
	}
	return semver.Compare(v.canon, o.canon)
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// AtLeast reports whether v is greater than or equal to o.
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

// String returns the version as it was written.
func (v Version) String() string {
	return v.raw
}

// Canonical returns the canonical semver form ("v2.0.0"), or "lowest".
func (v Version) Canonical() string {
	if v.lowest {
		return "lowest"
	}
	return v.canon
}

// Sort orders versions ascending in place.
func Sort(vs []Version) {
	slices.SortStableFunc(vs, Version.Compare)
}
