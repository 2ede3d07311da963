package core

import (
	"context"
	"slices"

	"github.com/go-drift/widgetry/pkg/errors"
	"github.com/go-drift/widgetry/pkg/version"
)

// VersionCase pairs a minimum version with the value used from it onwards.
type VersionCase struct {
	Threshold string
	Value     any
}

// Since selects value for product versions at or above threshold.
func Since(threshold string, value any) VersionCase {
	return VersionCase{Threshold: threshold, Value: value}
}

// Floor selects value for every version below the other thresholds.
func Floor(value any) VersionCase {
	return VersionCase{Threshold: version.Lowest.String(), Value: value}
}

type versionEntry struct {
	threshold version.Version
	value     any
}

// VersionPick chooses a value by the current product version: the value
// with the greatest threshold not above the version wins. It can stand for
// a whole child (values are Declarations) or for a single construction
// argument such as a locator.
//
// The version is consulted on every resolution.
type VersionPick struct {
	entries []versionEntry
}

// PickVersion builds a version pick. Thresholds must parse and be distinct.
func PickVersion(cases ...VersionCase) (*VersionPick, error) {
	var errs []error
	p := &VersionPick{}
	for _, c := range cases {
		v, err := version.Parse(c.Threshold)
		if err != nil {
			errs = append(errs, errors.Wrap("core.PickVersion", errors.KindDefinition, "", err))
			continue
		}
		p.entries = append(p.entries, versionEntry{threshold: v, value: c.Value})
	}
	if len(p.entries) == 0 && len(errs) == 0 {
		errs = append(errs, errors.Errorf("core.PickVersion", errors.KindDefinition, "", "no version cases"))
	}
	sortEntries(p.entries)
	for i := 1; i < len(p.entries); i++ {
		if p.entries[i].threshold.Compare(p.entries[i-1].threshold) == 0 {
			errs = append(errs, errors.Errorf("core.PickVersion", errors.KindDefinition, "",
				"threshold %s registered twice", p.entries[i].threshold.Canonical()))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return p, nil
}

// MustPickVersion is like PickVersion but panics on error.
func MustPickVersion(cases ...VersionCase) *VersionPick {
	p, err := PickVersion(cases...)
	if err != nil {
		panic(err)
	}
	return p
}

func sortEntries(es []versionEntry) {
	slices.SortStableFunc(es, func(a, b versionEntry) int { return a.threshold.Compare(b.threshold) })
}

// Kind returns KindVersionPick.
func (p *VersionPick) Kind() Kind { return KindVersionPick }

// Thresholds returns the thresholds in ascending order.
func (p *VersionPick) Thresholds() []version.Version {
	out := make([]version.Version, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.threshold
	}
	return out
}

// Pick returns the threshold and value selected for v.
func (p *VersionPick) Pick(v version.Version) (version.Version, any, bool) {
	for i := len(p.entries) - 1; i >= 0; i-- {
		if v.AtLeast(p.entries[i].threshold) {
			return p.entries[i].threshold, p.entries[i].value, true
		}
	}
	return version.Version{}, nil, false
}

func (p *VersionPick) resolve(ctx context.Context, n Node) (version.Version, any, error) {
	s := n.Session()
	if s == nil {
		return version.Version{}, nil, errors.Errorf("core.VersionPick", errors.KindNoApplicableVersion, PathOf(n),
			"node is not attached to a session")
	}
	cur, err := s.Version(ctx)
	if err != nil {
		return version.Version{}, nil, err
	}
	threshold, value, ok := p.Pick(cur)
	if !ok {
		return version.Version{}, nil, errors.Errorf("core.VersionPick", errors.KindNoApplicableVersion, PathOf(n),
			"version %s is below every threshold", cur)
	}
	return threshold, value, nil
}

// validateAsChild checks that every value can be bound as a child.
func (p *VersionPick) validateAsChild() error {
	for _, e := range p.entries {
		d, ok := e.value.(Declaration)
		if !ok {
			return errors.Errorf("core.VersionPick", errors.KindDefinition, "",
				"value for %s is %T, not a declaration", e.threshold.Canonical(), e.value)
		}
		if err := validateDecl(d); err != nil {
			return err
		}
	}
	return nil
}
