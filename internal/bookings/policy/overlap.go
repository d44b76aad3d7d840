// Package policy decides whether a requested stay collides with stays already
// held on a room.
package policy

import (
	"fmt"

	"paradisian/pkg/config"
	"paradisian/pkg/model"
)

// Overlap is a pure predicate over two stays.
type Overlap interface {
	Name() string
	Conflicts(candidate, existing model.StayRange) bool
}

// Conservative rejects a candidate when any of the following holds against an
// existing stay:
//
//	candidate.in == existing.in
//	candidate.out < existing.out
//	existing.in < candidate.in < existing.out
//	candidate.in < existing.in && candidate.out == existing.out
//	candidate.in < existing.in && candidate.out > existing.out
//	candidate.in == existing.out && candidate.out == existing.in
//	candidate.in == existing.out && candidate.out == candidate.in
//
// The second clause also rejects stays that end before an existing stay
// begins, so a room only accepts stays that end on or after the check-out of
// every booking it holds. This is the historical rule of the product.
type Conservative struct{}

func (Conservative) Name() string { return config.OverlapPolicyConservative }

func (Conservative) Conflicts(c, e model.StayRange) bool {
	in, out := c.CheckIn, c.CheckOut

	return in.Equal(e.CheckIn) ||
		out.Before(e.CheckOut) ||
		(in.After(e.CheckIn) && in.Before(e.CheckOut)) ||
		(in.Before(e.CheckIn) && out.Equal(e.CheckOut)) ||
		(in.Before(e.CheckIn) && out.After(e.CheckOut)) ||
		(in.Equal(e.CheckOut) && out.Equal(e.CheckIn)) ||
		(in.Equal(e.CheckOut) && out.Equal(in))
}

// HalfOpen treats stays as [in, out) intervals. Back-to-back stays, where one
// checks out on the day the next checks in, do not conflict.
type HalfOpen struct{}

func (HalfOpen) Name() string { return config.OverlapPolicyHalfOpen }

func (HalfOpen) Conflicts(c, e model.StayRange) bool {
	return c.CheckIn.Before(e.CheckOut) && e.CheckIn.Before(c.CheckOut)
}

// ForName maps the OVERLAP_POLICY setting to a policy.
func ForName(name string) (Overlap, error) {
	switch name {
	case "", config.OverlapPolicyConservative:
		return Conservative{}, nil
	case config.OverlapPolicyHalfOpen:
		return HalfOpen{}, nil
	default:
		return nil, fmt.Errorf("unknown overlap policy %q", name)
	}
}

// IsAvailable reports whether candidate conflicts with none of existing.
func IsAvailable(p Overlap, candidate model.StayRange, existing []model.StayRange) bool {
	_, found := FirstConflict(p, candidate, existing)
	return !found
}

// FirstConflict returns the first existing stay that conflicts with candidate.
func FirstConflict(p Overlap, candidate model.StayRange, existing []model.StayRange) (model.StayRange, bool) {
	for _, e := range existing {
		if p.Conflicts(candidate, e) {
			return e, true
		}
	}
	return model.StayRange{}, false
}
