// Package planning implements the gesture/plan/proposal layer described
// in spec.md §4.11: plans as first-class values, proposals as undoable
// stacks of plans, prototype compilation, and construction diffing.
package planning

import "github.com/citybound/citybound/geo"

// GestureID names one gesture within a project. Gestures are authored
// externally (the planning UI); this package only ever receives
// already-identified ones, so a GestureID is an opaque string rather
// than an actor address.
type GestureID string

// ProjectID scopes a set of gestures to one editing session.
type ProjectID string

// Intent names what a gesture is meant to become once built. set_intent
// changes this without touching a gesture's points (spec.md §6, §4.11
// supplemented features).
type Intent uint8

const (
	IntentUnspecified Intent = iota
	IntentRoad
	IntentHighway
	IntentZone
)

// Gesture is one drawn stroke plus its authoring intent (spec.md §3).
type Gesture struct {
	Points  []geo.Point
	Intent  Intent
	Deleted bool
}

// Plan is a set of gestures keyed by GestureID (spec.md §3, §4.11).
type Plan map[GestureID]Gesture

// Merge combines a and b with last-write-wins per key: entries in b
// take precedence over entries in a. Merge is associative over
// distinct gesture ids and idempotent (spec.md §8 "Idempotent merge":
// merge(plan, Ø) == plan; merge(plan, plan) == plan).
func Merge(plans ...Plan) Plan {
	out := make(Plan)
	for _, p := range plans {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}

// Clone returns a shallow copy of p, safe to mutate independently.
func (p Plan) Clone() Plan {
	out := make(Plan, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Equal reports whether p and o contain the same gestures. Used by
// merge-idempotence tests rather than production code.
func (p Plan) Equal(o Plan) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		ov, ok := o[k]
		if !ok || !gestureEqual(v, ov) {
			return false
		}
	}
	return true
}

func gestureEqual(a, b Gesture) bool {
	if a.Intent != b.Intent || a.Deleted != b.Deleted || len(a.Points) != len(b.Points) {
		return false
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			return false
		}
	}
	return true
}
