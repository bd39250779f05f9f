package planning

import "sort"

// Diff is the set of construction actions needed to move the built
// world from old to new (spec.md §4.11 "Construction diff").
type Diff struct {
	ToDestroy  []Prototype
	ToConstruct []Prototype
	Morph      []PrototypeID
}

// DiffPrototypes computes to_destroy = old \ new, to_construct = new \
// old, morph = IDs present in both (spec.md §4.11). An ID present in
// both is treated as needing no action. A PrototypeID hashes the kind
// and influences (plus offsets for lanes, and the ordered lane pair for
// connectors), not the full prototype content, so a change that leaves
// those inputs equal is not detected.
//
// ToDestroy is ordered so dependents are destroyed before the
// dependencies they reference (a lane connecting through an
// intersection before the intersection itself); ToConstruct is ordered
// in reverse so a dependency exists before anything that references it.
func DiffPrototypes(old, updated PlanResult) Diff {
	var diff Diff
	for id, proto := range old {
		if _, ok := updated[id]; !ok {
			diff.ToDestroy = append(diff.ToDestroy, proto)
		} else {
			diff.Morph = append(diff.Morph, id)
		}
	}
	for id, proto := range updated {
		if _, ok := old[id]; !ok {
			diff.ToConstruct = append(diff.ToConstruct, proto)
		}
	}

	sort.Slice(diff.ToDestroy, func(i, j int) bool {
		return destroyPriority(diff.ToDestroy[i]) < destroyPriority(diff.ToDestroy[j]) ||
			(destroyPriority(diff.ToDestroy[i]) == destroyPriority(diff.ToDestroy[j]) && diff.ToDestroy[i].ID < diff.ToDestroy[j].ID)
	})
	sort.Slice(diff.ToConstruct, func(i, j int) bool {
		return constructPriority(diff.ToConstruct[i]) < constructPriority(diff.ToConstruct[j]) ||
			(constructPriority(diff.ToConstruct[i]) == constructPriority(diff.ToConstruct[j]) && diff.ToConstruct[i].ID < diff.ToConstruct[j].ID)
	})
	sort.Slice(diff.Morph, func(i, j int) bool { return diff.Morph[i] < diff.Morph[j] })

	return diff
}

// destroyPriority puts a lane connecting through an intersection ahead
// of the intersection it depends on, and the intersection ahead of
// ordinary lanes and switch lanes, which depend on nothing.
func destroyPriority(p Prototype) int {
	switch {
	case p.Kind == KindLane && p.HasParent:
		return 0
	case p.Kind == KindIntersection:
		return 1
	default:
		return 2
	}
}

// constructPriority is destroyPriority reversed: an intersection must
// exist before a lane connecting through it is built.
func constructPriority(p Prototype) int {
	switch {
	case p.Kind == KindIntersection:
		return 0
	case p.Kind == KindLane && p.HasParent:
		return 2
	default:
		return 1
	}
}

// ConstructionAction names which side of a Diff an entity ended up on,
// the payload an actor-facing construction worker dispatches on.
type ConstructionAction uint8

const (
	ActionDestroy ConstructionAction = iota
	ActionConstruct
)

// Step is one dispatchable unit of a Diff, preserving the dependency
// order DiffPrototypes computed.
type Step struct {
	Action    ConstructionAction
	Prototype Prototype
}

// Steps flattens a Diff into the single ordered sequence a
// construction actor executes: every destroy first (in dependency
// order), then every construct (in reverse dependency order), matching
// spec.md's requirement that torn-down prototypes vacate their ID
// before anything reusing overlapping geometry gets built.
func (d Diff) Steps() []Step {
	steps := make([]Step, 0, len(d.ToDestroy)+len(d.ToConstruct))
	for _, p := range d.ToDestroy {
		steps = append(steps, Step{Action: ActionDestroy, Prototype: p})
	}
	for _, p := range d.ToConstruct {
		steps = append(steps, Step{Action: ActionConstruct, Prototype: p})
	}
	return steps
}
