package actor

// Fate is returned by every message handler to tell the swarm what
// should happen to the recipient afterwards (spec.md §4.4).
type Fate int

const (
	// Live is the default: the actor survives the handler call.
	Live Fate = iota
	// Die removes the actor: drop in place, swap-remove from its
	// arena bin, push its instance id onto the slot map freelist.
	Die
)

func (f Fate) String() string {
	if f == Die {
		return "Die"
	}
	return "Live"
}
