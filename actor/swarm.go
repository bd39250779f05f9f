package actor

import "github.com/citybound/citybound/id"

// Sized is implemented by every actor state type. DynamicSizeBytes
// selects which size-classed bin a newly (re)inserted instance lands
// in; IsStillCompact tells the swarm, after a handler runs, whether the
// instance needs to move to a larger bin (spec.md §4.1/§4.4).
type Sized interface {
	DynamicSizeBytes() int
	IsStillCompact() bool
}

// State is the minimum an actor's state type must support: it is
// Sized, and it carries its own address so the swarm can recover which
// instance_id a value at some arena slot belongs to after a swap-
// remove (the swarm invariant in spec.md §3).
type State interface {
	Sized
	ActorID() id.ID
	SetActorID(id.ID)
}

// AnySwarm is the type-erased interface the ActorSystem holds one of
// per registered actor type, so dispatch can route a Packet to the
// right swarm without the system itself being generic.
type AnySwarm interface {
	TypeID() id.TypeID
	Inbox() *Inbox
	InstanceCount() int
}

// Swarm is the container of every live instance of one actor type on
// this machine (spec.md §3 "Swarm invariant", §4.4).
type Swarm[A State] struct {
	typeID  id.TypeID
	machine id.MachineID

	arena *multiSized[A]
	slots slotMap
	inbox Inbox
}

// NewSwarm constructs an empty swarm for actor type typeID on machine.
// baseSize is the "typical" inline footprint used to pick size classes
// (spec.md §4.2).
func NewSwarm[A State](typeID id.TypeID, machine id.MachineID, baseSize int) *Swarm[A] {
	return &Swarm[A]{
		typeID:  typeID,
		machine: machine,
		arena:   newMultiSized[A](baseSize),
	}
}

func (s *Swarm[A]) TypeID() id.TypeID  { return s.typeID }
func (s *Swarm[A]) Inbox() *Inbox       { return &s.inbox }
func (s *Swarm[A]) InstanceCount() int { return len(s.slots.entries) - len(s.slots.freeList) }

// Spawn inserts state into the swarm, assigning it a freshly allocated
// id (or recycling a freed one with a bumped version).
func (s *Swarm[A]) Spawn(state A) id.ID {
	instance, version := s.slots.allocateID()
	aid := id.New(s.typeID, instance, s.machine, version)
	state.SetActorID(aid)
	binIdx, slot := s.arena.push(state, state.DynamicSizeBytes())
	s.slots.updateLocation(instance, binIdx, slot)
	return aid
}

// SpawnWithID inserts state using an id previously reserved elsewhere
// (e.g. a cross-actor-type id scheme); used by actor types whose
// instances are spawned by another actor's handler rather than
// directly by the system.
func (s *Swarm[A]) SpawnWithID(state A, aid id.ID) {
	state.SetActorID(aid)
	for uint32(len(s.slots.entries)) <= aid.Instance {
		s.slots.entries = append(s.slots.entries, slotEntry{free: true})
	}
	e := &s.slots.entries[aid.Instance]
	e.free = false
	e.version = aid.VersionTag
	binIdx, slot := s.arena.push(state, state.DynamicSizeBytes())
	s.slots.updateLocation(aid.Instance, binIdx, slot)
}

// At resolves aid to its current state, rejecting stale versions.
func (s *Swarm[A]) At(aid id.ID) (*A, bool) {
	binIdx, slot, ok := s.slots.resolve(aid.Instance, aid.VersionTag)
	if !ok {
		return nil, false
	}
	return s.arena.at(binIdx, slot), true
}

func (s *Swarm[A]) fixUpSwappedIn(binIdx, slot int) {
	moved := s.arena.at(binIdx, slot)
	mid := moved.ActorID()
	s.slots.updateLocation(mid.Instance, binIdx, slot)
}

// remove drops the actor at aid: swap-remove from its bin, free its
// slot map entry (bumping its version).
func (s *Swarm[A]) remove(aid id.ID) {
	binIdx, slot, ok := s.slots.resolve(aid.Instance, aid.VersionTag)
	if !ok {
		return
	}
	if s.arena.swapRemove(binIdx, slot) {
		s.fixUpSwappedIn(binIdx, slot)
	}
	s.slots.free(aid.Instance, aid.VersionTag)
}

// resize moves the actor at aid into whatever bin now matches its
// current dynamic footprint, used once a handler leaves it no longer
// IsStillCompact (spec.md §4.4).
func (s *Swarm[A]) resize(aid id.ID) {
	binIdx, slot, ok := s.slots.resolve(aid.Instance, aid.VersionTag)
	if !ok {
		return
	}
	state := *s.arena.at(binIdx, slot)
	if s.arena.swapRemove(binIdx, slot) {
		s.fixUpSwappedIn(binIdx, slot)
	}
	newBin, newSlot := s.arena.push(state, state.DynamicSizeBytes())
	s.slots.updateLocation(aid.Instance, newBin, newSlot)
}

// Handler is the per-actor-type, per-message-type user callback. world
// is passed as `any` and type-asserted by callers to *System to avoid
// an import cycle between actor and the system that holds many
// Swarm[A] values.
type Handler[A any, M any] func(msg M, self *A, world any) Fate

// DispatchInstance delivers payload to the single instance addressed by
// recipient, dropping it with no effect if the version is stale
// (spec.md §4.4 "version-check; if versions differ, drop").
func (s *Swarm[A]) DispatchInstance(recipient id.ID, msg any, world any, handler func(msg any, self *A, world any) Fate) (delivered bool) {
	state, ok := s.At(recipient)
	if !ok {
		return false
	}
	fate := handler(msg, state, world)
	s.applyFate(recipient, state, fate)
	return true
}

func (s *Swarm[A]) applyFate(aid id.ID, state *A, fate Fate) {
	switch fate {
	case Die:
		s.remove(aid)
	default:
		if !(*state).IsStillCompact() {
			s.resize(aid)
		}
	}
}

// DispatchBroadcast delivers payload to every instance that was live
// when the broadcast started, tolerating handlers that delete the
// current instance, resize it into a different bin, or spawn brand
// new instances mid-broadcast (spec.md §4.4). The algorithm mirrors
// the source's Swarm::receive_broadcast bin-by-bin walk exactly:
// snapshot each bin's length, walk slot 0 upward, and whenever the
// current slot's handler causes a removal or resize, check whether
// the bin's new length fell below the remaining-recipients boundary —
// if so an unvisited recipient got swapped into this slot and must be
// revisited, otherwise skip forward.
func (s *Swarm[A]) DispatchBroadcast(msg any, world any, handler func(msg any, self *A, world any) Fate) {
	nBins := s.arena.binCount()
	recipientsTodoPerBin := make([]int, nBins)
	for k := 0; k < nBins; k++ {
		recipientsTodoPerBin[k] = s.arena.bins[k].len()
	}

	for c := 0; c < nBins; c++ {
		recipientsTodo := recipientsTodoPerBin[c]
		slot := 0
		indexAfterLastRecipient := recipientsTodo

		for n := 0; n < recipientsTodo; n++ {
			state := s.arena.at(c, slot)
			aid := (*state).ActorID()
			fate := handler(msg, state, world)
			isStillCompact := (*state).IsStillCompact()

			repeatSlot := false
			switch fate {
			case Die:
				s.removeAtBinSlot(c, slot, aid)
				if s.arena.bins[c].len() < indexAfterLastRecipient {
					indexAfterLastRecipient--
					repeatSlot = true
				}
			default:
				if !isStillCompact {
					s.resizeAtBinSlot(c, slot, aid)
					if s.arena.bins[c].len() < indexAfterLastRecipient {
						indexAfterLastRecipient--
						repeatSlot = true
					}
				}
			}

			if !repeatSlot {
				slot++
			}
		}
	}
}

func (s *Swarm[A]) removeAtBinSlot(binIdx, slot int, aid id.ID) {
	if s.arena.swapRemove(binIdx, slot) {
		s.fixUpSwappedIn(binIdx, slot)
	}
	s.slots.free(aid.Instance, aid.VersionTag)
}

func (s *Swarm[A]) resizeAtBinSlot(binIdx, slot int, aid id.ID) {
	state := *s.arena.at(binIdx, slot)
	if s.arena.swapRemove(binIdx, slot) {
		s.fixUpSwappedIn(binIdx, slot)
	}
	newBin, newSlot := s.arena.push(state, state.DynamicSizeBytes())
	s.slots.updateLocation(aid.Instance, newBin, newSlot)
}

// Each iterates every live instance, for snapshot-style reads (e.g.
// rendering or metrics) that are not part of the message-passing
// broadcast contract above.
func (s *Swarm[A]) Each(fn func(aid id.ID, state *A)) {
	for c := 0; c < s.arena.binCount(); c++ {
		b := s.arena.bins[c]
		for i := 0; i < b.len(); i++ {
			state := b.at(i)
			fn((*state).ActorID(), state)
		}
	}
}
