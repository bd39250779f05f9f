package actor

import "github.com/citybound/citybound/id"

// slotEntry is one instance_id's current (bin, slot, version), or a
// freelist link when the instance is not live.
type slotEntry struct {
	bin, slot int
	version   id.Version
	free      bool
}

// slotMap is the dense, version-tagged index from instance_id to an
// arena location (spec.md §4.2). allocateID recycles a freed entry
// when one exists; free bumps the version so any packet still
// addressed to the old version is rejected (spec.md §3's use-after-
// free invariant).
type slotMap struct {
	entries  []slotEntry
	freeList []uint32
}

func (s *slotMap) allocateID() (instance uint32, version id.Version) {
	if n := len(s.freeList); n > 0 {
		instance = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		e := &s.entries[instance]
		e.free = false
		return instance, e.version
	}
	instance = uint32(len(s.entries))
	s.entries = append(s.entries, slotEntry{})
	return instance, 0
}

func (s *slotMap) updateLocation(instance uint32, bin, slot int) {
	e := &s.entries[instance]
	e.bin, e.slot = bin, slot
}

// resolve returns the live location for (instance, version), or ok=false
// if the instance is free or the version has moved on (stale send).
func (s *slotMap) resolve(instance uint32, version id.Version) (bin, slot int, ok bool) {
	if int(instance) >= len(s.entries) {
		return 0, 0, false
	}
	e := s.entries[instance]
	if e.free || e.version != version {
		return 0, 0, false
	}
	return e.bin, e.slot, true
}

// resolveNoVersionCheck is used internally right after allocateID,
// where the caller already knows the instance is live and current.
func (s *slotMap) resolveNoVersionCheck(instance uint32) (bin, slot int) {
	e := s.entries[instance]
	return e.bin, e.slot
}

func (s *slotMap) free(instance uint32, version id.Version) bool {
	if int(instance) >= len(s.entries) {
		return false
	}
	e := &s.entries[instance]
	if e.free || e.version != version {
		return false
	}
	e.free = true
	e.version++
	s.freeList = append(s.freeList, instance)
	return true
}
