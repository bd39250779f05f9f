// Package id implements the fixed-size addressing scheme every actor
// and message in this module uses: a type-indexed, instance-indexed,
// machine-indexed, version-tagged address (spec.md §3 "Address (ID)"),
// styled after the fixed-array NodeID/ID types used throughout the
// teacher's utils/ids and context packages.
package id

import "fmt"

// TypeID indexes an actor type within a single ActorSystem.
type TypeID uint16

// MessageTypeID indexes a message type within a single ActorSystem.
type MessageTypeID uint16

// TraitID indexes a polymorphic trait (e.g. Sleeper, Temporal) that
// more than one actor type may implement.
type TraitID uint16

// MachineID indexes a peer in the networked lockstep group.
type MachineID uint8

// Version guards against use-after-free when an instance_id slot is
// recycled.
type Version uint8

// Sentinel instance_id values designating broadcast scope.
const (
	// LocalBroadcast addresses every live instance of a type on this
	// machine.
	LocalBroadcast uint32 = 0xFFFFFFFE
	// GlobalBroadcast addresses every live instance of a type on
	// every machine.
	GlobalBroadcast uint32 = 0xFFFFFFFF
)

// ID is the fixed 8-byte address described in spec.md §3: type,
// instance, machine, and version. It is comparable and suitable as a
// map key.
type ID struct {
	Type       TypeID
	Instance   uint32
	Machine    MachineID
	VersionTag Version
}

// New builds a concrete (non-broadcast) ID.
func New(t TypeID, instance uint32, machine MachineID, version Version) ID {
	return ID{Type: t, Instance: instance, Machine: machine, VersionTag: version}
}

// LocalBroadcastID addresses every live instance of t on machine.
func LocalBroadcastID(t TypeID, machine MachineID) ID {
	return ID{Type: t, Instance: LocalBroadcast, Machine: machine}
}

// GlobalBroadcastID addresses every live instance of t on every
// machine.
func GlobalBroadcastID(t TypeID) ID {
	return ID{Type: t, Instance: GlobalBroadcast}
}

// IsLocalBroadcast reports whether this ID addresses every instance of
// its type on one machine.
func (i ID) IsLocalBroadcast() bool { return i.Instance == LocalBroadcast }

// IsGlobalBroadcast reports whether this ID addresses every instance of
// its type on every machine.
func (i ID) IsGlobalBroadcast() bool { return i.Instance == GlobalBroadcast }

// IsBroadcast reports either broadcast form.
func (i ID) IsBroadcast() bool { return i.IsLocalBroadcast() || i.IsGlobalBroadcast() }

func (i ID) String() string {
	switch {
	case i.IsGlobalBroadcast():
		return fmt.Sprintf("Type(%d)::*::*", i.Type)
	case i.IsLocalBroadcast():
		return fmt.Sprintf("Type(%d)::*@%d", i.Type, i.Machine)
	default:
		return fmt.Sprintf("Type(%d)::%d@%d#v%d", i.Type, i.Instance, i.Machine, i.VersionTag)
	}
}

// NodeID addresses a peer for networking / lockstep purposes; distinct
// from MachineID in that it may outlive a machine's current slot once
// peer discovery is added, but for this module is a thin alias.
type NodeID = MachineID
