// Package actor implements the typed message-passing substrate
// described in spec.md §4.2–§4.4: chunked arenas, slot-map addressing,
// per-type inboxes, and a dispatch table driving a single-threaded
// cooperative turn loop.
package actor

import (
	"go.uber.org/zap"

	"github.com/citybound/citybound/id"
)

// MaxTurnsPerCall bounds how many drain-every-inbox-once turns one
// ProcessAllMessages call will run before returning, the backpressure
// point described in spec.md §4.3.
const MaxTurnsPerCall = 1000

type dispatchKey struct {
	actorType id.TypeID
	msgType   id.MessageTypeID
}

type registration struct {
	critical bool
	fn       func(sys *System, p Packet)
}

// Networked is implemented by the networking layer (package net) so
// that System can hand it outbound packets without importing it —
// spec.md §4.5's "enqueued outbound" step.
type Networked interface {
	Outbound(p Packet)
}

// System is the ActorSystem: it owns every registered swarm on this
// machine, the dispatch table routing packets to handlers, and the
// turn loop that drains them.
type System struct {
	Machine id.MachineID

	swarms      map[id.TypeID]AnySwarm
	order       []id.TypeID
	dispatchers map[dispatchKey]registration
	traitOf     map[id.TraitID][]dispatchKey

	network Networked

	panicked bool
	onPanic  func(recovered any)

	log *zap.SugaredLogger

	turnsRun   uint64
	packetsIn  uint64
	packetsOut uint64
	dropped    uint64
}

// NewSystem constructs an empty ActorSystem for the given machine.
func NewSystem(machine id.MachineID, logger *zap.SugaredLogger) *System {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &System{
		Machine:     machine,
		swarms:      make(map[id.TypeID]AnySwarm),
		dispatchers: make(map[dispatchKey]registration),
		traitOf:     make(map[id.TraitID][]dispatchKey),
		log:         logger,
	}
}

// SetNetwork attaches the networking layer used to forward packets
// addressed to other machines or to everywhere.
func (sys *System) SetNetwork(n Networked) { sys.network = n }

// OnPanic registers a callback invoked when a handler panics, mirroring
// spec.md §7's "a user-supplied callback is invoked with the panic
// payload so the host can decide to quit or restart."
func (sys *System) OnPanic(fn func(recovered any)) { sys.onPanic = fn }

// Panicked reports whether the system has entered panicked mode, in
// which only handlers registered as critical still run.
func (sys *System) Panicked() bool { return sys.panicked }

// RegisterSwarm creates and registers an empty swarm for actor type
// typeID, returning it so the caller can Spawn instances into it.
func RegisterSwarm[A State](sys *System, typeID id.TypeID, baseSize int) *Swarm[A] {
	sw := NewSwarm[A](typeID, sys.Machine, baseSize)
	sys.swarms[typeID] = sw
	sys.order = append(sys.order, typeID)
	return sw
}

// SwarmOf retrieves a previously registered swarm by its concrete
// type, panicking if none was registered under typeID — a programmer
// error, not a runtime condition, since actor types are wired up once
// at startup.
func SwarmOf[A State](sys *System, typeID id.TypeID) *Swarm[A] {
	sw, ok := sys.swarms[typeID]
	if !ok {
		panic("actor: no swarm registered for type")
	}
	concrete, ok := sw.(*Swarm[A])
	if !ok {
		panic("actor: swarm registered under this type id has a different Go type")
	}
	return concrete
}

// Register installs a handler for messages of type M sent to actor
// type A (typeID) tagged msgType. critical marks the handler as one
// that still runs after a panic has put the system in panicked mode
// (spec.md §4.3/§7).
func Register[A State, M any](sys *System, typeID id.TypeID, msgType id.MessageTypeID, critical bool, handler func(msg M, self *A, sys *System) Fate) {
	sys.dispatchers[dispatchKey{typeID, msgType}] = registration{
		critical: critical,
		fn: func(sys *System, p Packet) {
			sw, ok := sys.swarms[typeID]
			if !ok {
				return
			}
			concrete := sw.(*Swarm[A])
			m, ok := p.Payload.(M)
			if !ok {
				sys.log.Warnw("actor: payload type mismatch, dropping",
					"actorType", typeID, "messageType", msgType)
				sys.dropped++
				return
			}
			wrapped := func(payload any, self *A, world any) Fate {
				return handler(payload.(M), self, world.(*System))
			}
			if p.Recipient.IsBroadcast() {
				concrete.DispatchBroadcast(m, sys, wrapped)
				return
			}
			delivered := concrete.DispatchInstance(p.Recipient, m, sys, wrapped)
			if !delivered {
				sys.log.Debugw("actor: dropped packet to stale or unknown instance",
					"recipient", p.Recipient.String())
				sys.dropped++
			}
		},
	}
}

// RegisterTrait records that actor type typeID, via message type
// msgType, implements trait traitID (spec.md Design Note 2 / §4.6's
// Sleeper and Temporal traits). SendToTrait fans a payload out to
// every actor type registered for a trait.
func RegisterTrait(sys *System, traitID id.TraitID, typeID id.TypeID, msgType id.MessageTypeID) {
	sys.traitOf[traitID] = append(sys.traitOf[traitID], dispatchKey{typeID, msgType})
}

// SendToTrait broadcasts payload, on this machine, to every actor type
// registered for traitID — this is how the Time actor delivers Tick to
// every Temporal implementor without knowing their concrete types.
func (sys *System) SendToTrait(traitID id.TraitID, payload any) {
	for _, key := range sys.traitOf[traitID] {
		sys.Send(Packet{
			Recipient:   id.LocalBroadcastID(key.actorType, sys.Machine),
			MessageType: key.msgType,
			Payload:     payload,
		})
	}
}

// Send enqueues p for local delivery, outbound forwarding, or both,
// per spec.md §4.5's addressing rules:
//   - delivered locally iff p.Recipient.Machine == sys.Machine, or the
//     recipient is a global broadcast;
//   - forwarded outbound iff p.Recipient.Machine != sys.Machine, or the
//     recipient is a global broadcast.
func (sys *System) Send(p Packet) {
	here := p.Recipient.Machine == sys.Machine || p.Recipient.IsGlobalBroadcast()
	everywhere := p.Recipient.IsGlobalBroadcast()
	remote := p.Recipient.Machine != sys.Machine || everywhere

	if remote && sys.network != nil {
		sys.network.Outbound(p)
		sys.packetsOut++
	}
	if here {
		sw, ok := sys.swarms[p.Recipient.Type]
		if !ok {
			sys.log.Debugw("actor: no swarm for recipient type, dropping", "type", p.Recipient.Type)
			sys.dropped++
			return
		}
		sw.Inbox().Put(p)
		sys.packetsIn++
	}
}

// Deliver is called by the networking layer to place an inbound packet
// (received from a peer) directly into the local inbox, bypassing
// outbound re-forwarding.
func (sys *System) Deliver(p Packet) {
	sw, ok := sys.swarms[p.Recipient.Type]
	if !ok {
		sys.dropped++
		return
	}
	sw.Inbox().Put(p)
	sys.packetsIn++
}

// ProcessAllMessages drains every inbox, dispatching each packet to its
// registered handler, repeating until no inbox produced anything or
// MaxTurnsPerCall turns have run (spec.md §4.3).
func (sys *System) ProcessAllMessages() {
	for t := 0; t < MaxTurnsPerCall; t++ {
		sys.turnsRun++
		anyDrained := false
		for _, typeID := range sys.order {
			sw := sys.swarms[typeID]
			packets := sw.Inbox().Empty()
			if len(packets) == 0 {
				continue
			}
			anyDrained = true
			for _, p := range packets {
				sys.dispatch(p)
			}
		}
		if !anyDrained {
			return
		}
	}
}

func (sys *System) dispatch(p Packet) {
	key := dispatchKey{p.Recipient.Type, p.MessageType}
	reg, ok := sys.dispatchers[key]
	if !ok {
		sys.log.Debugw("actor: no handler registered, dropping",
			"actorType", p.Recipient.Type, "messageType", p.MessageType)
		sys.dropped++
		return
	}
	if sys.panicked && !reg.critical {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			sys.panicked = true
			sys.log.Errorw("actor: handler panicked", "recovered", r,
				"actorType", p.Recipient.Type, "messageType", p.MessageType)
			if sys.onPanic != nil {
				sys.onPanic(r)
			}
		}
	}()
	reg.fn(sys, p)
}

// Stats is a snapshot of runtime counters, exposed for metrics wiring.
type Stats struct {
	TurnsRun   uint64
	PacketsIn  uint64
	PacketsOut uint64
	Dropped    uint64
}

func (sys *System) Stats() Stats {
	return Stats{
		TurnsRun:   sys.turnsRun,
		PacketsIn:  sys.packetsIn,
		PacketsOut: sys.packetsOut,
		Dropped:    sys.dropped,
	}
}
