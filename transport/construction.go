package transport

import (
	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/compact"
	"github.com/citybound/citybound/geo"
	"github.com/citybound/citybound/id"
)

// ConnectMsg is broadcast locally by a freshly spawned lane so every
// other lane on the machine can check endpoint coincidence (spec.md
// §4.7 step 2).
type ConnectMsg struct {
	From        id.ID
	Start, End  geo.Point
	Length      float64
	ReplyNeeded bool
}

// ConnectReplyMsg answers a ConnectMsg when the sender asked for one.
type ConnectReplyMsg struct {
	From       id.ID
	Start, End geo.Point
}

// ConnectOverlapsMsg is globally broadcast once a lane is ready to
// discover parallel/conflicting overlaps with every other lane (spec.md
// §4.7 step 3).
type ConnectOverlapsMsg struct {
	From        id.ID
	Path        geo.LinePath
	ReplyNeeded bool
}

// ConnectToSwitchMsg pairs two adjacent normal lanes with a transfer
// switch lane (spec.md §4.7 step 4).
type ConnectToSwitchMsg struct {
	SwitchID id.ID
}

// UnbuildMsg starts this lane's symmetric teardown.
type UnbuildMsg struct {
	ReportTo id.ID
}

// DisconnectMsg asks a partner lane to drop its Interaction back to
// the unbuilding lane.
type DisconnectMsg struct {
	From id.ID
}

// OnConfirmDisconnectMsg acknowledges a DisconnectMsg.
type OnConfirmDisconnectMsg struct {
	From id.ID
}

// RegisterLaneHandlers wires every construction, microtraffic, and
// pathfinding handler for the Lane actor type into sys. Call once at
// startup after RegisterSwarm[Lane].
func RegisterLaneHandlers(sys *actor.System) {
	actor.Register[Lane, ConnectMsg](sys, LaneType, MsgConnect, false, handleConnect)
	actor.Register[Lane, ConnectReplyMsg](sys, LaneType, MsgConnectReply, false, handleConnectReply)
	actor.Register[Lane, ConnectOverlapsMsg](sys, LaneType, MsgConnectOverlaps, false, handleConnectOverlaps)
	actor.Register[Lane, ConnectToSwitchMsg](sys, LaneType, MsgConnectToSwitch, false, handleConnectToSwitch)
	actor.Register[Lane, UnbuildMsg](sys, LaneType, MsgUnbuild, false, handleUnbuild)
	actor.Register[Lane, DisconnectMsg](sys, LaneType, MsgDisconnect, false, handleDisconnect)
	actor.Register[Lane, OnConfirmDisconnectMsg](sys, LaneType, MsgOnConfirmDisconnect, false, handleOnConfirmDisconnect)

	actor.Register[Lane, AddCarMsg](sys, LaneType, MsgAddCar, false, handleAddCar)
	actor.Register[Lane, AddObstaclesMsg](sys, LaneType, MsgAddObstacles, false, handleAddObstacles)

	actor.Register[Lane, JoinLandmarkMsg](sys, LaneType, MsgJoinLandmark, false, handleJoinLandmark)
	actor.Register[Lane, ShareRoutesMsg](sys, LaneType, MsgShareRoutes, false, handleShareRoutes)
	actor.Register[Lane, QueryAsDestinationMsg](sys, LaneType, MsgQueryAsDestination, false, handleQueryAsDestination)
	actor.Register[Lane, TellAsDestinationMsg](sys, LaneType, MsgTellAsDestination, false, handleTellAsDestination)
	actor.Register[Lane, RetractRoutesMsg](sys, LaneType, MsgRetractRoutes, false, handleRetractRoutes)
}

// SpawnAndConnect creates a lane actor and broadcasts ConnectMsg to
// every other lane on this machine (spec.md §4.7 step 1-2).
func SpawnAndConnect(sys *actor.System, sw *actor.Swarm[Lane], lane Lane) id.ID {
	laneID := sw.Spawn(lane)
	state, _ := sw.At(laneID)
	sys.Send(actor.Packet{
		Recipient:   id.LocalBroadcastID(LaneType, sys.Machine),
		MessageType: MsgConnect,
		Payload: ConnectMsg{
			From:   laneID,
			Start:  state.Path.Start(),
			End:    state.Path.End(),
			Length: state.Path.Length(),
		},
	})
	return laneID
}

func handleConnect(msg ConnectMsg, self *Lane, sys *actor.System) actor.Fate {
	if msg.From == self.ActorID() {
		return actor.Live
	}
	myStart, myEnd := self.Path.Start(), self.Path.End()
	if myEnd.DistanceTo(msg.Start) < THICKNESS {
		self.Outgoing.Push(Interaction{Kind: Next, Partner: msg.From, At: self.Path.Length()})
	}
	if myStart.DistanceTo(msg.End) < THICKNESS {
		self.Incoming.Push(Interaction{Kind: Previous, Partner: msg.From, At: 0})
	}
	if msg.ReplyNeeded {
		sys.Send(actor.Packet{
			Recipient:   msg.From,
			MessageType: MsgConnectReply,
			Payload:     ConnectReplyMsg{From: self.ActorID(), Start: myStart, End: myEnd},
		})
	}
	return actor.Live
}

func handleConnectReply(msg ConnectReplyMsg, self *Lane, _ *actor.System) actor.Fate {
	myEnd := self.Path.End()
	if myEnd.DistanceTo(msg.Start) < THICKNESS {
		self.Outgoing.Push(Interaction{Kind: Next, Partner: msg.From, At: self.Path.Length()})
	}
	myStart := self.Path.Start()
	if myStart.DistanceTo(msg.End) < THICKNESS {
		self.Incoming.Push(Interaction{Kind: Previous, Partner: msg.From, At: 0})
	}
	return actor.Live
}

// StartConnectingOverlaps globally broadcasts ConnectOverlapsMsg from
// every lane (spec.md §4.7 step 3). Called once after the local
// Next/Previous connection pass has settled.
func StartConnectingOverlaps(sys *actor.System, sw *actor.Swarm[Lane]) {
	sw.Each(func(laneID id.ID, l *Lane) {
		sys.Send(actor.Packet{
			Recipient:   id.GlobalBroadcastID(LaneType),
			MessageType: MsgConnectOverlaps,
			Payload:     ConnectOverlapsMsg{From: laneID, Path: l.Path},
		})
	})
}

func handleConnectOverlaps(msg ConnectOverlapsMsg, self *Lane, _ *actor.System) actor.Fate {
	if msg.From == self.ActorID() {
		return actor.Live
	}
	hits := geo.Intersect(self.Path, msg.Path)
	if len(hits) < 2 {
		return actor.Live
	}
	var lo, hi float64 = 1e18, -1e18
	for _, pt := range hits {
		d := geo.Project(self.Path, pt)
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	self.Outgoing.Push(Interaction{
		Kind: OverlapConflicting, Partner: msg.From,
		OverlapStart: lo, OverlapEnd: hi,
	})
	return actor.Live
}

func handleConnectToSwitch(msg ConnectToSwitchMsg, self *Lane, _ *actor.System) actor.Fate {
	self.Outgoing.Push(Interaction{Kind: OverlapTransfer, Partner: msg.SwitchID})
	return actor.Live
}

func handleUnbuild(msg UnbuildMsg, self *Lane, sys *actor.System) actor.Fate {
	self.unbuilding = true
	self.unbuildReportTo = msg.ReportTo
	pending := 0
	for i := 0; i < self.Outgoing.Len(); i++ {
		sys.Send(actor.Packet{Recipient: self.Outgoing.At(i).Partner, MessageType: MsgDisconnect, Payload: DisconnectMsg{From: self.ActorID()}})
		pending++
	}
	// Every Incoming partner routes through self (a RouteEntry on their
	// side names one of their own Outgoing indices, and self is the
	// Partner at that index). Since self is dying, those entries are
	// stale the moment it goes: tell each one to drop routes via self
	// (spec.md §4.9, resolving the pathfinding-convergence teardown
	// question rather than leaving it to gossip's slower overwrite).
	for i := 0; i < self.Incoming.Len(); i++ {
		partner := self.Incoming.At(i).Partner
		sys.Send(actor.Packet{Recipient: partner, MessageType: MsgDisconnect, Payload: DisconnectMsg{From: self.ActorID()}})
		sys.Send(actor.Packet{Recipient: partner, MessageType: MsgRetractRoutes, Payload: RetractRoutesMsg{ViaFrom: self.ActorID()}})
		pending++
	}
	self.pendingDisconnect = pending
	if pending == 0 {
		sys.Send(actor.Packet{Recipient: msg.ReportTo, MessageType: MsgOnConfirmDisconnect, Payload: OnConfirmDisconnectMsg{From: self.ActorID()}})
		return actor.Die
	}
	return actor.Live
}

func handleDisconnect(msg DisconnectMsg, self *Lane, sys *actor.System) actor.Fate {
	// If self routed through msg.From (an Outgoing partner), any Routes
	// entry naming that slot is now dead; retract it before the
	// interaction itself is removed below, since handleRetractRoutes
	// matches entries by the still-intact Outgoing[idx].Partner. This
	// is self's own state, so it's applied directly rather than
	// round-tripped through a queued message to itself.
	handleRetractRoutes(RetractRoutesMsg{ViaFrom: msg.From}, self, sys)
	removeInteractionsTo(&self.Outgoing, msg.From)
	removeInteractionsTo(&self.Incoming, msg.From)
	sys.Send(actor.Packet{Recipient: msg.From, MessageType: MsgOnConfirmDisconnect, Payload: OnConfirmDisconnectMsg{From: self.ActorID()}})
	return actor.Live
}

// removeInteractionsTo drops every interaction in v whose Partner is
// partner, via repeated swap-remove (mirrors the arena's own removal
// discipline rather than reslicing).
func removeInteractionsTo(v *compact.CVec[Interaction], partner id.ID) {
	i := 0
	for i < v.Len() {
		if v.At(i).Partner == partner {
			v.SwapRemove(i)
			continue
		}
		i++
	}
}

func handleOnConfirmDisconnect(msg OnConfirmDisconnectMsg, self *Lane, sys *actor.System) actor.Fate {
	if !self.unbuilding {
		return actor.Live
	}
	self.pendingDisconnect--
	if self.pendingDisconnect <= 0 {
		sys.Send(actor.Packet{Recipient: self.unbuildReportTo, MessageType: MsgOnConfirmDisconnect, Payload: OnConfirmDisconnectMsg{From: self.ActorID()}})
		return actor.Die
	}
	return actor.Live
}
