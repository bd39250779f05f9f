package transport

import (
	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/config"
	"github.com/citybound/citybound/id"
)

// JoinLandmarkMsg floods a landmark's identity downstream (spec.md
// §4.9 "Landmark flood").
type JoinLandmarkMsg struct {
	From   id.ID
	JoinAs Destination
	Hops   uint8
}

// ShareRoutesMsg gossips a lane's route table and own destination
// status upstream, once per tick (spec.md §4.9 "Route gossip").
type ShareRoutesMsg struct {
	From        id.ID
	NewRoutes   map[Destination]RouteEntry
	AsDest      Destination
	HasAsDest   bool
}

// QueryAsDestinationMsg asks a lane for its current Destination.
type QueryAsDestinationMsg struct {
	Requester id.ID
}

// TellAsDestinationMsg answers a QueryAsDestinationMsg.
type TellAsDestinationMsg struct {
	From      id.ID
	AsDest    Destination
	HasAsDest bool
}

// RetractRoutesMsg is sent to every predecessor when a lane unbuilds,
// so routes that went through it are dropped rather than left to
// decay passively (spec.md Design Note "Pathfinding convergence" — the
// Open Question is resolved in favor of explicit retraction here; see
// DESIGN.md).
type RetractRoutesMsg struct {
	ViaFrom id.ID
}

// electLandmarkIfEligible runs spec.md §4.9's election rule: a lane
// with no destination and at least MinLandmarkIncoming predecessors
// elects itself.
func electLandmarkIfEligible(self *Lane, cfg *config.Config) {
	if self.PathInfo.AsDestination.IsSome() {
		return
	}
	if self.Incoming.Len() < cfg.MinLandmarkIncoming {
		return
	}
	self.PathInfo.AsDestination.Set(Destination{
		LandmarkID:  self.ActorID(),
		OutgoingIdx: 0,
		NodeID:      self.ActorID(),
	})
	self.PathInfo.HopsFromLandmark = 0
}

// floodLandmark sends JoinLandmark to every successor when this lane
// is a destination (spec.md §4.9).
func floodLandmark(self *Lane, sys *actor.System) {
	dest, ok := self.PathInfo.AsDestination.Get()
	if !ok {
		return
	}
	for i := 0; i < self.Outgoing.Len(); i++ {
		inter := self.Outgoing.At(i)
		if inter.Kind != Next && inter.Kind != OverlapTransfer {
			continue
		}
		sys.Send(actor.Packet{
			Recipient:   inter.Partner,
			MessageType: MsgJoinLandmark,
			Payload: JoinLandmarkMsg{
				From:   self.ActorID(),
				JoinAs: dest,
				Hops:   self.PathInfo.HopsFromLandmark + 1,
			},
		})
	}
}

func handleJoinLandmark(msg JoinLandmarkMsg, self *Lane, sys *actor.System) actor.Fate {
	if self.IsSwitch {
		// a switch just relays; unlike a normal lane it has no
		// hops/landmark comparison to stop a flood naturally, so track
		// which landmarks it has already forwarded to avoid relaying the
		// same one forever around a cycle of switches.
		if self.seenLandmarks.Contains(msg.JoinAs.LandmarkID) {
			return actor.Live
		}
		self.seenLandmarks.Add(msg.JoinAs.LandmarkID)
		for i := 0; i < self.Outgoing.Len(); i++ {
			inter := self.Outgoing.At(i)
			if inter.Partner != msg.From {
				sys.Send(actor.Packet{Recipient: inter.Partner, MessageType: MsgJoinLandmark, Payload: msg})
			}
		}
		return actor.Live
	}

	current, hasCurrent := self.PathInfo.AsDestination.Get()
	accept := !hasCurrent
	if hasCurrent {
		switch {
		case msg.JoinAs.LandmarkID != current.LandmarkID && idLess(msg.JoinAs.LandmarkID, current.LandmarkID):
			accept = true
		case msg.Hops < self.PathInfo.HopsFromLandmark:
			accept = true
		case msg.JoinAs.LandmarkID == current.LandmarkID && incomingIdxOf(self, msg.From) == int(self.PathInfo.IncomingIdxFromLandmark):
			accept = true
		}
	}
	if !accept {
		return actor.Live
	}

	self.PathInfo.AsDestination.Set(msg.JoinAs)
	self.PathInfo.HopsFromLandmark = msg.Hops
	if idx := incomingIdxOf(self, msg.From); idx >= 0 {
		self.PathInfo.IncomingIdxFromLandmark = uint8(idx)
	}
	floodLandmark(self, sys)
	return actor.Live
}

func incomingIdxOf(self *Lane, partner id.ID) int {
	for i := 0; i < self.Incoming.Len(); i++ {
		if self.Incoming.At(i).Partner == partner {
			return i
		}
	}
	return -1
}

// idLess provides the numeric tie-break spec.md §4.9 calls for between
// two competing landmark elections ("the proposed landmark id is
// numerically smaller").
func idLess(a, b id.ID) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Instance < b.Instance
}

// gossipRoutes sends this lane's route table plus its own destination
// status to every predecessor (spec.md §4.9 "Route gossip").
func gossipRoutes(self *Lane, sys *actor.System) {
	routes := make(map[Destination]RouteEntry, self.PathInfo.Routes.Len())
	self.PathInfo.Routes.Range(func(d Destination, r RouteEntry) bool {
		routes[d] = r
		return true
	})
	dest, hasDest := self.PathInfo.AsDestination.Get()

	for i := 0; i < self.Incoming.Len(); i++ {
		inter := self.Incoming.At(i)
		sys.Send(actor.Packet{
			Recipient:   inter.Partner,
			MessageType: MsgShareRoutes,
			Payload: ShareRoutesMsg{
				From:      self.ActorID(),
				NewRoutes: routes,
				AsDest:    dest,
				HasAsDest: hasDest,
			},
		})
	}
}

func handleShareRoutes(msg ShareRoutesMsg, self *Lane, _ *actor.System) actor.Fate {
	senderIdx := outgoingIdxOf(self, msg.From)
	if senderIdx < 0 {
		return actor.Live
	}
	selfLen := self.Path.Length()

	consider := func(dest Destination, distance float64) {
		newDist := distance + selfLen
		existing, ok := self.PathInfo.Routes.Get(dest)
		if self.IsSwitch {
			newDist = distance // switch lanes relay without adding distance
		}
		if !ok || newDist < existing.Distance {
			self.PathInfo.Routes.Insert(dest, RouteEntry{OutgoingIdx: uint8(senderIdx), Distance: newDist})
		}
	}

	for dest, entry := range msg.NewRoutes {
		consider(dest, entry.Distance)
	}
	if msg.HasAsDest {
		consider(msg.AsDest, 0)
	}
	return actor.Live
}

func outgoingIdxOf(self *Lane, partner id.ID) int {
	for i := 0; i < self.Outgoing.Len(); i++ {
		if self.Outgoing.At(i).Partner == partner {
			return i
		}
	}
	return -1
}

func handleQueryAsDestination(msg QueryAsDestinationMsg, self *Lane, sys *actor.System) actor.Fate {
	dest, ok := self.PathInfo.AsDestination.Get()
	sys.Send(actor.Packet{
		Recipient:   msg.Requester,
		MessageType: MsgTellAsDestination,
		Payload:     TellAsDestinationMsg{From: self.ActorID(), AsDest: dest, HasAsDest: ok},
	})
	return actor.Live
}

func handleTellAsDestination(_ TellAsDestinationMsg, _ *Lane, _ *actor.System) actor.Fate {
	// Consumed by whichever caller issued the query; no caller in this
	// module issues one, and the Lane itself has nothing to update upon
	// receiving an answer.
	return actor.Live
}

func handleRetractRoutes(msg RetractRoutesMsg, self *Lane, _ *actor.System) actor.Fate {
	var toRemove []Destination
	self.PathInfo.Routes.Range(func(d Destination, r RouteEntry) bool {
		if int(r.OutgoingIdx) < self.Outgoing.Len() && self.Outgoing.At(int(r.OutgoingIdx)).Partner == msg.ViaFrom {
			toRemove = append(toRemove, d)
		}
		return true
	})
	for _, d := range toRemove {
		self.PathInfo.Routes.Remove(d)
	}
	return actor.Live
}
