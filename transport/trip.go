package transport

import (
	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/id"
)

// TripState is the state machine named in spec.md §4.10.
type TripState uint8

const (
	Created TripState = iota
	ResolvingSource
	ResolvingDestination
	EnRoute
	Done
	SourceOrDestinationNotResolvable
)

// TripFate is the outcome surfaced to a trip's listener once it
// reaches Done (spec.md §4.10).
type TripFate uint8

const (
	Success TripFate = iota
	FateSourceOrDestinationNotResolvable
	NoRoute
	RouteForgotten
	HopDisconnected
	LaneUnbuilt
	ForceStopped
)

// Placement is a rough or precise location: rough locations (e.g. a
// building entrance) are out of this module's scope (spec §1
// Non-goals list zoning/building geometry as external collaborators),
// so a Placement here is always precise — a lane plus an offset along
// it — and callers resolve anything rougher before spawning a Trip.
type Placement struct {
	Lane   id.ID
	Offset float64
}

// Trip is the source-to-destination lifecycle actor (spec.md §4.10).
type Trip struct {
	aid id.ID

	Source      Placement
	Destination Placement
	Listener    id.ID // notified via TripFinishMsg; zero ID means no listener

	State TripState
	Fate  TripFate
}

func (t *Trip) ActorID() id.ID        { return t.aid }
func (t *Trip) SetActorID(v id.ID)    { t.aid = v }
func (t *Trip) DynamicSizeBytes() int { return 0 }
func (t *Trip) IsStillCompact() bool  { return true }

// TripFinishMsg notifies a trip's listener of its terminal fate.
type TripFinishMsg struct {
	Trip id.ID
	Fate TripFate
}

// SpawnTrip creates a Trip and immediately injects its car onto the
// source lane (spec.md §4.10: "when both [locations] are known, the
// trip injects a car ... onto source.lane"). Both endpoints are
// already precise per this module's scope, so Created moves straight
// to EnRoute within the same call rather than through the Resolving
// states' asynchronous message round-trips a rough-location resolver
// would need.
func SpawnTrip(sys *actor.System, sw *actor.Swarm[Trip], src, dst Placement, destLandmark Destination, listener id.ID) id.ID {
	tripID := sw.Spawn(Trip{Source: src, Destination: dst, Listener: listener, State: EnRoute})
	sys.Send(actor.Packet{
		Recipient:   src.Lane,
		MessageType: MsgAddCar,
		Payload: AddCarMsg{
			Car: Car{
				TripID:      tripID,
				Position:    src.Offset,
				Velocity:    0,
				MaxVelocity: 0,
				Destination: destLandmark,
				NextHop:     -1,
			},
			From: tripID,
		},
	})
	return tripID
}

// Finish transitions a trip to Done with the given fate and notifies
// its listener, mirroring spec.md §4.10's "finish(result) logs outcome
// and notifies the trip listener".
func Finish(sys *actor.System, sw *actor.Swarm[Trip], tripID id.ID, fate TripFate) {
	state, ok := sw.At(tripID)
	if !ok {
		return
	}
	state.State = Done
	state.Fate = fate
	if state.Listener != (id.ID{}) {
		sys.Send(actor.Packet{
			Recipient:   state.Listener,
			MessageType: MsgTripFinish,
			Payload:     TripFinishMsg{Trip: tripID, Fate: fate},
		})
	}
}

// RegisterTripType registers the Trip swarm; Trip has no inbound
// message handlers of its own in this module's scope (completion is
// driven externally via Finish, which handleAddCar calls when a car
// arrives on its destination lane), so only the swarm itself is
// registered.
func RegisterTripType(sys *actor.System) *actor.Swarm[Trip] {
	sw := actor.RegisterSwarm[Trip](sys, TripType, 4)
	return sw
}
