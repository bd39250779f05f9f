package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/id"
)

func TestSpawnTripInjectsCarOntoSourceLane(t *testing.T) {
	sys, sw := newTestSystem(t)
	tripSw := RegisterTripType(sys)

	source := sw.Spawn(NewLane(straightPath(50), false, nil))
	dest := sw.Spawn(NewLane(straightPath(50), false, nil))

	tripID := SpawnTrip(sys, tripSw,
		Placement{Lane: source, Offset: 3},
		Placement{Lane: dest},
		Destination{LandmarkID: dest, NodeID: dest},
		id.ID{},
	)
	sys.ProcessAllMessages()

	trip, ok := tripSw.At(tripID)
	require.True(t, ok)
	require.Equal(t, EnRoute, trip.State)

	sourceState, _ := sw.At(source)
	require.Equal(t, 1, sourceState.Cars.Len())
	require.Equal(t, 3.0, sourceState.Cars.At(0).Position)
	require.Equal(t, tripID, sourceState.Cars.At(0).TripID)
}

func TestFinishNotifiesListener(t *testing.T) {
	sys := actor.NewSystem(0, zap.NewNop().Sugar())
	tripSw := actor.RegisterSwarm[Trip](sys, TripType, 4)

	var received *TripFinishMsg
	actor.Register[listenerActor, TripFinishMsg](sys, listenerType, MsgTripFinish, false,
		func(msg TripFinishMsg, self *listenerActor, _ *actor.System) actor.Fate {
			received = &msg
			return actor.Live
		})
	listenerSw := actor.RegisterSwarm[listenerActor](sys, listenerType, 1)
	listenerID := listenerSw.Spawn(listenerActor{})

	tripID := tripSw.Spawn(Trip{Listener: listenerID, State: EnRoute})
	Finish(sys, tripSw, tripID, NoRoute)
	sys.ProcessAllMessages()

	require.NotNil(t, received)
	require.Equal(t, tripID, received.Trip)
	require.Equal(t, NoRoute, received.Fate)

	trip, ok := tripSw.At(tripID)
	require.True(t, ok)
	require.Equal(t, Done, trip.State)
	require.Equal(t, NoRoute, trip.Fate)
}

func TestFinishWithNoListenerDoesNotPanic(t *testing.T) {
	sys := actor.NewSystem(0, zap.NewNop().Sugar())
	tripSw := actor.RegisterSwarm[Trip](sys, TripType, 4)
	tripID := tripSw.Spawn(Trip{State: EnRoute})

	require.NotPanics(t, func() {
		Finish(sys, tripSw, tripID, ForceStopped)
		sys.ProcessAllMessages()
	})
}

const listenerType id.TypeID = 250

type listenerActor struct {
	aid id.ID
}

func (l *listenerActor) ActorID() id.ID        { return l.aid }
func (l *listenerActor) SetActorID(v id.ID)    { l.aid = v }
func (l *listenerActor) DynamicSizeBytes() int { return 0 }
func (l *listenerActor) IsStillCompact() bool  { return true }
