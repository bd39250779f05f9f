package clock

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/id"
)

const (
	sleeperType id.TypeID        = 9
	wakeMsg     id.MessageTypeID = 1
	tickMsg     id.MessageTypeID = 2
)

type sleeperActor struct {
	aid    id.ID
	wakes  []Instant
	ticks  []Tick
}

func (a *sleeperActor) ActorID() id.ID        { return a.aid }
func (a *sleeperActor) SetActorID(v id.ID)    { a.aid = v }
func (a *sleeperActor) DynamicSizeBytes() int { return 0 }
func (a *sleeperActor) IsStillCompact() bool  { return true }

func setup(t *testing.T) (*actor.System, *actor.Swarm[sleeperActor], *Clock, id.ID) {
	sys := actor.NewSystem(0, zap.NewNop().Sugar())
	sw := actor.RegisterSwarm[sleeperActor](sys, sleeperType, 8)
	actor.Register[sleeperActor, Wake](sys, sleeperType, wakeMsg, false,
		func(msg Wake, self *sleeperActor, _ *actor.System) actor.Fate {
			self.wakes = append(self.wakes, msg.Instant)
			return actor.Live
		})
	actor.Register[sleeperActor, Tick](sys, sleeperType, tickMsg, false,
		func(msg Tick, self *sleeperActor, _ *actor.System) actor.Fate {
			self.ticks = append(self.ticks, msg)
			return actor.Live
		})
	actor.RegisterTrait(sys, TemporalTrait, sleeperType, tickMsg)

	aid := sw.Spawn(sleeperActor{})
	c := New(wakeMsg)
	return sys, sw, c, aid
}

func TestWakeUpInFiresAtScheduledInstant(t *testing.T) {
	sys, sw, c, aid := setup(t)
	c.WakeUpIn(Seconds(5), aid)

	c.Advance(sys, Seconds(4))
	sys.ProcessAllMessages()
	state, _ := sw.At(aid)
	require.Empty(t, state.wakes, "must not fire before its scheduled instant")

	c.Advance(sys, Seconds(1))
	sys.ProcessAllMessages()
	state, _ = sw.At(aid)
	require.Equal(t, []Instant{5}, state.wakes)
}

func TestAdvanceBroadcastsTickToEveryTemporalActor(t *testing.T) {
	sys, sw, c, aid := setup(t)
	c.Advance(sys, Seconds(1))
	sys.ProcessAllMessages()

	state, _ := sw.At(aid)
	require.Len(t, state.ticks, 1)
	require.Equal(t, Instant(1), state.ticks[0].Instant)
}

func TestWakeHeapOrdersByEarliestInstant(t *testing.T) {
	sys, sw, c, aid := setup(t)
	other := sw.Spawn(sleeperActor{})

	c.WakeUpIn(Seconds(10), aid)
	c.WakeUpIn(Seconds(3), other)

	c.Advance(sys, Seconds(3))
	sys.ProcessAllMessages()

	st1, _ := sw.At(aid)
	st2, _ := sw.At(other)
	require.Empty(t, st1.wakes)
	require.Equal(t, []Instant{3}, st2.wakes)
	require.Equal(t, 1, c.PendingWakes())
}
