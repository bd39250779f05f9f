package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citybound/citybound/id"
)

const (
	testActorType id.TypeID = 1
	pingMsg       id.MessageTypeID = 1
)

type pingMsgBody struct{ n int }

func TestRegisterAndDispatchInstance(t *testing.T) {
	sys := NewSystem(0, zap.NewNop().Sugar())
	sw := RegisterSwarm[testActor](sys, testActorType, 8)
	aid := sw.Spawn(testActor{})

	var received []int
	Register[testActor, pingMsgBody](sys, testActorType, pingMsg, false,
		func(msg pingMsgBody, self *testActor, sys *System) Fate {
			received = append(received, msg.n)
			return Live
		})

	sys.Send(Packet{Recipient: aid, MessageType: pingMsg, Payload: pingMsgBody{1}})
	sys.Send(Packet{Recipient: aid, MessageType: pingMsg, Payload: pingMsgBody{2}})
	sys.ProcessAllMessages()

	require.Equal(t, []int{1, 2}, received, "per-(sender,receiver) FIFO must hold")
}

// TestStaleVersionSendIsDropped is end-to-end scenario 6 from spec.md
// §8: allocate id I, delete it, allocate a new instance reusing I with
// a bumped version, then send to the original I. The packet must be
// dropped and the new instance left unaffected.
func TestStaleVersionSendIsDropped(t *testing.T) {
	sys := NewSystem(0, zap.NewNop().Sugar())
	sw := RegisterSwarm[testActor](sys, testActorType, 8)

	var received []int
	Register[testActor, pingMsgBody](sys, testActorType, pingMsg, false,
		func(msg pingMsgBody, self *testActor, sys *System) Fate {
			received = append(received, msg.n)
			return Live
		})

	staleID := sw.Spawn(testActor{})
	sw.remove(staleID)
	newID := sw.Spawn(testActor{})
	require.Equal(t, staleID.Instance, newID.Instance)
	require.NotEqual(t, staleID.VersionTag, newID.VersionTag)

	sys.Send(Packet{Recipient: staleID, MessageType: pingMsg, Payload: pingMsgBody{99}})
	sys.ProcessAllMessages()

	require.Empty(t, received, "packet addressed to the stale version must be dropped")

	sys.Send(Packet{Recipient: newID, MessageType: pingMsg, Payload: pingMsgBody{1}})
	sys.ProcessAllMessages()
	require.Equal(t, []int{1}, received, "the new instance must still be reachable")
}

func TestBroadcastDispatchReachesEveryInstance(t *testing.T) {
	sys := NewSystem(0, zap.NewNop().Sugar())
	sw := RegisterSwarm[testActor](sys, testActorType, 8)
	for i := 0; i < 3; i++ {
		sw.Spawn(testActor{})
	}

	count := 0
	Register[testActor, pingMsgBody](sys, testActorType, pingMsg, false,
		func(msg pingMsgBody, self *testActor, sys *System) Fate {
			count++
			return Live
		})

	sys.Send(Packet{Recipient: id.LocalBroadcastID(testActorType, 0), MessageType: pingMsg, Payload: pingMsgBody{}})
	sys.ProcessAllMessages()
	require.Equal(t, 3, count)
}

func TestPanicSwitchesToPanickedModeAndOnlyCriticalHandlersRun(t *testing.T) {
	sys := NewSystem(0, zap.NewNop().Sugar())
	sw := RegisterSwarm[testActor](sys, testActorType, 8)
	aid := sw.Spawn(testActor{})

	var criticalRan, normalRan bool
	const panicMsg id.MessageTypeID = 2
	const criticalMsg id.MessageTypeID = 3

	Register[testActor, pingMsgBody](sys, testActorType, panicMsg, false,
		func(msg pingMsgBody, self *testActor, sys *System) Fate {
			panic("boom")
		})
	Register[testActor, pingMsgBody](sys, testActorType, criticalMsg, true,
		func(msg pingMsgBody, self *testActor, sys *System) Fate {
			criticalRan = true
			return Live
		})
	Register[testActor, pingMsgBody](sys, testActorType, pingMsg, false,
		func(msg pingMsgBody, self *testActor, sys *System) Fate {
			normalRan = true
			return Live
		})

	var recovered any
	sys.OnPanic(func(r any) { recovered = r })

	sys.Send(Packet{Recipient: aid, MessageType: panicMsg, Payload: pingMsgBody{}})
	sys.ProcessAllMessages()
	require.True(t, sys.Panicked())
	require.Equal(t, "boom", recovered)

	sys.Send(Packet{Recipient: aid, MessageType: pingMsg, Payload: pingMsgBody{}})
	sys.Send(Packet{Recipient: aid, MessageType: criticalMsg, Payload: pingMsgBody{}})
	sys.ProcessAllMessages()

	require.False(t, normalRan, "non-critical handlers must not run once panicked")
	require.True(t, criticalRan, "critical handlers keep running once panicked")
}

func TestSendToTraitFansOutToRegisteredTypes(t *testing.T) {
	sys := NewSystem(0, zap.NewNop().Sugar())
	sw := RegisterSwarm[testActor](sys, testActorType, 8)
	sw.Spawn(testActor{})
	sw.Spawn(testActor{})

	const tickTrait id.TraitID = 1
	var ticks int
	Register[testActor, pingMsgBody](sys, testActorType, pingMsg, false,
		func(msg pingMsgBody, self *testActor, sys *System) Fate {
			ticks++
			return Live
		})
	RegisterTrait(sys, tickTrait, testActorType, pingMsg)

	sys.SendToTrait(tickTrait, pingMsgBody{})
	sys.ProcessAllMessages()
	require.Equal(t, 2, ticks)
}
