package net

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/id"
)

// memLink is an in-memory Link connecting two directly: anything Send
// to it is stored for the other side's Recv to pick up.
type memLink struct {
	mu     sync.Mutex
	queued []Frame
}

func (l *memLink) Send(_ context.Context, f Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queued = append(l.queued, f)
	return nil
}

func (l *memLink) Recv(_ context.Context) ([]Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.queued
	l.queued = nil
	return out, nil
}

type greeting struct{ Text string }

const greetType id.MessageTypeID = 7
const greetActorType id.TypeID = 3

type greetActor struct {
	aid      id.ID
	received []string
}

func (a *greetActor) ActorID() id.ID        { return a.aid }
func (a *greetActor) SetActorID(v id.ID)    { a.aid = v }
func (a *greetActor) DynamicSizeBytes() int { return 0 }
func (a *greetActor) IsStillCompact() bool  { return true }

func TestEncodeDecodePacketRoundTrip(t *testing.T) {
	recipient := id.New(greetActorType, 5, 1, 2)
	pkt := actor.Packet{Recipient: recipient, MessageType: greetType, Payload: greeting{Text: "hi"}}

	frame, err := EncodePacket(pkt)
	require.NoError(t, err)

	factories := map[id.MessageTypeID]PayloadFactory{
		greetType: func() any { return &greeting{} },
	}
	out, err := DecodePacket(frame, 1, factories)
	require.NoError(t, err)
	require.Equal(t, recipient, out.Recipient)
	require.Equal(t, greetType, out.MessageType)
	require.Equal(t, greeting{Text: "hi"}, out.Payload)
}

func TestPeerExchangeDeliversRemotePacketToReceivingMachine(t *testing.T) {
	sysA := actor.NewSystem(0, zap.NewNop().Sugar())
	sysB := actor.NewSystem(1, zap.NewNop().Sugar())

	swA := actor.RegisterSwarm[greetActor](sysA, greetActorType, 8)
	_ = swA
	swB := actor.RegisterSwarm[greetActor](sysB, greetActorType, 8)
	bID := swB.Spawn(greetActor{})

	actor.Register[greetActor, greeting](sysB, greetActorType, greetType, false,
		func(msg greeting, self *greetActor, _ *actor.System) actor.Fate {
			self.received = append(self.received, msg.Text)
			return actor.Live
		})

	peerA := NewPeer(0, sysA, nil)
	peerB := NewPeer(1, sysB, nil)
	peerB.RegisterPayload(greetType, func() any { return &greeting{} })

	linkAtoB := &memLink{}
	linkBtoA := &memLink{}
	peerA.AddPeer(1, &pairedLink{send: linkAtoB, recv: linkBtoA})
	peerB.AddPeer(0, &pairedLink{send: linkBtoA, recv: linkAtoB})

	sysA.Send(actor.Packet{Recipient: bID, MessageType: greetType, Payload: greeting{Text: "hello"}})

	require.NoError(t, peerA.Exchange(context.Background()))
	require.NoError(t, peerB.Exchange(context.Background()))
	sysB.ProcessAllMessages()

	state, ok := swB.At(bID)
	require.True(t, ok)
	require.Equal(t, []string{"hello"}, state.received)
}

// pairedLink lets two memLinks act as one Link: Send writes to one
// queue, Recv drains the other.
type pairedLink struct {
	send *memLink
	recv *memLink
}

func (p *pairedLink) Send(ctx context.Context, f Frame) error { return p.send.Send(ctx, f) }
func (p *pairedLink) Recv(ctx context.Context) ([]Frame, error) { return p.recv.Recv(ctx) }

func TestFinishTurnReadyOnlyWhenEveryPeerCaughtUp(t *testing.T) {
	sys := actor.NewSystem(0, zap.NewNop().Sugar())
	p := NewPeer(0, sys, nil)
	p.AddPeer(1, &pairedLink{send: &memLink{}, recv: &memLink{}})

	turn, ready := p.FinishTurn(map[id.MachineID]uint64{1: 0})
	require.Equal(t, uint64(1), turn)
	require.False(t, ready, "peer 1 hasn't reached turn 1 yet")

	turn, ready = p.FinishTurn(map[id.MachineID]uint64{1: 2})
	require.Equal(t, uint64(2), turn)
	require.True(t, ready)
	require.Equal(t, uint64(2), p.MinPeerTurn())
}
