package net

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/id"
)

// Link is one peer's transport boundary: send a frame to it, and
// drain whatever frames have arrived from it since the last call. A
// real deployment backs this with a socket; tests back it with an
// in-memory queue (see Link implementations in net_test.go).
type Link interface {
	Send(ctx context.Context, f Frame) error
	Recv(ctx context.Context) ([]Frame, error)
}

// Peer is one machine's participation in the networked lockstep group
// described in spec.md §4.5: it forwards outbound packets to every
// other peer (or the packet's owning peer), delivers inbound packets
// directly into the local ActorSystem, and advances a turn counter.
// FinishTurn does not block: it reports whether every peer has reached
// this peer's turn, and the caller polls until it has.
type Peer struct {
	machine id.MachineID
	sys     *actor.System
	log     *zap.SugaredLogger

	links     map[id.MachineID]Link
	factories map[id.MessageTypeID]PayloadFactory

	outbound   []pendingFrame
	mu         sync.Mutex
	turn       uint64
	peerTurns  map[id.MachineID]uint64
}

type pendingFrame struct {
	to   id.MachineID // meaningful only when !everywhere
	everywhere bool
	frame Frame
}

// NewPeer constructs a Peer for machine, wired to sys so Outbound
// forwards and Deliver injects packets directly.
func NewPeer(machine id.MachineID, sys *actor.System, log *zap.SugaredLogger) *Peer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	p := &Peer{
		machine:   machine,
		sys:       sys,
		log:       log,
		links:     make(map[id.MachineID]Link),
		factories: make(map[id.MessageTypeID]PayloadFactory),
		peerTurns: make(map[id.MachineID]uint64),
	}
	sys.SetNetwork(p)
	return p
}

// AddPeer registers the transport Link used to reach another machine.
func (p *Peer) AddPeer(machine id.MachineID, link Link) {
	p.links[machine] = link
	p.peerTurns[machine] = 0
}

// RegisterPayload lets the wire codec know how to decode an inbound
// message type.
func (p *Peer) RegisterPayload(msgType id.MessageTypeID, factory PayloadFactory) {
	p.factories[msgType] = factory
}

// Outbound implements actor.Networked: System calls this for every
// packet that is not addressed purely to this machine.
func (p *Peer) Outbound(pkt actor.Packet) {
	frame, err := EncodePacket(pkt)
	if err != nil {
		p.log.Errorw("net: failed to encode outbound packet", "err", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if pkt.Recipient.IsGlobalBroadcast() {
		p.outbound = append(p.outbound, pendingFrame{everywhere: true, frame: frame})
	} else {
		p.outbound = append(p.outbound, pendingFrame{to: pkt.Recipient.Machine, frame: frame})
	}
}

// Exchange sends every queued outbound frame to its destination
// peer(s) and drains inbound frames from every peer straight into the
// local ActorSystem, in parallel across peers (spec.md §4.5: "a single
// call exchanges outbound queues for inbound packets with every
// peer"). golang.org/x/sync/errgroup fans this out across the I/O
// boundary only — it never touches actor dispatch, which stays
// single-threaded per §5.
func (p *Peer) Exchange(ctx context.Context) error {
	p.mu.Lock()
	toSend := p.outbound
	p.outbound = nil
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for machine, link := range p.links {
		machine, link := machine, link
		g.Go(func() error {
			for _, pf := range toSend {
				if pf.everywhere || pf.to == machine {
					if err := link.Send(gctx, pf.frame); err != nil {
						return fmt.Errorf("net: send to peer %d: %w", machine, err)
					}
				}
			}
			frames, err := link.Recv(gctx)
			if err != nil {
				return fmt.Errorf("net: recv from peer %d: %w", machine, err)
			}
			for _, f := range frames {
				pkt, err := DecodePacket(f, machine, p.factories)
				if err != nil {
					p.log.Warnw("net: dropping undecodable inbound frame", "peer", machine, "err", err)
					continue
				}
				p.sys.Deliver(pkt)
			}
			return nil
		})
	}
	return g.Wait()
}

// FinishTurn increments this peer's turn counter and reports whether
// every known peer has also reached at least this turn (spec.md
// §4.5's lockstep barrier). Callers poll FinishTurn until it reports
// true before advancing simulated time, so a slow peer bounds the
// whole group's progress.
func (p *Peer) FinishTurn(reportedPeerTurns map[id.MachineID]uint64) (turn uint64, ready bool) {
	p.mu.Lock()
	p.turn++
	turn = p.turn
	p.mu.Unlock()

	for m, t := range reportedPeerTurns {
		p.peerTurns[m] = t
	}

	ready = true
	for _, t := range p.peerTurns {
		if t < turn {
			ready = false
			break
		}
	}
	return turn, ready
}

// Turn returns this peer's current turn counter.
func (p *Peer) Turn() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.turn
}

// MinPeerTurn returns the minimum turn count observed across every
// known peer (including this one), the quantity the testable property
// in spec.md §8 ("after finish_turn, n_turns equals the minimum turn
// count across all peers") asserts against.
func (p *Peer) MinPeerTurn() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	min := p.turn
	for _, t := range p.peerTurns {
		if t < min {
			min = t
		}
	}
	return min
}
