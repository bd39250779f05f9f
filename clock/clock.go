// Package clock implements the Time actor described in spec.md §4.6:
// a single owner of simulated time offering two services, Sleeper
// (one-shot wake-ups) and Temporal (every-tick broadcasts). Instants
// and durations are integer tick counts; conversions to simulated
// seconds/minutes/hours are fixed-constant multiplications.
package clock

import (
	"container/heap"

	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/id"
)

// Instant is an integer simulated tick count.
type Instant uint64

// Duration is an integer number of simulated ticks.
type Duration uint64

// Fixed conversions between simulated time units and tick counts,
// grounded on spec.md §4.6's "fixed constants" note. One tick models
// one simulated second at the default simulation rate.
const (
	TicksPerSecond Duration = 1
	TicksPerMinute          = 60 * TicksPerSecond
	TicksPerHour            = 60 * TicksPerMinute
)

func Seconds(n uint64) Duration { return Duration(n) * TicksPerSecond }
func Minutes(n uint64) Duration { return Duration(n) * TicksPerMinute }
func Hours(n uint64) Duration   { return Duration(n) * TicksPerHour }

// Wake is delivered point-to-point from the Time actor to a sleeper
// that asked to be woken at or after a given instant.
type Wake struct {
	Instant Instant
}

// Tick is broadcast every simulated tick to every registered Temporal
// implementor.
type Tick struct {
	DT      Duration
	Instant Instant
}

// TemporalTrait is the trait id Temporal implementors register under
// so the Time actor can broadcast Tick without knowing concrete actor
// types (spec.md Design Note 2).
const TemporalTrait id.TraitID = 1

// wakeRequest is one entry in the sleeper min-heap.
type wakeRequest struct {
	at     Instant
	target id.ID
	seq    uint64 // tie-break to keep heap.Push/Pop stable for equal instants
}

type wakeHeap []wakeRequest

func (h wakeHeap) Len() int { return len(h) }
func (h wakeHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h wakeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *wakeHeap) Push(x any)        { *h = append(*h, x.(wakeRequest)) }
func (h *wakeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Clock owns simulated time: a min-heap of pending wake-ups ordered by
// scheduled instant, and the current Instant. It is driven externally
// by one call to Advance per outer loop iteration (spec.md §2's
// control flow: "simulation time advances only when the tick actor
// broadcasts a tick message").
type Clock struct {
	now    Instant
	wakes  wakeHeap
	seqGen uint64

	wakeMsgType id.MessageTypeID
}

// New constructs a Clock that will deliver Wake messages tagged
// wakeMsgType. Tick is delivered via SendToTrait, so its message type
// is whatever each Temporal implementor registered under TemporalTrait.
func New(wakeMsgType id.MessageTypeID) *Clock {
	return &Clock{wakeMsgType: wakeMsgType}
}

// Now returns the current simulated instant.
func (c *Clock) Now() Instant { return c.now }

// WakeUpIn schedules target to receive Wake{instant: now+d} once the
// clock reaches that instant (spec.md §4.6 Sleeper service).
func (c *Clock) WakeUpIn(d Duration, target id.ID) {
	c.seqGen++
	heap.Push(&c.wakes, wakeRequest{at: c.now + Instant(d), target: target, seq: c.seqGen})
}

// Advance moves simulated time forward by dt, broadcasts Tick to every
// Temporal implementor, and delivers Wake to every sleeper whose
// scheduled instant has arrived.
func (c *Clock) Advance(sys *actor.System, dt Duration) {
	c.now += Instant(dt)

	for c.wakes.Len() > 0 && c.wakes[0].at <= c.now {
		req := heap.Pop(&c.wakes).(wakeRequest)
		sys.Send(actor.Packet{
			Recipient:   req.target,
			MessageType: c.wakeMsgType,
			Payload:     Wake{Instant: req.at},
		})
	}

	sys.SendToTrait(TemporalTrait, Tick{DT: dt, Instant: c.now})
}

// PendingWakes reports how many sleepers are still waiting, for tests
// and metrics.
func (c *Clock) PendingWakes() int { return c.wakes.Len() }
