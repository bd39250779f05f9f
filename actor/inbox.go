package actor

import "github.com/citybound/citybound/id"

// Packet is one heterogeneous message in flight: a recipient address,
// the message's type id for dispatch-table lookup, and an arbitrary
// payload value (spec.md §4.3).
type Packet struct {
	Recipient   id.ID
	Sender      id.ID
	MessageType id.MessageTypeID
	Payload     any
}

// Inbox is a per-actor-type queue of packets. The whole type shares one
// inbox rather than one per instance — a turn drains it once, which is
// what gives the per-(sender,receiver) FIFO guarantee in spec.md §4.3.
type Inbox struct {
	queue []Packet
}

func (ib *Inbox) Put(p Packet) {
	ib.queue = append(ib.queue, p)
}

// Empty drains the inbox and returns everything that was queued, in
// FIFO order.
func (ib *Inbox) Empty() []Packet {
	if len(ib.queue) == 0 {
		return nil
	}
	out := ib.queue
	ib.queue = nil
	return out
}

func (ib *Inbox) Len() int { return len(ib.queue) }
