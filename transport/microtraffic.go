package transport

import (
	"math"
	"sort"

	"github.com/citybound/citybound/actor"
	"github.com/citybound/citybound/clock"
	"github.com/citybound/citybound/compact"
	"github.com/citybound/citybound/config"
	"github.com/citybound/citybound/id"
)

// AddCarMsg hands a car off to the next lane (spec.md §4.8 step 6).
type AddCarMsg struct {
	Car     Car
	From    id.ID
	Instant clock.Instant
}

// AddObstaclesMsg propagates cars projected onto a downstream lane's
// coordinate system for following and yielding (spec.md §4.8 step 7).
type AddObstaclesMsg struct {
	Obstacles []Obstacle
	From      int // the sending lane's index in the receiver's Incoming list
}

func handleAddCar(msg AddCarMsg, self *Lane, sys *actor.System) actor.Fate {
	car := msg.Car
	if car.Position < 0 {
		car.Position = 0
	}
	self.Cars.Push(car)

	// Arrival: a car's Destination names the lane it should stop on
	// (spec.md §3 Destination.node_id). Reaching that lane finishes
	// its trip with Success (spec.md §4.10).
	if car.Destination.NodeID == self.ActorID() {
		if tripSw := actor.SwarmOf[Trip](sys, TripType); tripSw != nil {
			Finish(sys, tripSw, car.TripID, Success)
		}
	}
	return actor.Live
}

// handleAddObstacles keeps, per sending partner, only the nearest
// obstacle (spec.md §4.8 step 7): Obstacles holds one slot per
// Incoming index, so a partner reporting several cars in one message
// collapses to whichever is closest to entering this lane — the only
// one that can actually be this lane's next leader.
func handleAddObstacles(msg AddObstaclesMsg, self *Lane, _ *actor.System) actor.Fate {
	if len(msg.Obstacles) == 0 {
		self.Obstacles.Remove(msg.From)
		return actor.Live
	}
	nearest := msg.Obstacles[0]
	for _, o := range msg.Obstacles[1:] {
		if o.Position > nearest.Position {
			nearest = o
		}
	}
	self.Obstacles.Insert(msg.From, nearest)
	return actor.Live
}

// RegisterMicrotraffic wires the Tick handler driving every lane's
// per-tick car-following, hand-off, and obstacle propagation, plus the
// pathfinding election/flood/gossip steps that piggyback on the same
// tick (spec.md §4.8, §4.9). cfg supplies the IDM constants.
func RegisterMicrotraffic(sys *actor.System, cfg *config.Config) {
	actor.Register[Lane, clock.Tick](sys, LaneType, MsgLaneTick, false,
		func(msg clock.Tick, self *Lane, sys *actor.System) actor.Fate {
			return RunTick(msg, self, sys, cfg)
		})
	actor.RegisterTrait(sys, clock.TemporalTrait, LaneType, MsgLaneTick)
}

// frontEntry is anything a car might have to follow: another car on
// this lane, or an obstacle reported by an Incoming partner.
type frontEntry struct {
	Position    float64
	Velocity    float64
	MaxVelocity float64
}

// idmAcceleration implements the intelligent-driver-model formula from
// spec.md §4.8 step 3.
func idmAcceleration(idm config.IDM, v, gap, leadV float64) float64 {
	if gap <= 0 {
		gap = 1e-3
	}
	desiredGap := idm.S0 + v*idm.T + v*(v-leadV)/(2*math.Sqrt(idm.A*idm.B))
	if desiredGap < 0 {
		desiredGap = 0
	}
	return idm.A * (1 - math.Pow(v/idm.V0, 4) - math.Pow(desiredGap/gap, 2))
}

// RunTick advances one lane's microtraffic and pathfinding state by dt,
// registered as this module's Temporal-trait handler (spec.md §4.8,
// §4.9). sys must be the *actor.System that owns the Lane swarm so
// handoffs and gossip can reach neighbor lanes.
func RunTick(msg clock.Tick, self *Lane, sys *actor.System, cfg *config.Config) actor.Fate {
	self.tickCount++
	idm := cfg.InteriorIDM
	if self.OnIntersection {
		idm = cfg.IntersectionIDM
	}

	cars := self.Cars.Slice()
	sort.Sort(byDescendingPosition(cars))

	// merge this lane's own cars with every obstacle reported by an
	// Incoming partner into one "things in front" list (spec.md §4.8
	// steps 1-2): a car's true leader is whichever entry is nearest
	// ahead of it, car or obstacle.
	var fronts []frontEntry
	self.Obstacles.Range(func(_ int, o Obstacle) bool {
		fronts = append(fronts, frontEntry{Position: o.Position, Velocity: o.Velocity, MaxVelocity: o.MaxVelocity})
		return true
	})
	sort.Slice(fronts, func(i, j int) bool { return fronts[i].Position > fronts[j].Position })

	n := len(cars)
	var handedOff []int
	for i := 0; i < n; i++ {
		car := &cars[i]
		leadPos := self.Path.Length()
		leadV := idm.V0
		if i > 0 {
			leadPos = cars[i-1].Position
			leadV = cars[i-1].Velocity
		}
		for _, f := range fronts {
			if f.Position > car.Position && f.Position < leadPos {
				leadPos, leadV = f.Position, f.Velocity
			}
		}
		gap := leadPos - car.Position

		// a car's own desired speed caps both the IDM target velocity
		// and its post-acceleration clamp (spec.md §4.8 step 3); the
		// lane's idm.V0 only applies when the car carries no cap of its
		// own.
		v0 := idm.V0
		if car.MaxVelocity > 0 && car.MaxVelocity < v0 {
			v0 = car.MaxVelocity
		}
		effIDM := idm
		effIDM.V0 = v0

		gatedStop := self.gated()
		accel := idmAcceleration(effIDM, car.Velocity, gap, leadV)
		if gatedStop {
			accel = 0
			if car.Velocity > 0 {
				accel = -idm.B
			}
		}
		car.Acceleration = accel
		car.Velocity += accel * float64(msg.DT)
		if car.Velocity < 0 {
			car.Velocity = 0
		}
		if car.Velocity > v0 {
			car.Velocity = v0
		}
		car.Position += car.Velocity * float64(msg.DT)

		if car.Position > self.Path.Length() {
			handedOff = append(handedOff, i)
		}
	}

	// hand off cars past the end, highest index first so earlier
	// indices remain valid while we remove.
	for j := len(handedOff) - 1; j >= 0; j-- {
		i := handedOff[j]
		car := cars[i]
		cars = append(cars[:i], cars[i+1:]...)
		handOffCar(self, sys, car)
	}

	self.Cars = compact.OfCVec(cars...)

	propagateObstacles(self, sys)
	electLandmarkIfEligible(self, cfg)
	floodLandmark(self, sys)
	gossipRoutes(self, sys)

	return actor.Live
}

func handOffCar(self *Lane, sys *actor.System, car Car) {
	if self.Outgoing.Len() == 0 {
		return // no partner: car is simply dropped, matching "unreachable lane" semantics
	}
	idx := car.NextHop
	if idx < 0 || idx >= self.Outgoing.Len() {
		idx = 0
	}
	next := self.Outgoing.At(idx)
	if next.Kind != Next {
		return
	}
	car.Position -= self.Path.Length()
	sys.Send(actor.Packet{
		Recipient:   next.Partner,
		MessageType: MsgAddCar,
		Payload:     AddCarMsg{Car: car, From: self.ActorID()},
	})
}

func propagateObstacles(self *Lane, sys *actor.System) {
	cars := self.Cars.Slice()
	for i := 0; i < self.Outgoing.Len(); i++ {
		inter := self.Outgoing.At(i)
		if inter.Kind != Next && inter.Kind != OverlapParallel && inter.Kind != OverlapConflicting {
			continue
		}
		obstacles := make([]Obstacle, 0, len(cars))
		for _, c := range cars {
			pos := c.Position
			if inter.Kind == Next {
				pos -= self.Path.Length()
			}
			obstacles = append(obstacles, Obstacle{Position: pos, Velocity: c.Velocity, MaxVelocity: c.MaxVelocity})
		}
		if len(obstacles) == 0 {
			continue
		}
		sys.Send(actor.Packet{
			Recipient:   inter.Partner,
			MessageType: MsgAddObstacles,
			Payload:     AddObstaclesMsg{Obstacles: obstacles, From: i},
		})
	}
}
