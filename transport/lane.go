// Package transport implements the lane network, microtraffic
// simulation, landmark pathfinding, and trip lifecycle described in
// spec.md §4.7-§4.10: the core domain the actor runtime exists to run.
package transport

import (
	"github.com/citybound/citybound/compact"
	"github.com/citybound/citybound/geo"
	"github.com/citybound/citybound/id"
	"github.com/citybound/citybound/set"
)

// Actor type ids for this package's two actor kinds.
const (
	LaneType id.TypeID = 10
	TripType id.TypeID = 11
)

// Message type ids, one per message named in spec.md §4.7-§4.10.
const (
	MsgSpawnAndConnect id.MessageTypeID = iota + 100
	MsgConnect
	MsgConnectReply
	MsgConnectOverlaps
	MsgConnectToSwitch
	MsgUnbuild
	MsgDisconnect
	MsgOnConfirmDisconnect
	MsgAddCar
	MsgAddObstacles
	MsgJoinLandmark
	MsgShareRoutes
	MsgQueryAsDestination
	MsgTellAsDestination
	MsgRetractRoutes
	MsgTripResolved
	MsgTripFinish
	MsgLaneTick
)

// THICKNESS is the endpoint-coincidence tolerance used when connecting
// freshly spawned lanes (spec.md §4.7).
const THICKNESS = 0.001

// InteractionKind tags a directed edge between lanes.
type InteractionKind uint8

const (
	Next InteractionKind = iota
	Previous
	OverlapTransfer
	OverlapParallel
	OverlapConflicting
)

// Interaction is a directed edge between lanes (spec.md §3).
type Interaction struct {
	Kind    InteractionKind
	Partner id.ID
	// At is the arc-length position on THIS lane's path where a
	// Next/Previous connection occurs: the lane's length for Next, 0
	// for Previous. The partner stores its own side on its own
	// Interaction entry.
	At float64
	// OverlapStart/OverlapEnd bound the overlapping subsection of this
	// lane's own path, meaningful only for Overlap* kinds.
	OverlapStart, OverlapEnd float64
}

func (Interaction) DynamicSizeBytes() int { return 0 }
func (Interaction) IsStillCompact() bool  { return true }

// Car is a vehicle or pedestrian on a lane, ordered by descending
// Position (spec.md §3).
type Car struct {
	TripID      id.ID
	Position    float64
	Velocity    float64
	MaxVelocity float64
	Acceleration float64
	Destination Destination
	// NextHop is the index into the lane's Outgoing interaction list
	// the car will take on hand-off; -1 until pathfinding assigns one.
	NextHop int
	// Transverse is a switch lane's [0,1] lane-change progress; unused
	// on normal lanes.
	Transverse float64
}

func (Car) DynamicSizeBytes() int { return 0 }
func (Car) IsStillCompact() bool  { return true }

// byDescendingPosition sorts cars back-to-front along a lane.
type byDescendingPosition []Car

func (c byDescendingPosition) Len() int           { return len(c) }
func (c byDescendingPosition) Less(i, j int) bool { return c[i].Position > c[j].Position }
func (c byDescendingPosition) Swap(i, j int)      { c[i], c[j] = c[j], c[i] }

// Obstacle is a car projected onto a downstream lane for following and
// yielding (spec.md §3).
type Obstacle struct {
	Position    float64
	Velocity    float64
	MaxVelocity float64
}

// Destination identifies a lane as a routing target: a landmark plus
// the outgoing edge index disambiguating two lanes reaching the same
// landmark (spec.md §3).
type Destination struct {
	LandmarkID  id.ID
	OutgoingIdx uint8
	NodeID      id.ID
}

// RouteEntry is one row of a PathfindingInfo.Routes table.
type RouteEntry struct {
	OutgoingIdx uint8
	Distance    float64
}

// PathfindingInfo is the per-lane routing state gossip maintains
// (spec.md §3).
type PathfindingInfo struct {
	AsDestination           compact.COption[Destination]
	HopsFromLandmark        uint8
	IncomingIdxFromLandmark uint8
	Routes                  compact.CDict[Destination, RouteEntry]
}

func newPathfindingInfo() PathfindingInfo {
	return PathfindingInfo{Routes: compact.NewCDict[Destination, RouteEntry](8)}
}

// Lane is one entity of the transport graph (spec.md §3).
type Lane struct {
	aid id.ID

	Path           geo.LinePath
	OnIntersection bool
	// Timings is a repeating binary schedule; Timings[(tick/len)%len]
	// gates entry when OnIntersection is true (spec.md §4.8 step 4).
	Timings []bool

	Outgoing compact.CVec[Interaction]
	Incoming compact.CVec[Interaction]

	Cars      compact.CVec[Car]
	Obstacles compact.CDict[int, Obstacle] // keyed by the sending interaction's index in Incoming

	PathInfo PathfindingInfo

	IsSwitch bool
	// seenLandmarks guards a switch lane's relay in handleJoinLandmark
	// against re-flooding the same landmark through a cycle of switches;
	// unused on normal lanes.
	seenLandmarks set.Set[id.ID]
	tickCount     uint64

	// unbuilding tracks outstanding disconnect confirmations while
	// this lane is tearing itself down (spec.md §4.7 unbuild).
	unbuilding       bool
	unbuildReportTo  id.ID
	pendingDisconnect int
}

func (l *Lane) ActorID() id.ID     { return l.aid }
func (l *Lane) SetActorID(v id.ID) { l.aid = v }

func (l *Lane) DynamicSizeBytes() int {
	return l.Outgoing.DynamicSizeBytes() + l.Incoming.DynamicSizeBytes() +
		l.Cars.DynamicSizeBytes() + l.Obstacles.DynamicSizeBytes() +
		l.PathInfo.Routes.DynamicSizeBytes()
}

func (l *Lane) IsStillCompact() bool {
	return l.Outgoing.IsStillCompact() && l.Incoming.IsStillCompact() &&
		l.Cars.IsStillCompact() && l.Obstacles.IsStillCompact() &&
		l.PathInfo.Routes.IsStillCompact()
}

// NewLane constructs an unconnected lane ready to be spawned.
func NewLane(path geo.LinePath, onIntersection bool, timings []bool) Lane {
	return Lane{
		Path:           path,
		OnIntersection: onIntersection,
		Timings:        timings,
		Outgoing:       compact.NewCVec[Interaction](4),
		Incoming:       compact.NewCVec[Interaction](4),
		Cars:           compact.NewCVec[Car](8),
		Obstacles:      compact.NewCDict[int, Obstacle](4),
		PathInfo:       newPathfindingInfo(),
	}
}

// NewSwitchLane constructs a switch lane mediating lane changes
// between two adjacent normal lanes (spec.md §4.8).
func NewSwitchLane(path geo.LinePath) Lane {
	l := NewLane(path, false, nil)
	l.IsSwitch = true
	l.seenLandmarks = set.Of[id.ID]()
	return l
}

// gated reports whether, at the current tick, this lane's entry is
// closed to traffic (spec.md §4.8 step 4: "multiply the effective
// acceleration by 0 ... whenever the relevant bit of timings[...] is
// false for the connecting lane"). Only meaningful when OnIntersection
// is set; non-intersection lanes are never gated.
func (l *Lane) gated() bool {
	if !l.OnIntersection || len(l.Timings) == 0 {
		return false
	}
	phase := (l.tickCount / uint64(len(l.Timings))) % uint64(len(l.Timings))
	return !l.Timings[phase]
}
