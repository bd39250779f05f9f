package planning

import "github.com/citybound/citybound/geo"

// Proposal is an editable, undoable stack of plans not yet merged into
// the master plan (spec.md §4.11, Design Note "Planning's inflight
// ongoing step"). Ongoing holds the in-progress edit a caller is
// building up substep by substep; it is never part of UndoableHistory
// until Commit is called.
type Proposal struct {
	UndoableHistory []Plan
	Ongoing         Plan
	RedoableHistory []Plan
}

// NewProposal returns an empty proposal.
func NewProposal() *Proposal {
	return &Proposal{Ongoing: make(Plan)}
}

// Preview merges master with every committed step plus the ongoing
// step, in that order, so later writes win (spec.md §4.11: "a preview
// always merges master + undoable_history + ongoing").
func (p *Proposal) Preview(master Plan) Plan {
	plans := make([]Plan, 0, len(p.UndoableHistory)+2)
	plans = append(plans, master)
	plans = append(plans, p.UndoableHistory...)
	plans = append(plans, p.Ongoing)
	return Merge(plans...)
}

// edit applies fn to a clone of Ongoing, creating it first if absent.
// Every gesture-editing entry point is a thin wrapper around edit so
// each substep only ever touches Ongoing (never UndoableHistory).
func (p *Proposal) edit(fn func(Plan)) {
	if p.Ongoing == nil {
		p.Ongoing = make(Plan)
	}
	fn(p.Ongoing)
}

// currentGesture resolves g as a caller would see it in Preview: the
// Ongoing step if it already touched g, otherwise whatever the
// committed history last left behind. Every editing entry point reads
// through this rather than Ongoing directly, since Commit resets
// Ongoing to empty and a gesture touched before the last Commit would
// otherwise look unwritten to the next edit (spec.md §4.11).
func (p *Proposal) currentGesture(g GestureID) Gesture {
	if gesture, ok := p.Ongoing[g]; ok {
		return gesture
	}
	committed := Merge(p.UndoableHistory...)
	return committed[g]
}

// StartNewGesture begins a gesture with a single control point.
func (p *Proposal) StartNewGesture(g GestureID, start geo.Point) {
	p.edit(func(plan Plan) {
		plan[g] = Gesture{Points: []geo.Point{start}}
	})
}

// AddControlPoint appends a point to the end of an existing gesture's
// stroke.
func (p *Proposal) AddControlPoint(g GestureID, pt geo.Point) {
	gesture := p.currentGesture(g)
	gesture.Points = append(append([]geo.Point(nil), gesture.Points...), pt)
	p.edit(func(plan Plan) { plan[g] = gesture })
}

// InsertControlPoint inserts pt at index i within a gesture's stroke.
func (p *Proposal) InsertControlPoint(g GestureID, i int, pt geo.Point) {
	gesture := p.currentGesture(g)
	pts := append([]geo.Point(nil), gesture.Points...)
	if i < 0 {
		i = 0
	}
	if i > len(pts) {
		i = len(pts)
	}
	pts = append(pts, geo.Point{})
	copy(pts[i+1:], pts[i:])
	pts[i] = pt
	gesture.Points = pts
	p.edit(func(plan Plan) { plan[g] = gesture })
}

// MoveControlPoint relocates the point at index i.
func (p *Proposal) MoveControlPoint(g GestureID, i int, to geo.Point) {
	gesture := p.currentGesture(g)
	if i < 0 || i >= len(gesture.Points) {
		return
	}
	pts := append([]geo.Point(nil), gesture.Points...)
	pts[i] = to
	gesture.Points = pts
	p.edit(func(plan Plan) { plan[g] = gesture })
}

// SetIntent re-types a gesture (e.g. road -> highway) without touching
// its points (spec.md §6, §4.11 supplemented features).
func (p *Proposal) SetIntent(g GestureID, intent Intent) {
	gesture := p.currentGesture(g)
	gesture.Intent = intent
	p.edit(func(plan Plan) { plan[g] = gesture })
}

// SplitGesture cuts gesture g into two gestures at control point index
// i: g keeps points [0, i], into gets points [i, len) with the same
// intent. Splitting an already-built gesture preserves influences on
// downstream prototypes because the original gesture id keeps existing
// as one of the two halves (spec.md §4.11 supplemented features).
func (p *Proposal) SplitGesture(g GestureID, i int, into GestureID) {
	gesture := p.currentGesture(g)
	if i <= 0 || i >= len(gesture.Points) {
		return
	}
	head := append([]geo.Point(nil), gesture.Points[:i+1]...)
	tail := append([]geo.Point(nil), gesture.Points[i:]...)
	p.edit(func(plan Plan) {
		plan[g] = Gesture{Points: head, Intent: gesture.Intent}
		plan[into] = Gesture{Points: tail, Intent: gesture.Intent}
	})
}

// DeleteGesture marks a gesture deleted rather than removing its key,
// so merge's last-write-wins rule can override an earlier plan step
// that recreated it.
func (p *Proposal) DeleteGesture(g GestureID) {
	gesture := p.currentGesture(g)
	gesture.Deleted = true
	p.edit(func(plan Plan) { plan[g] = gesture })
}

// Commit copies Ongoing into UndoableHistory and starts a fresh Ongoing
// step, and clears RedoableHistory since committing invalidates any
// previously undone future (spec.md §9 Design Note 6).
func (p *Proposal) Commit() {
	if len(p.Ongoing) > 0 {
		p.UndoableHistory = append(p.UndoableHistory, p.Ongoing)
	}
	p.Ongoing = make(Plan)
	p.RedoableHistory = nil
}

// Undo discards the in-flight ongoing edit and pops the most recent
// committed step back onto Ongoing, moving it to the redo stack in the
// process (spec.md §8 end-to-end scenario 4: a single undo both drops
// whatever wasn't committed yet and reopens the last commit as the
// live step, so a subsequent Preview still shows it and a subsequent
// edit still builds on it).
func (p *Proposal) Undo() {
	n := len(p.UndoableHistory)
	if n == 0 {
		p.Ongoing = make(Plan)
		return
	}
	last := p.UndoableHistory[n-1]
	p.UndoableHistory = p.UndoableHistory[:n-1]
	p.RedoableHistory = append(p.RedoableHistory, last)
	p.Ongoing = last
}

// Redo re-commits the most recently undone step and clears Ongoing,
// discarding whatever Undo had reopened there.
func (p *Proposal) Redo() {
	n := len(p.RedoableHistory)
	if n == 0 {
		return
	}
	last := p.RedoableHistory[n-1]
	p.RedoableHistory = p.RedoableHistory[:n-1]
	p.UndoableHistory = append(p.UndoableHistory, last)
	p.Ongoing = make(Plan)
}
