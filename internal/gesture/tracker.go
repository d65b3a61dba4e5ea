package gesture

import "mindmaster/internal/cue"

// Tracker follows one pointer gesture at a time and classifies it on release.
// A draggable asset that saw any non-zero movement becomes a Drop even when
// the pointer ends where it started.
type Tracker struct {
	active    bool
	assetID   string
	draggable bool
	origin    Point
	last      Point
	delta     Point
	moved     bool
}

func NewTracker() *Tracker { return &Tracker{} }

// Down starts a gesture on assetID whose centre is at center. Picking up a
// draggable asset returns the pop cue.
func (t *Tracker) Down(assetID string, draggable bool, center, pointer Point) cue.Cue {
	*t = Tracker{
		active:    true,
		assetID:   assetID,
		draggable: draggable,
		origin:    center,
		last:      pointer,
	}
	if draggable {
		return cue.Pop
	}
	return cue.None
}

// Move accumulates the pointer delta and reports the live asset centre.
func (t *Tracker) Move(pointer Point) (Point, bool) {
	if !t.active || !t.draggable {
		return Point{}, false
	}
	d := pointer.Sub(t.last)
	t.last = pointer
	if !d.IsZero() {
		t.moved = true
		t.delta = t.delta.Add(d)
	}
	return t.origin.Add(t.delta), true
}

// Up ends the gesture. The release position counts as a final move.
func (t *Tracker) Up(pointer Point, container Rect) (Event, bool) {
	if !t.active {
		return Event{}, false
	}
	if t.draggable {
		t.Move(pointer)
	}
	defer t.Cancel()

	if !t.draggable || !t.moved {
		return ClickOn(t.assetID), true
	}
	pct := container.Percent(t.origin.Add(t.delta))
	return DropAt(t.assetID, pct.X, pct.Y), true
}

func (t *Tracker) Cancel() { *t = Tracker{} }

func (t *Tracker) Active() bool { return t.active }

func (t *Tracker) AssetID() string { return t.assetID }
