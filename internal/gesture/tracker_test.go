package gesture

import (
	"math"
	"testing"

	"mindmaster/internal/cue"
)

var box = Rect{X: 0, Y: 0, W: 200, H: 100}

func TestNonDraggableAlwaysClicks(t *testing.T) {
	tr := NewTracker()
	if c := tr.Down("s2", false, Point{100, 70}, Point{100, 70}); c != cue.None {
		t.Fatalf("expected no pickup cue, got %q", c)
	}
	if _, ok := tr.Move(Point{150, 90}); ok {
		t.Fatalf("expected static asset to ignore movement")
	}
	ev, ok := tr.Up(Point{150, 90}, box)
	if !ok || ev.Kind != Click || ev.AssetID != "s2" {
		t.Fatalf("expected click on s2, got %+v ok=%v", ev, ok)
	}
}

func TestDraggableWithoutMovementClicks(t *testing.T) {
	tr := NewTracker()
	if c := tr.Down("c3", true, Point{160, 50}, Point{160, 50}); c != cue.Pop {
		t.Fatalf("expected pop on pickup, got %q", c)
	}
	ev, ok := tr.Up(Point{160, 50}, box)
	if !ok || ev.Kind != Click {
		t.Fatalf("expected click, got %+v", ev)
	}
	if tr.Active() {
		t.Fatalf("expected tracker to reset after up")
	}
}

func TestDraggableDropReportsCenterPercent(t *testing.T) {
	tr := NewTracker()
	// head centre at (100,20) in a 200x100 box, pointer grabbed it off-centre
	tr.Down("head", true, Point{100, 20}, Point{104, 22})
	tr.Move(Point{104, 40})
	center, ok := tr.Move(Point{110, 62})
	if !ok || center != (Point{106, 60}) {
		t.Fatalf("expected live centre (106,60), got %+v", center)
	}
	ev, ok := tr.Up(Point{110, 62}, box)
	if !ok || ev.Kind != Drop {
		t.Fatalf("expected drop, got %+v", ev)
	}
	if math.Abs(ev.X-53) > 1e-9 || math.Abs(ev.Y-60) > 1e-9 {
		t.Fatalf("expected (53,60), got (%v,%v)", ev.X, ev.Y)
	}
}

func TestBackAndForthStillDrops(t *testing.T) {
	tr := NewTracker()
	tr.Down("glass2", true, Point{100, 50}, Point{100, 50})
	tr.Move(Point{120, 50})
	tr.Move(Point{100, 50})
	ev, ok := tr.Up(Point{100, 50}, box)
	if !ok || ev.Kind != Drop {
		t.Fatalf("expected zero-delta drop, got %+v", ev)
	}
	if ev.X != 50 || ev.Y != 50 {
		t.Fatalf("expected drop at start (50,50), got (%v,%v)", ev.X, ev.Y)
	}
}

func TestReleaseMovementCountsAsMove(t *testing.T) {
	tr := NewTracker()
	tr.Down("sun", true, Point{170, 15}, Point{170, 15})
	ev, _ := tr.Up(Point{195, 5}, box)
	if ev.Kind != Drop {
		t.Fatalf("expected drop when release position differs, got %+v", ev)
	}
}

func TestUpWithoutDownIsIgnored(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.Up(Point{1, 1}, box); ok {
		t.Fatalf("expected no event without an active gesture")
	}
}

func TestRectPercentRoundTrip(t *testing.T) {
	r := Rect{X: 10, Y: 5, W: 80, H: 20}
	p := r.At(Point{25, 50})
	if p != (Point{30, 15}) {
		t.Fatalf("expected (30,15), got %+v", p)
	}
	if got := r.Percent(p); got != (Point{25, 50}) {
		t.Fatalf("expected (25,50), got %+v", got)
	}
	if !r.Contains(Point{10, 5}) || r.Contains(Point{90, 5}) {
		t.Fatalf("unexpected containment result")
	}
}
