package gesture

type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) IsZero() bool      { return p.X == 0 && p.Y == 0 }

// Rect is an axis-aligned box in absolute coordinates (terminal cells for the TUI).
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Percent converts an absolute point into percentages of r.
func (r Rect) Percent(p Point) Point {
	if r.Empty() {
		return Point{}
	}
	return Point{X: (p.X - r.X) / r.W * 100, Y: (p.Y - r.Y) / r.H * 100}
}

// At converts percentages of r into an absolute point.
func (r Rect) At(pct Point) Point {
	return Point{X: r.X + pct.X/100*r.W, Y: r.Y + pct.Y/100*r.H}
}

// Centered returns a w×h box centred on c.
func Centered(c Point, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h}
}
