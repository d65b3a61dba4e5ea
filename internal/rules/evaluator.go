package rules

import (
	"math"

	"mindmaster/internal/cue"
	"mindmaster/internal/gesture"
	"mindmaster/internal/levels"
)

const (
	// TargetTolerance is the half-width, in percentage points, of the box
	// around a target position that counts as a hit.
	TargetTolerance = 15.0
	edgeBand        = 10.0
)

type step struct {
	data    Scratch
	verdict Verdict
	cues    []cue.Cue
}

type handlerFunc func(lvl levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step

// rule holds the hand-written behaviour for one level. A nil handler means
// the default rule applies to that gesture kind.
type rule struct {
	init  func() Scratch
	click handlerFunc
	drop  handlerFunc
}

type Evaluator struct {
	catalog  levels.Catalog
	registry map[int]rule
}

func NewEvaluator(catalog levels.Catalog) *Evaluator {
	e := &Evaluator{catalog: catalog, registry: map[int]rule{}}
	registerBuiltinRules(e.registry)
	return e
}

func (e *Evaluator) Catalog() levels.Catalog { return e.catalog }

func (e *Evaluator) Initial(levelID int) State {
	r := e.registry[levelID]
	var data Scratch = Blank{}
	if r.init != nil {
		data = r.init()
	}
	return State{LevelID: levelID, Data: data}
}

// Evaluate applies ev to st and returns the next state. It never mutates st.
// Solved states, unknown levels and unknown assets leave the state untouched.
func (e *Evaluator) Evaluate(levelID int, ev gesture.Event, st State) Outcome {
	if st.Solved {
		return Outcome{State: st}
	}
	lvl, ok := e.catalog.Level(levelID)
	if !ok {
		return Outcome{State: st}
	}
	if st.LevelID != levelID || st.Data == nil {
		st = e.Initial(levelID)
	}
	asset, ok := lvl.Asset(ev.AssetID)
	if !ok {
		return Outcome{State: st}
	}

	r := e.registry[levelID]
	var (
		handler handlerFunc
		cues    []cue.Cue
	)
	switch ev.Kind {
	case gesture.Click:
		cues = append(cues, cue.Pop)
		handler = r.click
		if handler == nil {
			handler = defaultClick
		}
	case gesture.Drop:
		handler = r.drop
		if handler == nil {
			handler = defaultDrop
		}
	default:
		return Outcome{State: st}
	}

	res := handler(lvl, asset, ev, st.Data)
	next := st
	if res.data != nil {
		next.Data = res.data
	}
	if res.verdict == Solved {
		next.Solved = true
	}
	return Outcome{State: next, Verdict: res.verdict, Cues: append(cues, res.cues...)}
}

func defaultClick(_ levels.Level, a levels.Asset, _ gesture.Event, data Scratch) step {
	if a.IsCorrect {
		return step{data: data, verdict: Solved}
	}
	return step{data: data}
}

func defaultDrop(lvl levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	if a.TargetID == "" {
		return step{data: data}
	}
	target, ok := lvl.Asset(a.TargetID)
	if !ok {
		return step{data: data}
	}
	if near(ev, target.X, target.Y, TargetTolerance) {
		return step{data: data, verdict: Solved}
	}
	return step{data: data}
}

// near reports whether the drop centre is strictly inside the tol box around (x,y).
func near(ev gesture.Event, x, y, tol float64) bool {
	return math.Abs(ev.X-x) < tol && math.Abs(ev.Y-y) < tol
}

// awayFrom reports whether the drop centre left the tol box around (x,y) on either axis.
func awayFrom(ev gesture.Event, x, y, tol float64) bool {
	return math.Abs(ev.X-x) > tol || math.Abs(ev.Y-y) > tol
}

func inEdgeBand(ev gesture.Event) bool {
	return ev.X < edgeBand || ev.X > 100-edgeBand || ev.Y < edgeBand || ev.Y > 100-edgeBand
}

func within(ev gesture.Event, minX, maxX, minY, maxY float64) bool {
	return ev.X > minX && ev.X < maxX && ev.Y > minY && ev.Y < maxY
}
