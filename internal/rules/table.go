package rules

import (
	"mindmaster/internal/cue"
	"mindmaster/internal/gesture"
	"mindmaster/internal/levels"
)

func registerBuiltinRules(reg map[int]rule) {
	reg[1] = rule{drop: dropHeadDown}
	reg[2] = rule{init: func() Scratch { return GlassState{} }, drop: dropShakeGlass}
	reg[5] = rule{init: func() Scratch { return LightState{} }, drop: dropSunOff(true)}
	reg[6] = rule{init: func() Scratch { return CatState{} }, click: clickCat, drop: dropShakeCat}
	reg[7] = rule{drop: dropTwoTogether}
	reg[8] = rule{drop: dropCandyBetween}
	reg[9] = rule{init: func() Scratch { return ClockState{} }, drop: dropClockHand}
	reg[10] = rule{init: func() Scratch { return LightState{} }, click: clickGhost, drop: dropSunOff(false)}
	reg[11] = rule{init: func() Scratch { return CoverState{} }, drop: dropUncover("1", 60, 50, 10)}
	reg[13] = rule{init: func() Scratch { return EggState{} }, click: clickEgg}
	reg[14] = rule{init: func() Scratch { return PillowState{} }, drop: dropPillow}
	reg[15] = rule{drop: dropCoinInBox}
	reg[16] = rule{init: func() Scratch { return HammerState{} }, drop: dropHammer}
	reg[17] = rule{init: func() Scratch { return CoverState{} }, drop: dropUncover("50", 70, 50, 10)}
	reg[20] = rule{init: func() Scratch { return HatState{} }, click: clickLiar, drop: dropHat}
	// levels 3, 4, 12, 18 and 19 are fully served by the default rule
}

func dropHeadDown(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	if a.ID == "head" && ev.Y > 50 {
		return step{data: data, verdict: Solved}
	}
	return step{data: data}
}

func dropShakeGlass(_ levels.Level, a levels.Asset, _ gesture.Event, data Scratch) step {
	if a.ID != "glass2" {
		return step{data: data}
	}
	st, _ := data.(GlassState)
	st.Shakes++
	if st.Shakes > 3 {
		st.Empty = true
		return step{data: st, verdict: SolvedAfterDelay, cues: []cue.Cue{cue.Pop}}
	}
	return step{data: st, cues: []cue.Cue{cue.Pop}}
}

func dropSunOff(solves bool) handlerFunc {
	return func(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
		if a.ID != "sun" || !inEdgeBand(ev) {
			return step{data: data}
		}
		st := LightState{Dark: true}
		if solves {
			return step{data: st, verdict: Solved}
		}
		return step{data: st}
	}
}

func clickGhost(_ levels.Level, a levels.Asset, _ gesture.Event, data Scratch) step {
	st, _ := data.(LightState)
	if a.ID == "ghost" && st.Dark {
		return step{data: data, verdict: Solved}
	}
	return step{data: data}
}

// Clicks only count once some cat has been shaken by a drag.
func clickCat(lvl levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	st, _ := data.(CatState)
	next := st.with(a.ID, "")
	if len(st.Shaken) == 0 {
		return step{data: next}
	}
	return defaultClick(lvl, a, ev, next)
}

func dropShakeCat(_ levels.Level, a levels.Asset, _ gesture.Event, data Scratch) step {
	st, _ := data.(CatState)
	if st.Shaken[a.ID] {
		return step{data: data}
	}
	return step{data: st.with("", a.ID)}
}

func dropTwoTogether(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	if (a.ID == "2a" || a.ID == "2b") && within(ev, 30, 70, 40, 60) {
		return step{data: data, verdict: Solved}
	}
	return step{data: data}
}

func dropCandyBetween(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	if a.ID == "candy" && within(ev, 30, 70, 40, 80) {
		return step{data: data, verdict: Solved}
	}
	return step{data: data}
}

func dropClockHand(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	if a.ID != "min" && a.ID != "hour" {
		return step{data: data}
	}
	if !near(ev, 50, 50, TargetTolerance) {
		return step{data: data}
	}
	st, _ := data.(ClockState)
	if a.ID == "min" {
		st.Minute = true
	} else {
		st.Hour = true
	}
	if st.Parts() >= 2 {
		return step{data: st, verdict: Solved, cues: []cue.Cue{cue.Pop}}
	}
	return step{data: st, cues: []cue.Cue{cue.Pop}}
}

func dropUncover(coverID string, x, y, tol float64) handlerFunc {
	return func(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
		if a.ID == coverID && awayFrom(ev, x, y, tol) {
			return step{data: CoverState{Revealed: true}}
		}
		return step{data: data}
	}
}

func clickEgg(_ levels.Level, a levels.Asset, _ gesture.Event, data Scratch) step {
	st, _ := data.(EggState)
	switch a.ID {
	case "e1", "e2":
		if st.Broken[a.ID] {
			return step{data: data}
		}
		return step{data: st.with(a.ID)}
	case "e3":
		return step{data: data, verdict: Solved}
	}
	return step{data: data}
}

func dropPillow(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	if a.ID == "pillow" && awayFrom(ev, 50, 60, 20) {
		return step{data: PillowState{Woke: true}, verdict: SolvedAfterDelay}
	}
	return step{data: data}
}

func dropCoinInBox(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	if a.ID == "fake_coin" && near(ev, 50, 60, TargetTolerance) {
		return step{data: data, verdict: Solved}
	}
	return step{data: data}
}

// The rock only breaks under a hammer that was heated by an earlier drop.
func dropHammer(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	if a.ID != "hammer" {
		return step{data: data}
	}
	st, _ := data.(HammerState)
	wasHeated := st.Heated
	var cues []cue.Cue
	if near(ev, 80, 70, TargetTolerance) {
		st.Heated = true
		cues = append(cues, cue.Pop)
	}
	if near(ev, 50, 40, TargetTolerance) && wasHeated {
		return step{data: st, verdict: Solved, cues: cues}
	}
	return step{data: st, cues: cues}
}

func dropHat(_ levels.Level, a levels.Asset, ev gesture.Event, data Scratch) step {
	if a.ID == "hat" && awayFrom(ev, 70, 55, 10) {
		return step{data: HatState{Removed: true}}
	}
	return step{data: data}
}

func clickLiar(_ levels.Level, a levels.Asset, _ gesture.Event, data Scratch) step {
	st, _ := data.(HatState)
	if a.ID == "p2" && st.Removed {
		return step{data: data, verdict: Solved}
	}
	return step{data: data}
}
