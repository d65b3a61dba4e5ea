package rules

import "mindmaster/internal/gesture"

type Engine interface {
	Initial(levelID int) State
	Evaluate(levelID int, ev gesture.Event, st State) Outcome
}
