package game

import (
	"context"
	"time"

	"mindmaster/internal/gesture"
	"mindmaster/internal/rules"
)

// Game is the surface the controller and dev tooling drive.
type Game interface {
	Resume() Snapshot
	Enter(levelID int) error
	Restart()
	Next() (gameComplete bool)
	Skip() (gameComplete bool)
	Apply(ev gesture.Event) rules.Outcome
	BuyHint() error
	AskOracle(ctx context.Context) error
	CloseHint()
	CloseOracle()
	SetMuted(muted bool)
	Snapshot() Snapshot
	OnChange(fn func(Snapshot))
}

type Timer interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
