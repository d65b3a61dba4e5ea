package state

import (
	"context"
	"time"
)

// Store is the lifetime stats journal. Game progress is never restored from it.
type Store interface {
	EnsureSchema(ctx context.Context) error
	StartSession(ctx context.Context, session Session) error
	StartAttempt(ctx context.Context, attempt Attempt) (int64, error)
	RecordGesture(ctx context.Context, attemptID int64, g GestureRecord) error
	RecordHint(ctx context.Context, attemptID int64, h HintRecord) error
	MarkSolved(ctx context.Context, attemptID int64, at time.Time) error
	MarkSkipped(ctx context.Context, attemptID int64) error
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	GetLevelStats(ctx context.Context) (map[int]LevelStats, error)
	Close() error
}

type AttemptReason string

const (
	ReasonEnter   AttemptReason = "enter"
	ReasonRestart AttemptReason = "restart"
	ReasonNext    AttemptReason = "next"
	ReasonSkip    AttemptReason = "skip"
)

type HintKind string

const (
	HintStatic HintKind = "hint"
	HintOracle HintKind = "oracle"
)

type Session struct {
	ID         string
	AppVersion string
	StartTS    time.Time
}

type Attempt struct {
	SessionID string
	LevelID   int
	Reason    AttemptReason
	StartTS   time.Time
}

type GestureRecord struct {
	Kind    string
	AssetID string
	X, Y    float64
	Verdict string
	TS      time.Time
}

type HintRecord struct {
	Kind HintKind
	Cost int
	TS   time.Time
}

type Summary struct {
	Sessions int
	Attempts int
	Solves   int
	Gestures int
	Hints    int
	Oracles  int
	Restarts int
	Skips    int
}

type LevelStats struct {
	LevelID    int
	Attempts   int
	Solves     int
	BestTimeMS int64
}
