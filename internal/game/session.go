package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mindmaster/internal/cue"
	"mindmaster/internal/gesture"
	"mindmaster/internal/hint"
	"mindmaster/internal/levels"
	"mindmaster/internal/progress"
	"mindmaster/internal/rules"
	"mindmaster/internal/state"
	"mindmaster/internal/telemetry"
)

const DefaultSolveDelay = 500 * time.Millisecond

var (
	ErrNoAttempt  = errors.New("no level in progress")
	ErrOracleBusy = errors.New("oracle request already pending")
)

type Options struct {
	Catalog    levels.Catalog
	Engine     rules.Engine
	Cues       *cue.Bus
	Oracle     *hint.Oracle
	Stats      state.Store
	Logger     telemetry.Logger
	SessionID  string
	SolveDelay time.Duration
	AfterFunc  AfterFunc
	Now        func() time.Time
}

type attempt struct {
	statsID   int64
	level     levels.Level
	state     rules.State
	startedAt time.Time
	timer     Timer

	hintVisible   bool
	oraclePending bool
	oracleText    string
}

// Session owns all mutable game state for one run. Every method is safe for
// concurrent use; observers and cue listeners are called without the lock held.
type Session struct {
	mu sync.Mutex

	catalog    levels.Catalog
	engine     rules.Engine
	cues       *cue.Bus
	oracle     *hint.Oracle
	stats      state.Store
	logger     telemetry.Logger
	sessionID  string
	solveDelay time.Duration
	afterFunc  AfterFunc
	now        func() time.Time

	progress *progress.Tracker
	attempt  *attempt
	epoch    uint64
	complete bool
	onChange func(Snapshot)
}

func NewSession(opts Options) (*Session, error) {
	if opts.Catalog.Len() == 0 {
		return nil, fmt.Errorf("game: catalog has no levels")
	}
	if opts.Engine == nil {
		opts.Engine = rules.NewEvaluator(opts.Catalog)
	}
	if opts.Cues == nil {
		opts.Cues = cue.NewBus()
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.Nop()
	}
	if opts.Oracle == nil {
		opts.Oracle = hint.NewOracle(hint.NewLocalRequester(), hint.DefaultTimeout, opts.Logger)
	}
	if opts.SolveDelay <= 0 {
		opts.SolveDelay = DefaultSolveDelay
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = realAfterFunc
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		catalog:    opts.Catalog,
		engine:     opts.Engine,
		cues:       opts.Cues,
		oracle:     opts.Oracle,
		stats:      opts.Stats,
		logger:     opts.Logger,
		sessionID:  opts.SessionID,
		solveDelay: opts.SolveDelay,
		afterFunc:  opts.AfterFunc,
		now:        opts.Now,
		progress:   progress.NewTracker(opts.Catalog.Len()),
	}, nil
}

func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) Cues() *cue.Bus { return s.cues }

func (s *Session) Catalog() levels.Catalog { return s.catalog }

// Resume returns to the current level, starting an attempt if none is live.
func (s *Session) Resume() Snapshot {
	s.mu.Lock()
	s.complete = false
	if s.attempt == nil {
		s.beginAttemptLocked(state.ReasonEnter)
	}
	snap := s.snapshotLocked()
	s.finish(cue.Click)
	return snap
}

func (s *Session) Enter(levelID int) error {
	s.mu.Lock()
	if err := s.progress.Select(levelID); err != nil {
		s.logger.Info("level.enter.rejected", map[string]any{"level_id": levelID, "error": err})
		s.finish()
		return err
	}
	s.complete = false
	s.beginAttemptLocked(state.ReasonEnter)
	s.finish(cue.Click)
	return nil
}

func (s *Session) Restart() {
	s.mu.Lock()
	if s.attempt == nil {
		s.mu.Unlock()
		return
	}
	s.beginAttemptLocked(state.ReasonRestart)
	s.finish(cue.Whoosh)
}

// Next advances past a solved level. It is a no-op while the attempt is unsolved.
func (s *Session) Next() bool {
	s.mu.Lock()
	if s.attempt == nil || !s.attempt.state.Solved {
		s.mu.Unlock()
		return false
	}
	_, done := s.progress.Advance()
	s.afterAdvanceLocked(done, state.ReasonNext)
	s.finish(cue.Whoosh)
	return done
}

func (s *Session) Skip() bool {
	s.mu.Lock()
	if a := s.attempt; a != nil {
		s.statsDo("skip", func(ctx context.Context) error { return s.stats.MarkSkipped(ctx, a.statsID) })
	}
	_, done := s.progress.Skip()
	s.afterAdvanceLocked(done, state.ReasonSkip)
	s.finish(cue.Whoosh)
	return done
}

func (s *Session) afterAdvanceLocked(done bool, reason state.AttemptReason) {
	s.complete = done
	if done {
		s.endAttemptLocked()
		s.logger.Info("game.complete", map[string]any{"coins": s.progress.Coins()})
		return
	}
	s.beginAttemptLocked(reason)
}

// Apply feeds one classified gesture to the current level.
func (s *Session) Apply(ev gesture.Event) rules.Outcome {
	s.mu.Lock()
	a := s.attempt
	if a == nil {
		s.mu.Unlock()
		return rules.Outcome{}
	}
	if a.state.Solved {
		out := rules.Outcome{State: a.state}
		s.mu.Unlock()
		return out
	}

	prev := a.state
	out := s.engine.Evaluate(a.level.ID, ev, prev)
	a.state = out.State
	cues := out.Cues

	s.logger.Debug("gesture.apply", map[string]any{
		"level_id": a.level.ID,
		"kind":     ev.Kind.String(),
		"asset":    ev.AssetID,
		"x":        ev.X,
		"y":        ev.Y,
		"verdict":  out.Verdict.String(),
		"changed":  out.Changed(prev),
	})
	rec := state.GestureRecord{Kind: ev.Kind.String(), AssetID: ev.AssetID, X: ev.X, Y: ev.Y, Verdict: out.Verdict.String(), TS: s.now()}
	s.statsDo("gesture", func(ctx context.Context) error { return s.stats.RecordGesture(ctx, a.statsID, rec) })

	switch out.Verdict {
	case rules.Solved:
		cues = append(cues, s.solveLocked()...)
	case rules.SolvedAfterDelay:
		s.scheduleSolveLocked()
	}
	s.finish(cues...)
	return out
}

func (s *Session) BuyHint() error {
	s.mu.Lock()
	a := s.attempt
	if a == nil {
		s.mu.Unlock()
		return ErrNoAttempt
	}
	if a.hintVisible {
		s.finish()
		return nil
	}
	if err := s.progress.Spend(progress.HintCost); err != nil {
		s.finish(cue.Wrong)
		return err
	}
	a.hintVisible = true
	rec := state.HintRecord{Kind: state.HintStatic, Cost: progress.HintCost, TS: s.now()}
	s.statsDo("hint", func(ctx context.Context) error { return s.stats.RecordHint(ctx, a.statsID, rec) })
	s.logger.Info("hint.bought", map[string]any{"level_id": a.level.ID, "coins": s.progress.Coins()})
	s.finish(cue.Click)
	return nil
}

// AskOracle starts a smart-hint request. The oracle cost is charged when the
// answer arrives, fallback answers included.
func (s *Session) AskOracle(ctx context.Context) error {
	s.mu.Lock()
	a := s.attempt
	if a == nil {
		s.mu.Unlock()
		return ErrNoAttempt
	}
	if a.oraclePending || a.oracleText != "" {
		s.finish()
		return nil
	}
	if !s.progress.CanSpend(progress.OracleCost) {
		s.finish(cue.Wrong)
		return fmt.Errorf("ask oracle with %d coins: %w", s.progress.Coins(), progress.ErrInsufficientFunds)
	}
	epoch := s.epoch
	statsID := a.statsID
	levelID := a.level.ID
	started := s.oracle.Ask(ctx, a.level.Question, a.level.ContextLabel(), func(ans hint.Answer) {
		s.oracleAnswered(epoch, statsID, levelID, ans)
	})
	if !started {
		s.finish()
		return ErrOracleBusy
	}
	a.oraclePending = true
	s.finish(cue.Click)
	return nil
}

func (s *Session) oracleAnswered(epoch uint64, statsID int64, levelID int, ans hint.Answer) {
	s.mu.Lock()
	charged := progress.OracleCost
	if err := s.progress.Spend(progress.OracleCost); err != nil {
		charged = 0
		s.logger.Info("oracle.uncharged", map[string]any{"level_id": levelID, "error": err})
	}
	rec := state.HintRecord{Kind: state.HintOracle, Cost: charged, TS: s.now()}
	s.statsDo("oracle", func(ctx context.Context) error { return s.stats.RecordHint(ctx, statsID, rec) })

	a := s.attempt
	if a == nil || s.epoch != epoch {
		s.logger.Info("oracle.stale", map[string]any{"level_id": levelID})
		s.finish()
		return
	}
	a.oraclePending = false
	a.oracleText = ans.Text
	s.finish(cue.Pop)
}

func (s *Session) CloseHint() {
	s.mu.Lock()
	if a := s.attempt; a != nil {
		a.hintVisible = false
	}
	s.finish(cue.Click)
}

func (s *Session) CloseOracle() {
	s.mu.Lock()
	if a := s.attempt; a != nil && !a.oraclePending {
		a.oracleText = ""
	}
	s.finish(cue.Click)
}

func (s *Session) SetMuted(muted bool) {
	s.cues.SetMuted(muted)
	s.mu.Lock()
	s.finish(cue.Click)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) beginAttemptLocked(reason state.AttemptReason) {
	s.endAttemptLocked()
	lvl, ok := s.catalog.Level(s.progress.Current())
	if !ok {
		return
	}
	a := &attempt{level: lvl, state: s.engine.Initial(lvl.ID), startedAt: s.now()}
	if s.stats != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		id, err := s.stats.StartAttempt(ctx, state.Attempt{SessionID: s.sessionID, LevelID: lvl.ID, Reason: reason, StartTS: a.startedAt})
		cancel()
		if err != nil {
			s.logger.Error("stats.attempt.failed", map[string]any{"level_id": lvl.ID, "error": err})
		}
		a.statsID = id
	}
	s.attempt = a
	s.logger.Info("level.enter", map[string]any{"level_id": lvl.ID, "reason": string(reason), "coins": s.progress.Coins()})
}

func (s *Session) endAttemptLocked() {
	s.epoch++
	if s.attempt != nil && s.attempt.timer != nil {
		s.attempt.timer.Stop()
	}
	s.attempt = nil
}

func (s *Session) scheduleSolveLocked() {
	a := s.attempt
	if a.timer != nil {
		return
	}
	epoch := s.epoch
	a.timer = s.afterFunc(s.solveDelay, func() { s.fireDelayedSolve(epoch) })
}

func (s *Session) fireDelayedSolve(epoch uint64) {
	s.mu.Lock()
	a := s.attempt
	if a == nil || s.epoch != epoch || a.state.Solved {
		s.mu.Unlock()
		return
	}
	a.state.Solved = true
	cues := s.solveLocked()
	s.finish(cues...)
}

// solveLocked runs once per attempt, after the state has been marked solved.
func (s *Session) solveLocked() []cue.Cue {
	a := s.attempt
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	solvedAt := s.now()
	newly := s.progress.MarkCompleted(a.level.ID)
	s.statsDo("solve", func(ctx context.Context) error { return s.stats.MarkSolved(ctx, a.statsID, solvedAt) })
	s.logger.Info("level.solved", map[string]any{
		"level_id":    a.level.ID,
		"first_time":  newly,
		"duration_ms": solvedAt.Sub(a.startedAt).Milliseconds(),
	})
	return []cue.Cue{cue.Win}
}

// finish releases the lock, then emits cues and notifies the observer.
func (s *Session) finish(cues ...cue.Cue) {
	snap := s.snapshotLocked()
	fn := s.onChange
	s.mu.Unlock()
	s.cues.Emit(cues...)
	if fn != nil {
		fn(snap)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	p := s.progress.Snapshot()
	snap := Snapshot{
		Epoch:        s.epoch,
		CurrentLevel: p.CurrentLevel,
		TotalLevels:  s.progress.Total(),
		Coins:        p.Coins,
		Completed:    p.Completed,
		GameComplete: s.complete,
		CanBuyHint:   p.Coins >= progress.HintCost,
		CanAskOracle: p.Coins >= progress.OracleCost,
		Muted:        s.cues.Muted(),
	}
	if lvl, ok := s.catalog.Level(p.CurrentLevel); ok {
		snap.Level = lvl
	}
	a := s.attempt
	if a == nil {
		return snap
	}
	snap.InLevel = true
	snap.Level = a.level
	snap.State = a.state
	snap.Scene = rules.SceneFor(a.level, a.state)
	snap.Solved = a.state.Solved
	snap.SolvePending = a.timer != nil && !a.state.Solved
	snap.HintVisible = a.hintVisible
	if a.hintVisible {
		snap.HintText = a.level.Hint
	}
	snap.OraclePending = a.oraclePending
	snap.OracleText = a.oracleText
	return snap
}

func (s *Session) statsDo(op string, fn func(ctx context.Context) error) {
	if s.stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.logger.Error("stats."+op+".failed", map[string]any{"error": err})
	}
}

var _ Game = (*Session)(nil)
