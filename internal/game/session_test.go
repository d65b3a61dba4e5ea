package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mindmaster/internal/cue"
	"mindmaster/internal/gesture"
	"mindmaster/internal/hint"
	"mindmaster/internal/levels"
	"mindmaster/internal/progress"
	"mindmaster/internal/rules"
	"mindmaster/internal/state"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every timer, including stopped ones, to prove stale callbacks are harmless.
func (c *fakeClock) fire() {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()
	for _, t := range timers {
		t.f()
	}
}

func (c *fakeClock) live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type cueLog struct {
	mu   sync.Mutex
	cues []cue.Cue
}

func (l *cueLog) OnCue(c cue.Cue) {
	l.mu.Lock()
	l.cues = append(l.cues, c)
	l.mu.Unlock()
}

func (l *cueLog) count(c cue.Cue) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, got := range l.cues {
		if got == c {
			n++
		}
	}
	return n
}

func newSession(t *testing.T, opts Options) (*Session, *fakeClock, *cueLog) {
	t.Helper()
	if opts.Catalog.Len() == 0 {
		cat, err := levels.LoadBuiltin()
		if err != nil {
			t.Fatalf("load catalog: %v", err)
		}
		opts.Catalog = cat
	}
	clock := &fakeClock{}
	opts.AfterFunc = clock.AfterFunc
	bus := cue.NewBus()
	log := &cueLog{}
	bus.Subscribe(log)
	opts.Cues = bus
	s, err := NewSession(opts)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, clock, log
}

func solveLevel1(t *testing.T, s *Session) {
	t.Helper()
	out := s.Apply(gesture.DropAt("head", 50, 70))
	if !out.State.Solved {
		t.Fatalf("expected level 1 to solve")
	}
}

func TestEnterLockedLevelIsRejected(t *testing.T) {
	s, _, _ := newSession(t, Options{})
	if err := s.Enter(3); !errors.Is(err, progress.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if snap := s.Snapshot(); snap.InLevel || snap.CurrentLevel != 1 {
		t.Fatalf("expected no navigation, got %+v", snap)
	}
}

func TestSolveMarksCompletedOnce(t *testing.T) {
	s, _, cues := newSession(t, Options{})
	s.Resume()
	solveLevel1(t, s)
	s.Apply(gesture.DropAt("head", 50, 80))

	snap := s.Snapshot()
	if !snap.Solved || len(snap.Completed) != 1 || snap.Completed[0] != 1 {
		t.Fatalf("expected level 1 completed once, got %+v", snap.Completed)
	}
	if cues.count(cue.Win) != 1 {
		t.Fatalf("expected one win cue, got %d", cues.count(cue.Win))
	}
	if !snap.Unlocked(2) {
		t.Fatalf("expected level 2 unlocked")
	}
}

func TestDelayedSolveFiresOnce(t *testing.T) {
	s, clock, cues := newSession(t, Options{})
	s.Resume()
	solveLevel1(t, s)
	if done := s.Next(); done {
		t.Fatalf("expected game to continue")
	}
	if snap := s.Snapshot(); snap.CurrentLevel != 2 || snap.Coins != progress.StartingCoins+progress.CompletionReward {
		t.Fatalf("expected level 2 with reward, got level %d coins %d", snap.CurrentLevel, snap.Coins)
	}

	shake := gesture.DropAt("glass2", 50, 50)
	for i := 0; i < 4; i++ {
		s.Apply(shake)
	}
	snap := s.Snapshot()
	if snap.Solved || !snap.SolvePending {
		t.Fatalf("expected pending delayed solve, got solved=%v pending=%v", snap.Solved, snap.SolvePending)
	}
	// a fifth shake while pending must not schedule a second solve
	s.Apply(shake)
	if clock.live() != 1 {
		t.Fatalf("expected one live timer, got %d", clock.live())
	}

	clock.fire()
	snap = s.Snapshot()
	if !snap.Solved || !snap.IsCompleted(2) {
		t.Fatalf("expected level 2 solved after delay")
	}
	if cues.count(cue.Win) != 2 {
		t.Fatalf("expected a win cue per level, got %d", cues.count(cue.Win))
	}
}

func TestNextIgnoredUntilSolved(t *testing.T) {
	s, _, cues := newSession(t, Options{})
	if done := s.Next(); done {
		t.Fatalf("expected no completion without an attempt")
	}
	s.Resume()
	s.Next()
	snap := s.Snapshot()
	if snap.CurrentLevel != 1 || snap.Coins != progress.StartingCoins || len(snap.Completed) != 0 {
		t.Fatalf("expected unsolved next to be ignored, got level %d coins %d completed %v", snap.CurrentLevel, snap.Coins, snap.Completed)
	}
	if cues.count(cue.Whoosh) != 0 {
		t.Fatalf("expected no whoosh for an ignored next")
	}

	solveLevel1(t, s)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Next()
		}()
	}
	wg.Wait()
	snap = s.Snapshot()
	if snap.CurrentLevel != 2 || snap.Coins != progress.StartingCoins+progress.CompletionReward {
		t.Fatalf("expected a single advance, got level %d coins %d", snap.CurrentLevel, snap.Coins)
	}
}

func TestRestartCancelsDelayedSolve(t *testing.T) {
	s, clock, _ := newSession(t, Options{})
	s.Resume()
	solveLevel1(t, s)
	s.Next()
	for i := 0; i < 4; i++ {
		s.Apply(gesture.DropAt("glass2", 50, 50))
	}
	s.Restart()
	if clock.live() != 0 {
		t.Fatalf("expected restart to stop the timer")
	}
	clock.fire()
	snap := s.Snapshot()
	if snap.Solved || snap.IsCompleted(2) {
		t.Fatalf("expected stale delayed solve to be ignored")
	}
	if st, ok := snap.State.Data.(rules.GlassState); !ok || st.Shakes != 0 || st.Empty {
		t.Fatalf("expected fresh glass state after restart, got %+v", snap.State.Data)
	}
}

func TestBuyHintChargesOncePerReveal(t *testing.T) {
	s, _, cues := newSession(t, Options{})
	s.Resume()
	if err := s.BuyHint(); err != nil {
		t.Fatalf("buy hint: %v", err)
	}
	if err := s.BuyHint(); err != nil {
		t.Fatalf("buy hint again: %v", err)
	}
	snap := s.Snapshot()
	if snap.Coins != progress.StartingCoins-progress.HintCost {
		t.Fatalf("expected a single charge, got %d coins", snap.Coins)
	}
	if !snap.HintVisible || snap.HintText != "Necks are flexible in cartoons!" {
		t.Fatalf("expected hint text, got %+v", snap)
	}

	s.CloseHint()
	if err := s.BuyHint(); err != nil {
		t.Fatalf("rebuy: %v", err)
	}
	s.CloseHint()
	if err := s.BuyHint(); !errors.Is(err, progress.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := s.Snapshot().Coins; got != 10 {
		t.Fatalf("expected 10 coins left, got %d", got)
	}
	if cues.count(cue.Wrong) != 1 {
		t.Fatalf("expected a wrong cue")
	}
}

func TestAskOracleChargesOnAnswer(t *testing.T) {
	release := make(chan struct{})
	oracle := hint.NewOracle(hint.RequesterFunc(func(ctx context.Context, q, label string) (string, error) {
		<-release
		if label != "Level Type: DRAG" {
			return "", errors.New("unexpected label " + label)
		}
		return "Think shorter.", nil
	}), time.Second, nil)
	s, _, _ := newSession(t, Options{Oracle: oracle})

	answered := make(chan Snapshot, 8)
	s.OnChange(func(snap Snapshot) {
		if snap.OracleText != "" {
			answered <- snap
		}
	})
	s.Resume()
	if err := s.AskOracle(context.Background()); err != nil {
		t.Fatalf("ask oracle: %v", err)
	}
	snap := s.Snapshot()
	if !snap.OraclePending || snap.Coins != progress.StartingCoins {
		t.Fatalf("expected pending and uncharged, got %+v", snap)
	}
	if err := s.AskOracle(context.Background()); err != nil {
		t.Fatalf("expected re-entrant ask to be a silent no-op, got %v", err)
	}
	close(release)

	select {
	case snap = <-answered:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for oracle")
	}
	if snap.OracleText != "Think shorter." || snap.OraclePending {
		t.Fatalf("unexpected oracle state %+v", snap)
	}
	if snap.Coins != progress.StartingCoins-progress.OracleCost {
		t.Fatalf("expected oracle charge, got %d", snap.Coins)
	}
	if err := s.AskOracle(context.Background()); err != nil {
		t.Fatalf("expected ask with an answer showing to be a no-op, got %v", err)
	}
	s.CloseOracle()
	if err := s.AskOracle(context.Background()); !errors.Is(err, progress.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds for a second oracle, got %v", err)
	}
}

func TestSkipThroughToGameComplete(t *testing.T) {
	s, _, _ := newSession(t, Options{})
	s.Resume()
	var done bool
	for i := 0; i < progress.TotalLevels; i++ {
		done = s.Skip()
	}
	snap := s.Snapshot()
	if !done || !snap.GameComplete || snap.InLevel {
		t.Fatalf("expected game complete, got %+v", snap)
	}
	if snap.CurrentLevel != 1 || snap.Coins != progress.StartingCoins {
		t.Fatalf("expected level 1 with no rewards, got level %d coins %d", snap.CurrentLevel, snap.Coins)
	}
	if len(snap.Completed) != progress.TotalLevels-1 {
		t.Fatalf("expected all but the last level marked, got %v", snap.Completed)
	}
	s.Resume()
	if snap := s.Snapshot(); snap.GameComplete || !snap.InLevel {
		t.Fatalf("expected resume to clear the completion flag")
	}
}

func TestSessionRecordsStats(t *testing.T) {
	store, err := state.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if err := store.StartSession(ctx, state.Session{ID: "test"}); err != nil {
		t.Fatalf("start session: %v", err)
	}

	s, _, _ := newSession(t, Options{Stats: store, SessionID: "test"})
	s.Resume()
	s.Apply(gesture.DropAt("head", 50, 40))
	s.Restart()
	solveLevel1(t, s)
	if err := s.BuyHint(); err != nil {
		t.Fatalf("buy hint: %v", err)
	}

	sum, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Attempts != 2 || sum.Restarts != 1 || sum.Gestures != 2 || sum.Solves != 1 || sum.Hints != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}
