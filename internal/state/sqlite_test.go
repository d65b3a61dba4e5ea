package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestJournalSummaryCountsEverything(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	start := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)

	if err := store.StartSession(ctx, Session{ID: "s1", AppVersion: "dev", StartTS: start}); err != nil {
		t.Fatalf("start session: %v", err)
	}
	a1, err := store.StartAttempt(ctx, Attempt{SessionID: "s1", LevelID: 1, StartTS: start})
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if err := store.RecordGesture(ctx, a1, GestureRecord{Kind: "drop", AssetID: "head", X: 50, Y: 40, Verdict: "pending"}); err != nil {
		t.Fatalf("record gesture: %v", err)
	}
	if err := store.RecordHint(ctx, a1, HintRecord{Kind: HintStatic, Cost: 20}); err != nil {
		t.Fatalf("record hint: %v", err)
	}
	a2, err := store.StartAttempt(ctx, Attempt{SessionID: "s1", LevelID: 1, Reason: ReasonRestart, StartTS: start.Add(time.Minute)})
	if err != nil {
		t.Fatalf("restart attempt: %v", err)
	}
	if err := store.RecordGesture(ctx, a2, GestureRecord{Kind: "drop", AssetID: "head", X: 50, Y: 70, Verdict: "solved"}); err != nil {
		t.Fatalf("record gesture: %v", err)
	}
	if err := store.MarkSolved(ctx, a2, start.Add(time.Minute+1500*time.Millisecond)); err != nil {
		t.Fatalf("mark solved: %v", err)
	}
	// a second solve signal must not overwrite the first
	if err := store.MarkSolved(ctx, a2, start.Add(time.Hour)); err != nil {
		t.Fatalf("mark solved again: %v", err)
	}
	a3, _ := store.StartAttempt(ctx, Attempt{SessionID: "s1", LevelID: 2, Reason: ReasonNext})
	if err := store.RecordHint(ctx, a3, HintRecord{Kind: HintOracle, Cost: 40}); err != nil {
		t.Fatalf("record oracle: %v", err)
	}
	if err := store.MarkSkipped(ctx, a3); err != nil {
		t.Fatalf("mark skipped: %v", err)
	}

	sum, err := store.GetSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := Summary{Sessions: 1, Attempts: 3, Solves: 1, Gestures: 2, Hints: 1, Oracles: 1, Restarts: 1, Skips: 1}
	if sum != want {
		t.Fatalf("expected %+v, got %+v", want, sum)
	}

	stats, err := store.GetLevelStats(ctx)
	if err != nil {
		t.Fatalf("level stats: %v", err)
	}
	if got := stats[1]; got.Attempts != 2 || got.Solves != 1 || got.BestTimeMS != 1500 {
		t.Fatalf("unexpected level 1 stats %+v", got)
	}
	if got := stats[2]; got.Attempts != 1 || got.Solves != 0 {
		t.Fatalf("unexpected level 2 stats %+v", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if err := store.SaveSettings(ctx, map[string]string{"sound": "off", " ": "ignored"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveSettings(ctx, map[string]string{"sound": "on"}); err != nil {
		t.Fatalf("save again: %v", err)
	}
	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got["sound"] != "on" {
		t.Fatalf("unexpected settings %v", got)
	}
}

func TestInMemoryStore(t *testing.T) {
	store, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := store.StartSession(ctx, Session{ID: "mem"}); err != nil {
		t.Fatalf("start session: %v", err)
	}
	sum, err := store.GetSummary(ctx)
	if err != nil || sum.Sessions != 1 {
		t.Fatalf("expected one session, got %+v err=%v", sum, err)
	}
}
