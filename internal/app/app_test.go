package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"mindmaster/internal/cue"
	"mindmaster/internal/gesture"
	"mindmaster/internal/levels"
	"mindmaster/internal/state"
	"mindmaster/internal/ui"
)

type fakeView struct {
	mu       sync.Mutex
	screen   ui.Screen
	progress ui.ProgressState
	play     ui.PlayingState
	stats    []ui.StatRow
	settings bool
	flashes  []string
	placed   map[string][2]float64
	cues     []cue.Cue
	stopped  int
}

func newFakeView() *fakeView { return &fakeView{placed: map[string][2]float64{}} }

func (f *fakeView) Run() error { return nil }
func (f *fakeView) Stop() {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
}
func (f *fakeView) SetController(ui.Controller) {}
func (f *fakeView) SetScreen(s ui.Screen) {
	f.mu.Lock()
	f.screen = s
	f.mu.Unlock()
}
func (f *fakeView) SetProgress(p ui.ProgressState) {
	f.mu.Lock()
	f.progress = p
	f.mu.Unlock()
}
func (f *fakeView) SetPlayingState(p ui.PlayingState) {
	f.mu.Lock()
	f.play = p
	f.mu.Unlock()
}
func (f *fakeView) SetLifetimeStats(rows []ui.StatRow) {
	f.mu.Lock()
	f.stats = rows
	f.mu.Unlock()
}
func (f *fakeView) SetSettingsOpen(open bool) {
	f.mu.Lock()
	f.settings = open
	f.mu.Unlock()
}
func (f *fakeView) PlaceAsset(id string, x, y float64) {
	f.mu.Lock()
	f.placed[id] = [2]float64{x, y}
	f.mu.Unlock()
}
func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	f.flashes = append(f.flashes, msg)
	f.mu.Unlock()
}
func (f *fakeView) OnCue(c cue.Cue) {
	f.mu.Lock()
	f.cues = append(f.cues, c)
	f.mu.Unlock()
}

type viewState struct {
	screen   ui.Screen
	progress ui.ProgressState
	play     ui.PlayingState
	stats    []ui.StatRow
	settings bool
	flashes  []string
	cues     []cue.Cue
	stopped  int
}

func (f *fakeView) snapshot() viewState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return viewState{
		screen:   f.screen,
		progress: f.progress,
		play:     f.play,
		stats:    f.stats,
		settings: f.settings,
		flashes:  append([]string(nil), f.flashes...),
		cues:     append([]cue.Cue(nil), f.cues...),
		stopped:  f.stopped,
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Hint.Mode = string(HintOffline)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return cfg
}

func newTestApp(t *testing.T, store *state.SQLiteStore) (*App, *fakeView) {
	t.Helper()
	cfg := testConfig(t)
	view := newFakeView()
	a, err := assemble(cfg, deps{catalog: levels.MustBuiltin(), view: view, store: store, sessionID: "test"})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	a.devCacheDir = t.TempDir()
	return a, view
}

func TestPlayPushesPlayingState(t *testing.T) {
	a, view := newTestApp(t, nil)
	a.OnPlay()

	got := view.snapshot()
	if got.screen != ui.ScreenPlaying {
		t.Fatalf("expected playing screen, got %v", got.screen)
	}
	if got.play.LevelID != 1 || got.play.Question == "" {
		t.Fatalf("expected level 1 with a question, got %+v", got.play)
	}
	if len(got.play.Assets) == 0 {
		t.Fatalf("expected assets for level 1")
	}
	if got.play.HintCost != 20 || got.play.OracleCost != 40 {
		t.Fatalf("unexpected costs %d/%d", got.play.HintCost, got.play.OracleCost)
	}
}

func TestStartLockedLevelFlashesLocked(t *testing.T) {
	a, view := newTestApp(t, nil)
	a.OnStartLevel(5)

	got := view.snapshot()
	if got.screen != ui.ScreenMainMenu {
		t.Fatalf("expected to stay on the main menu, got %v", got.screen)
	}
	if len(got.flashes) != 1 || got.flashes[0] != "Locked" {
		t.Fatalf("expected Locked flash, got %v", got.flashes)
	}
}

func TestSolveThenNextAdvancesAndAwardsCoins(t *testing.T) {
	a, view := newTestApp(t, nil)
	a.OnPlay()

	a.OnNextLevel()
	if view.snapshot().progress.CurrentLevel != 1 {
		t.Fatalf("expected next to be ignored before solving")
	}

	a.OnGesture(gesture.DropAt("head", 50, 70))
	if !view.snapshot().play.Solved {
		t.Fatalf("expected level 1 solved")
	}
	a.OnNextLevel()

	got := view.snapshot()
	if got.progress.CurrentLevel != 2 || got.play.LevelID != 2 {
		t.Fatalf("expected level 2, got %d/%d", got.progress.CurrentLevel, got.play.LevelID)
	}
	if got.progress.Coins != 60 {
		t.Fatalf("expected 60 coins, got %d", got.progress.Coins)
	}
	if !got.progress.IsCompleted(1) {
		t.Fatalf("expected level 1 completed")
	}
}

func TestGestureIgnoredOutsidePlaying(t *testing.T) {
	a, view := newTestApp(t, nil)
	a.OnPlay()
	a.OnBackToMainMenu()
	a.OnGesture(gesture.DropAt("head", 50, 70))
	if view.snapshot().play.Solved {
		t.Fatalf("expected gestures from the menu to be ignored")
	}
}

func TestBuyHintWithoutCoinsFlashesCost(t *testing.T) {
	a, view := newTestApp(t, nil)
	a.OnPlay()

	a.OnBuyHint()
	a.OnRestart()
	a.OnBuyHint()
	a.OnRestart()
	a.OnBuyHint()

	got := view.snapshot()
	if got.progress.Coins != 10 {
		t.Fatalf("expected 10 coins left, got %d", got.progress.Coins)
	}
	if len(got.flashes) != 1 || got.flashes[0] != "Need 20 coins" {
		t.Fatalf("expected insufficient funds flash, got %v", got.flashes)
	}
	if got.play.HintVisible {
		t.Fatalf("expected no hint on the failed purchase")
	}
}

func TestSkipThroughEveryLevelReturnsToMenu(t *testing.T) {
	a, view := newTestApp(t, nil)
	a.OnPlay()
	for i := 0; i < 20; i++ {
		a.OnSkip()
	}

	got := view.snapshot()
	if !got.progress.GameComplete {
		t.Fatalf("expected game complete")
	}
	if got.screen != ui.ScreenMainMenu {
		t.Fatalf("expected main menu after completion, got %v", got.screen)
	}
	if got.progress.Coins != 50 {
		t.Fatalf("expected skips to award nothing, got %d", got.progress.Coins)
	}
}

func TestToggleMutePersistsAcrossRuns(t *testing.T) {
	store, err := openStats(context.Background(), t.TempDir(), "s1")
	if err != nil {
		t.Fatalf("open stats: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	a, view := newTestApp(t, store)
	a.OnToggleMute()
	if !view.snapshot().progress.Muted {
		t.Fatalf("expected muted progress state")
	}

	b, view2 := newTestApp(t, store)
	if !b.session.Snapshot().Muted || !view2.snapshot().progress.Muted {
		t.Fatalf("expected mute to be restored from settings")
	}
}

func TestMutedCuesDoNotReachView(t *testing.T) {
	a, view := newTestApp(t, nil)
	a.OnPlay()
	before := len(view.snapshot().cues)
	a.OnToggleMute()
	a.OnPickUp("head")
	if got := len(view.snapshot().cues); got != before {
		t.Fatalf("expected no cues while muted, got %d new", got-before)
	}
}

func TestLifetimeStatsShownOnMenu(t *testing.T) {
	store, err := openStats(context.Background(), t.TempDir(), "s1")
	if err != nil {
		t.Fatalf("open stats: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	a, view := newTestApp(t, store)
	a.OnPlay()
	a.OnGesture(gesture.DropAt("head", 50, 70))
	a.OnBackToMainMenu()

	rows := view.snapshot().stats
	found := false
	for _, row := range rows {
		if row.Label == "Solves" && row.Value == "1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected one solve in lifetime stats, got %+v", rows)
	}
}

func TestDevRoutes(t *testing.T) {
	a, view := newTestApp(t, nil)
	srv := httptest.NewServer(a.devRoutes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/__dev/ready")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	var ready map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&ready)
	resp.Body.Close()
	if ready["ok"] != true || ready["level"] != float64(1) {
		t.Fatalf("unexpected ready payload %v", ready)
	}

	resp, err = http.Post(srv.URL+"/__dev/level", "application/json", strings.NewReader(`{"level":3}`))
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for a locked level, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/__dev/level", "application/json", strings.NewReader(`{"level":1}`))
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for level 1, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/__dev/gesture", "application/json", strings.NewReader(`{"kind":"drop","asset_id":"head","x":50,"y":70}`))
	if err != nil {
		t.Fatalf("gesture: %v", err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if out["verdict"] != "solved" {
		t.Fatalf("expected solved verdict, got %v", out)
	}
	if p := view.snapshot(); !p.play.Solved {
		t.Fatalf("expected solved playing state")
	}
	view.mu.Lock()
	placed := view.placed["head"]
	view.mu.Unlock()
	if placed != [2]float64{50, 70} {
		t.Fatalf("expected head placed at drop point, got %v", placed)
	}

	resp, err = http.Post(srv.URL+"/__dev/gesture", "application/json", strings.NewReader(`{"kind":"swipe","asset_id":"head"}`))
	if err != nil {
		t.Fatalf("gesture: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown kind, got %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/__dev/gesture", "application/json", strings.NewReader(`{"kind":"click","asset_id":"haed"}`))
	if err != nil {
		t.Fatalf("gesture: %v", err)
	}
	out = map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown asset, got %d", resp.StatusCode)
	}
	if msg, _ := out["error"].(string); !strings.Contains(msg, `did you mean "head"`) {
		t.Fatalf("expected a suggestion, got %v", out)
	}
}

func TestDemoWinScenarioSolvesCurrentLevel(t *testing.T) {
	a, view := newTestApp(t, nil)
	resolved, err := a.runDemoScenario(context.Background(), "solve")
	if err != nil {
		t.Fatalf("demo: %v", err)
	}
	if resolved != "win" {
		t.Fatalf("expected win scenario, got %q", resolved)
	}
	if got := view.snapshot(); !got.play.Solved || got.screen != ui.ScreenPlaying {
		t.Fatalf("expected a solved level on screen, got %+v", got.play)
	}
	if a.getDevState()["state"] != "win" {
		t.Fatalf("expected dev state win, got %v", a.getDevState()["state"])
	}
}

func TestDemoSettingsScenarioOpensOverlay(t *testing.T) {
	a, view := newTestApp(t, nil)
	if _, err := a.runDemoScenario(context.Background(), "settings"); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if got := view.snapshot(); !got.settings || got.screen != ui.ScreenMainMenu {
		t.Fatalf("expected settings over the main menu")
	}
}

func TestParseEnvOverlaysDefaults(t *testing.T) {
	cfg := DefaultConfig()
	err := parseEnv(&cfg, map[string]string{
		"MINDMASTER_DATA_DIR":     "/tmp/mm",
		"MINDMASTER_AUDIO_MUTED":  "true",
		"MINDMASTER_HINT_MODE":    "offline",
		"MINDMASTER_HINT_TIMEOUT": "3s",
		"MINDMASTER_UI_STYLE":     "retro_terminal",
	})
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DataDir != "/tmp/mm" || !cfg.Audio.Muted {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Hint.Mode != "offline" || cfg.Hint.Timeout.Seconds() != 3 {
		t.Fatalf("unexpected hint config %+v", cfg.Hint)
	}
	if cfg.UI.StyleVariant != "retro_terminal" || cfg.UI.MotionLevel != "full" {
		t.Fatalf("unexpected ui config %+v", cfg.UI)
	}
	if cfg.Hint.Model == "" || !cfg.StatsEnabled {
		t.Fatalf("expected untouched defaults to survive")
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Hint.Mode = "psychic"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid hint mode error")
	}
	cfg.Hint.Mode = "local"
	cfg.UI.StyleVariant = "neon"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid style error")
	}
}

func TestHintModeDevDefaultsToMock(t *testing.T) {
	if got := HintAuto.effective(true); got != HintMock {
		t.Fatalf("expected mock in dev, got %q", got)
	}
	if got := HintOffline.effective(true); got != HintOffline {
		t.Fatalf("expected explicit mode to win, got %q", got)
	}
}

func TestReadStatsWithoutJournal(t *testing.T) {
	cfg := testConfig(t)
	report, err := ReadStats(context.Background(), cfg)
	if err != nil {
		t.Fatalf("read stats: %v", err)
	}
	if report.Summary.Sessions != 0 || len(report.Levels) != 0 {
		t.Fatalf("expected an empty report, got %+v", report)
	}
}

func TestReadStatsDoesNotAddSession(t *testing.T) {
	cfg := testConfig(t)
	store, err := openStats(context.Background(), cfg.DataDir, "s1")
	if err != nil {
		t.Fatalf("open stats: %v", err)
	}
	_ = store.Close()

	report, err := ReadStats(context.Background(), cfg)
	if err != nil {
		t.Fatalf("read stats: %v", err)
	}
	if report.Summary.Sessions != 1 {
		t.Fatalf("expected 1 session, got %d", report.Summary.Sessions)
	}
}

func TestStatRowsPicksToughestSolvedLevel(t *testing.T) {
	rows := statRows(state.Summary{Sessions: 2, Solves: 3}, map[int]state.LevelStats{
		1: {LevelID: 1, Attempts: 1, Solves: 1},
		6: {LevelID: 6, Attempts: 7, Solves: 1},
		9: {LevelID: 9, Attempts: 12, Solves: 0},
	})
	last := rows[len(rows)-1]
	if last.Label != "Toughest level" || last.Value != "6 (7 tries)" {
		t.Fatalf("unexpected toughest row %+v", last)
	}
}

func TestAskOracleOnceUsesOfflineQuips(t *testing.T) {
	cfg := testConfig(t)
	ans, source, err := AskOracleOnce(context.Background(), cfg, 1)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if source != string(HintOffline) {
		t.Fatalf("expected offline source, got %q", source)
	}
	if ans.Fallback || ans.Text != "Things here are more mobile than they look." {
		t.Fatalf("expected the first drag quip, got %+v", ans)
	}
}
