package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"mindmaster/internal/cue"
	"mindmaster/internal/devtools"
	"mindmaster/internal/game"
	"mindmaster/internal/gesture"
	"mindmaster/internal/hint"
	"mindmaster/internal/levels"
	"mindmaster/internal/progress"
	"mindmaster/internal/rules"
	"mindmaster/internal/state"
	"mindmaster/internal/telemetry"
	"mindmaster/internal/ui"

	"github.com/google/uuid"
)

const (
	AppVersion = "0.3.0"

	settingMuted = "muted"
	statsFile    = "stats.db"
)

type App struct {
	cfg Config

	logger  *telemetry.JSONLogger
	store   *state.SQLiteStore
	session *game.Session
	demo    *devtools.Manager
	view    View

	sessionID   string
	hintSource  string
	unsubCues   []func()
	devCacheDir string

	mu     sync.Mutex
	screen ui.Screen

	devMu     sync.Mutex
	devServer *http.Server
	demoMu    sync.Mutex
	devState  struct {
		State     string
		Demo      string
		RenderSeq int
		Rendered  bool
		Pending   bool
		Error     string
	}
}

// deps are the collaborators New builds for real runs; tests supply their own.
type deps struct {
	catalog   levels.Catalog
	view      View
	logger    *telemetry.JSONLogger
	store     *state.SQLiteStore
	requester hint.Requester
	source    string
	sessionID string
	afterFunc game.AfterFunc
}

func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, err
	}

	catalog, err := levels.NewLoader().Load(context.Background(), cfg.CatalogPath)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	sessionID := uuid.NewString()
	var store *state.SQLiteStore
	if cfg.StatsEnabled {
		store, err = openStats(context.Background(), cfg.DataDir, sessionID)
		if err != nil {
			logger.Error("stats.open_failed", map[string]any{"error": err.Error(), "data_dir": cfg.DataDir})
			store = nil
		}
	}

	demo := devtools.NewManager()
	requester, source := resolveRequester(cfg, hint.NewKeyStore(hint.KeyringService), demo, logger)

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.Debug,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
		Bell:         cfg.Audio.Bell,
	})

	a, err := assemble(cfg, deps{
		catalog:   catalog,
		view:      view,
		logger:    logger,
		store:     store,
		requester: requester,
		source:    source,
		sessionID: sessionID,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		_ = logger.Close()
		return nil, err
	}
	return a, nil
}

func assemble(cfg Config, d deps) (*App, error) {
	if d.logger == nil {
		d.logger = telemetry.Nop()
	}
	if d.requester == nil {
		d.requester = hint.NewLocalRequester()
		d.source = string(HintOffline)
	}
	if d.sessionID == "" {
		d.sessionID = uuid.NewString()
	}

	var stats state.Store
	if d.store != nil {
		stats = d.store
	}
	cues := cue.NewBus()
	cues.SetMuted(initialMuted(cfg, d.store))

	session, err := game.NewSession(game.Options{
		Catalog:    d.catalog,
		Cues:       cues,
		Oracle:     hint.NewOracle(d.requester, cfg.Hint.Timeout, d.logger),
		Stats:      stats,
		Logger:     d.logger,
		SessionID:  d.sessionID,
		SolveDelay: cfg.SolveDelay,
		AfterFunc:  d.afterFunc,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		logger:     d.logger,
		store:      d.store,
		session:    session,
		demo:       devtools.NewManager(),
		view:       d.view,
		sessionID:  d.sessionID,
		hintSource: d.source,
		screen:     ui.ScreenMainMenu,
	}
	a.unsubCues = append(a.unsubCues,
		cues.Subscribe(d.view),
		cues.Subscribe(cue.ListenerFunc(func(c cue.Cue) {
			a.logger.Debug("cue.play", map[string]any{"cue": string(c)})
		})),
	)
	session.OnChange(a.onSnapshot)
	d.view.SetController(a)
	a.onSnapshot(session.Snapshot())
	a.refreshLifetimeStats()
	return a, nil
}

func openStats(ctx context.Context, dataDir, sessionID string) (*state.SQLiteStore, error) {
	store, err := state.NewSQLite(filepath.Join(dataDir, statsFile))
	if err != nil {
		return nil, fmt.Errorf("open stats: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("stats schema: %w", err)
	}
	if sessionID != "" {
		if err := store.StartSession(ctx, state.Session{ID: sessionID, AppVersion: AppVersion, StartTS: time.Now()}); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("stats session: %w", err)
		}
	}
	return store, nil
}

func initialMuted(cfg Config, store *state.SQLiteStore) bool {
	if cfg.Audio.Muted || store == nil {
		return cfg.Audio.Muted
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	settings, err := store.LoadSettings(ctx)
	if err != nil {
		return false
	}
	muted, _ := strconv.ParseBool(settings[settingMuted])
	return muted
}

// resolveRequester picks the oracle backend and reports where it came from.
func resolveRequester(cfg Config, keys *hint.KeyStore, demo *devtools.Manager, logger telemetry.Logger) (hint.Requester, string) {
	mode, err := parseHintMode(cfg.Hint.Mode)
	if err != nil {
		mode = HintAuto
	}
	switch mode.effective(cfg.Dev) {
	case HintMock:
		return demo.MockOracle(), string(HintMock)
	case HintOffline:
		return hint.NewLocalRequester(), string(HintOffline)
	}
	key, source := cfg.Hint.APIKey, "config"
	if key == "" {
		key, source, err = keys.Resolve()
		if err != nil {
			fields := map[string]any{"error": err.Error()}
			if mode == HintGemini {
				logger.Error("oracle.key_missing", fields)
			} else {
				logger.Info("oracle.offline", fields)
			}
			return hint.NewLocalRequester(), string(HintOffline)
		}
	}
	return hint.NewRequester(key, cfg.Hint.Model), source
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{
		"session": a.sessionID,
		"version": AppVersion,
		"oracle":  a.hintSource,
		"stats":   a.store != nil,
	})

	a.setScreen(ui.ScreenMainMenu)

	if a.cfg.Dev {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
		if a.cfg.DemoScenario != "" {
			go func() {
				if _, err := a.runDemoScenario(ctx, a.cfg.DemoScenario); err != nil {
					a.logger.Error("dev.demo.initial_failed", map[string]any{"demo": a.cfg.DemoScenario, "error": err.Error()})
				}
			}()
		} else {
			a.setDevState(ui.ScreenMainMenu.String(), "")
			_ = a.demo.SetState(ctx, a.devCacheDir, ui.ScreenMainMenu.String(), true)
		}
	}

	go func() {
		<-ctx.Done()
		a.view.Stop()
	}()
	return a.view.Run()
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.devMu.Lock()
	srv := a.devServer
	a.devMu.Unlock()
	if srv != nil {
		_ = srv.Shutdown(ctx)
	}
	for _, unsub := range a.unsubCues {
		unsub()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	a.logger.Info("app.stop", map[string]any{"session": a.sessionID})
	_ = a.logger.Close()
}

func (a *App) onSnapshot(snap game.Snapshot) {
	a.view.SetProgress(progressState(snap))
	if snap.InLevel {
		a.view.SetPlayingState(playingState(snap))
	}
	if snap.GameComplete && a.currentScreen() == ui.ScreenPlaying {
		a.setScreen(ui.ScreenMainMenu)
		a.refreshLifetimeStats()
	}
}

func (a *App) setScreen(screen ui.Screen) {
	a.mu.Lock()
	a.screen = screen
	a.mu.Unlock()
	a.view.SetScreen(screen)
	a.setDevState(screen.String(), "")
}

func (a *App) currentScreen() ui.Screen {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screen
}

func (a *App) refreshLifetimeStats() {
	if a.store == nil {
		a.view.SetLifetimeStats(nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sum, err := a.store.GetSummary(ctx)
	if err != nil {
		a.logger.Error("stats.summary_failed", map[string]any{"error": err.Error()})
		return
	}
	perLevel, err := a.store.GetLevelStats(ctx)
	if err != nil {
		a.logger.Error("stats.levels_failed", map[string]any{"error": err.Error()})
	}
	a.view.SetLifetimeStats(statRows(sum, perLevel))
}

func (a *App) OnPlay() {
	snap := a.session.Resume()
	a.logger.Info("ui.play", map[string]any{"level_id": snap.Level.ID})
	a.setScreen(ui.ScreenPlaying)
}

func (a *App) OnOpenLevelSelect() {
	a.view.SetProgress(progressState(a.session.Snapshot()))
	a.setScreen(ui.ScreenLevelSelect)
}

func (a *App) OnStartLevel(levelID int) {
	if err := a.session.Enter(levelID); err != nil {
		if errors.Is(err, progress.ErrLocked) {
			a.view.FlashStatus("Locked")
			return
		}
		a.view.FlashStatus("Cannot open level: " + err.Error())
		return
	}
	a.setScreen(ui.ScreenPlaying)
}

func (a *App) OnBackToMainMenu() {
	a.setScreen(ui.ScreenMainMenu)
	a.refreshLifetimeStats()
}

func (a *App) OnGesture(ev gesture.Event) {
	if a.currentScreen() != ui.ScreenPlaying {
		return
	}
	a.session.Apply(ev)
}

// applyScripted runs a gesture that did not come from the mouse.
func (a *App) applyScripted(ev gesture.Event) rules.Outcome {
	if ev.Kind == gesture.Drop {
		a.view.PlaceAsset(ev.AssetID, ev.X, ev.Y)
	}
	return a.session.Apply(ev)
}

func (a *App) OnPickUp(assetID string) {
	a.logger.Debug("gesture.pickup", map[string]any{"asset": assetID})
	a.session.Cues().Emit(cue.Pop)
}

func (a *App) OnRestart() {
	a.session.Restart()
}

func (a *App) OnSkip() {
	if done := a.session.Skip(); done {
		a.logger.Info("ui.game_complete", map[string]any{"via": "skip"})
	}
}

func (a *App) OnNextLevel() {
	if done := a.session.Next(); done {
		a.logger.Info("ui.game_complete", map[string]any{"via": "next"})
	}
}

func (a *App) OnBuyHint() {
	if err := a.session.BuyHint(); err != nil {
		a.flashSpendError(err, progress.HintCost)
	}
}

func (a *App) OnAskOracle() {
	err := a.session.AskOracle(context.Background())
	if err != nil && !errors.Is(err, game.ErrOracleBusy) {
		a.flashSpendError(err, progress.OracleCost)
	}
}

func (a *App) flashSpendError(err error, cost int) {
	if errors.Is(err, progress.ErrInsufficientFunds) {
		a.view.FlashStatus(fmt.Sprintf("Need %d coins", cost))
		return
	}
	a.view.FlashStatus(err.Error())
}

func (a *App) OnCloseHint() {
	a.session.CloseHint()
}

func (a *App) OnCloseOracle() {
	a.session.CloseOracle()
}

func (a *App) OnToggleMute() {
	muted := !a.session.Snapshot().Muted
	a.session.SetMuted(muted)
	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.store.SaveSettings(ctx, map[string]string{settingMuted: strconv.FormatBool(muted)}); err != nil {
		a.logger.Error("settings.save_failed", map[string]any{"error": err.Error()})
	}
}

func (a *App) OnResize(cols, rows int) {
	mode := ui.DetermineLayoutMode(cols, rows)
	a.logger.Debug("ui.resize", map[string]any{"cols": cols, "rows": rows, "too_small": mode == ui.LayoutTooSmall})
}

func (a *App) OnQuit() {
	a.view.Stop()
}
