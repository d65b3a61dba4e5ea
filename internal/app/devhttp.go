package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mindmaster/internal/devtools"
	"mindmaster/internal/game"
	"mindmaster/internal/gesture"
	"mindmaster/internal/levels"
	"mindmaster/internal/progress"
	"mindmaster/internal/ui"
)

const demoStep = 120 * time.Millisecond

func (a *App) devRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/__dev", func(r chi.Router) {
		r.Get("/ready", a.handleDevReady)
		r.Post("/level", a.handleDevLevel)
		r.Post("/gesture", a.handleDevGesture)
		r.Post("/demo", a.handleDevDemo)
	})
	return r
}

func (a *App) startDevHTTP() error {
	srv := &http.Server{Addr: a.cfg.DevHTTP, Handler: a.devRoutes()}
	a.devMu.Lock()
	a.devServer = srv
	a.devMu.Unlock()
	a.setDevState(ui.ScreenMainMenu.String(), a.cfg.DemoScenario)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("dev_http.listen_failed", map[string]any{"error": err.Error(), "addr": a.cfg.DevHTTP})
		}
	}()
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDevError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

func (a *App) handleDevReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.getDevState())
}

func (a *App) handleDevLevel(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDevError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := a.session.Enter(req.Level); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, progress.ErrLocked) {
			status = http.StatusConflict
		}
		writeDevError(w, status, err.Error())
		return
	}
	a.setScreen(ui.ScreenPlaying)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "level": req.Level})
}

func (a *App) handleDevGesture(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDevError(w, http.StatusBadRequest, "invalid json")
		return
	}
	kind, err := gesture.ParseKind(req.Kind)
	if err != nil {
		writeDevError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.AssetID) == "" {
		writeDevError(w, http.StatusBadRequest, "asset_id is required")
		return
	}
	if a.currentScreen() != ui.ScreenPlaying {
		writeDevError(w, http.StatusConflict, "not playing")
		return
	}
	if lvl := a.session.Snapshot().Level; !hasAsset(lvl.Assets, req.AssetID) {
		msg := fmt.Sprintf("level %d has no asset %q", lvl.ID, req.AssetID)
		if near := lvl.SuggestAsset(req.AssetID); near != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", near)
		}
		writeDevError(w, http.StatusNotFound, msg)
		return
	}
	out := a.applyScripted(gesture.Event{Kind: kind, AssetID: req.AssetID, X: req.X, Y: req.Y})
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"verdict": out.Verdict.String(),
		"solved":  out.State.Solved,
	})
}

func (a *App) handleDevDemo(w http.ResponseWriter, r *http.Request) {
	var req demoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDevError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Demo = strings.TrimSpace(req.Demo)
	if req.Demo == "" {
		writeDevError(w, http.StatusBadRequest, "demo is required")
		return
	}
	a.logger.Info("dev.demo.request", map[string]any{"demo": req.Demo})

	resolved, err := a.runDemoScenario(r.Context(), req.Demo)
	if err != nil {
		a.logger.Error("dev.demo.apply_failed", map[string]any{"demo": req.Demo, "resolved": resolved, "error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error(), "state": resolved})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "state": resolved, "requested": req.Demo})
}

func (a *App) setDevState(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = true
	a.devState.Pending = false
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevPending(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = true
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevError(state, demo, errText string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = false
	a.devState.Error = errText
	a.devState.RenderSeq++
}

func (a *App) getDevState() map[string]any {
	snap := a.session.Snapshot()
	a.devMu.Lock()
	defer a.devMu.Unlock()
	return map[string]any{
		"ok":         true,
		"state":      a.devState.State,
		"demo":       a.devState.Demo,
		"render_seq": a.devState.RenderSeq,
		"rendered":   a.devState.Rendered,
		"pending":    a.devState.Pending,
		"error":      a.devState.Error,
		"level":      snap.CurrentLevel,
		"coins":      snap.Coins,
		"solved":     snap.Solved,
		"completed":  snap.Completed,
	}
}

func (a *App) runDemoScenario(ctx context.Context, requested string) (string, error) {
	resolved := a.demo.Resolve(requested).Name
	a.logger.Info("dev.demo.dispatch.begin", map[string]any{"requested": requested, "resolved": resolved})
	a.setDevPending(resolved, requested)

	a.demoMu.Lock()
	defer a.demoMu.Unlock()

	if err := a.applyDemoScenario(ctx, requested); err != nil {
		a.setDevError(resolved, requested, err.Error())
		_ = a.demo.SetState(ctx, a.devCacheDir, resolved, false)
		return resolved, err
	}
	a.setDevState(resolved, requested)
	if err := a.demo.SetState(ctx, a.devCacheDir, resolved, true); err != nil {
		a.logger.Error("dev_state.write_failed", map[string]any{"state": resolved, "error": err.Error()})
	}
	a.logger.Info("dev.demo.dispatch.done", map[string]any{"requested": requested, "resolved": resolved})
	return resolved, nil
}

func (a *App) applyDemoScenario(ctx context.Context, requested string) error {
	s := a.demo.Resolve(requested)
	switch s.Screen {
	case devtools.ScreenMenu:
		if s.GameComplete {
			a.session.Resume()
			for done := false; !done; {
				done = a.session.Skip()
			}
		}
		a.OnBackToMainMenu()
		a.view.SetSettingsOpen(s.SettingsOpen)
		return nil
	case devtools.ScreenLevels:
		a.OnOpenLevelSelect()
		return nil
	}

	a.view.SetSettingsOpen(false)
	if s.Level > 0 {
		if err := a.session.Enter(s.Level); err != nil {
			return fmt.Errorf("enter level %d: %w", s.Level, err)
		}
	} else {
		a.session.Resume()
	}
	a.setScreen(ui.ScreenPlaying)

	if s.HintOpen {
		if err := a.session.BuyHint(); err != nil {
			return fmt.Errorf("open hint: %w", err)
		}
	}
	if s.OracleOpen {
		if err := a.session.AskOracle(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, game.ErrOracleBusy) {
			return fmt.Errorf("ask oracle: %w", err)
		}
	}
	if s.Solve {
		return a.playSolution(ctx)
	}
	return nil
}

// playSolution replays the reference gestures for the current level.
func (a *App) playSolution(ctx context.Context) error {
	levelID := a.session.Snapshot().Level.ID
	events := a.demo.Solution(levelID)
	if len(events) == 0 {
		return fmt.Errorf("no scripted solution for level %d", levelID)
	}
	for _, ev := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(demoStep):
		}
		a.applyScripted(ev)
	}
	return nil
}

func hasAsset(assets []levels.Asset, id string) bool {
	for _, a := range assets {
		if a.ID == id {
			return true
		}
	}
	return false
}
