package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mindmaster/internal/gesture"
	"mindmaster/internal/hint"
)

type Screen string

const (
	ScreenMenu    Screen = "main_menu"
	ScreenLevels  Screen = "level_select"
	ScreenPlaying Screen = "playing"
)

// Scenario describes a reproducible UI state for screenshots and smoke runs.
type Scenario struct {
	Name         string
	Screen       Screen
	Level        int
	HintOpen     bool
	OracleOpen   bool
	SettingsOpen bool
	Solve        bool
	GameComplete bool
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) Resolve(name string) Scenario {
	switch name {
	case "main_menu", "menu":
		return Scenario{Name: "main_menu", Screen: ScreenMenu}
	case "level_select", "levels":
		return Scenario{Name: "level_select", Screen: ScreenLevels}
	case "settings":
		return Scenario{Name: name, Screen: ScreenMenu, SettingsOpen: true}
	case "hint_open":
		return Scenario{Name: name, Screen: ScreenPlaying, Level: 1, HintOpen: true}
	case "oracle_open":
		return Scenario{Name: name, Screen: ScreenPlaying, Level: 1, OracleOpen: true}
	case "win", "solve":
		return Scenario{Name: "win", Screen: ScreenPlaying, Solve: true}
	case "game_complete":
		return Scenario{Name: name, Screen: ScreenMenu, GameComplete: true}
	default:
		return Scenario{Name: "playing", Screen: ScreenPlaying, Level: 1}
	}
}

// Solution returns a gesture sequence that solves the builtin level id.
// Coordinates are drop centres in play-area percentages.
func (m *Manager) Solution(levelID int) []gesture.Event {
	click := gesture.ClickOn
	drop := gesture.DropAt
	switch levelID {
	case 1:
		return []gesture.Event{drop("head", 50, 70)}
	case 2:
		shake := drop("glass2", 50, 50)
		return []gesture.Event{shake, shake, shake, shake}
	case 3:
		return []gesture.Event{drop("apple", 22, 68)}
	case 4:
		return []gesture.Event{click("s2")}
	case 5:
		return []gesture.Event{drop("sun", 95, 5)}
	case 6:
		return []gesture.Event{drop("c3", 80, 55), click("c3")}
	case 7:
		return []gesture.Event{drop("2b", 45, 50)}
	case 8:
		return []gesture.Event{drop("candy", 50, 60)}
	case 9:
		return []gesture.Event{drop("min", 50, 50), drop("hour", 50, 52)}
	case 10:
		return []gesture.Event{drop("sun", 50, 95), click("ghost")}
	case 11:
		return []gesture.Event{drop("1", 60, 80), click("0")}
	case 12:
		return []gesture.Event{drop("desert", 20, 20), click("ice")}
	case 13:
		return []gesture.Event{click("e1"), click("e3")}
	case 14:
		return []gesture.Event{drop("pillow", 50, 90)}
	case 15:
		return []gesture.Event{drop("fake_coin", 50, 60)}
	case 16:
		return []gesture.Event{drop("hammer", 80, 70), drop("hammer", 50, 40)}
	case 17:
		return []gesture.Event{drop("50", 70, 80), click("1000")}
	case 18:
		return []gesture.Event{click("b2")}
	case 19:
		return []gesture.Event{drop("moon", 50, 70)}
	case 20:
		return []gesture.Event{drop("hat", 70, 20), click("p2")}
	default:
		return nil
	}
}

// MockOracle is a deterministic stand-in for the Gemini requester.
func (m *Manager) MockOracle() hint.Requester {
	return hint.RequesterFunc(func(ctx context.Context, question, contextLabel string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(150 * time.Millisecond):
		}
		return fmt.Sprintf("Mock oracle: %q is easier than it looks (%s).", question, contextLabel), nil
	})
}

func (m *Manager) SetState(ctx context.Context, cacheDir string, state string, rendered bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(home, ".cache", "mindmaster")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"state":      state,
		"rendered":   rendered,
		"updated_ts": time.Now().UTC().Format(time.RFC3339),
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(cacheDir, "dev_state.json"), b, 0o644)
}

var _ Demo = (*Manager)(nil)
