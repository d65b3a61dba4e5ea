package app

import (
	"fmt"
	"sort"
	"time"

	"mindmaster/internal/game"
	"mindmaster/internal/progress"
	"mindmaster/internal/state"
	"mindmaster/internal/ui"
)

type levelRequest struct {
	Level int `json:"level"`
}

type gestureRequest struct {
	Kind    string  `json:"kind"`
	AssetID string  `json:"asset_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

type demoRequest struct {
	Demo string `json:"demo"`
}

func progressState(s game.Snapshot) ui.ProgressState {
	return ui.ProgressState{
		CurrentLevel: s.CurrentLevel,
		TotalLevels:  s.TotalLevels,
		Coins:        s.Coins,
		Completed:    append([]int(nil), s.Completed...),
		Muted:        s.Muted,
		GameComplete: s.GameComplete,
	}
}

func playingState(s game.Snapshot) ui.PlayingState {
	assets := make([]ui.AssetState, 0, len(s.Scene.Assets))
	for _, v := range s.Scene.Assets {
		assets = append(assets, ui.AssetState{
			ID:        v.Asset.ID,
			Kind:      string(v.Asset.Kind),
			Content:   v.Content,
			X:         v.Asset.X,
			Y:         v.Asset.Y,
			Width:     v.Asset.Width,
			Height:    v.Asset.Height,
			Draggable: v.Asset.Draggable,
			Visible:   v.Visible,
			Filter:    string(v.Filter),
		})
	}
	return ui.PlayingState{
		Epoch:         s.Epoch,
		LevelID:       s.Level.ID,
		TotalLevels:   s.TotalLevels,
		Question:      s.Level.Question,
		Coins:         s.Coins,
		Dark:          s.Scene.Dark,
		Assets:        assets,
		Solved:        s.Solved,
		SolvePending:  s.SolvePending,
		HintVisible:   s.HintVisible,
		HintText:      s.HintText,
		OraclePending: s.OraclePending,
		OracleText:    s.OracleText,
		CanBuyHint:    s.CanBuyHint,
		CanAskOracle:  s.CanAskOracle,
		HintCost:      progress.HintCost,
		OracleCost:    progress.OracleCost,
		Muted:         s.Muted,
	}
}

// statRows formats lifetime stats for the main menu.
func statRows(sum state.Summary, perLevel map[int]state.LevelStats) []ui.StatRow {
	rows := []ui.StatRow{
		{Label: "Sessions", Value: fmt.Sprint(sum.Sessions)},
		{Label: "Attempts", Value: fmt.Sprint(sum.Attempts)},
		{Label: "Solves", Value: fmt.Sprint(sum.Solves)},
		{Label: "Hints bought", Value: fmt.Sprint(sum.Hints)},
		{Label: "Oracle asks", Value: fmt.Sprint(sum.Oracles)},
	}
	var best state.LevelStats
	ids := make([]int, 0, len(perLevel))
	for id := range perLevel {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		ls := perLevel[id]
		if ls.Solves == 0 || ls.Attempts == 0 {
			continue
		}
		if best.LevelID == 0 || ls.Attempts > best.Attempts {
			best = ls
		}
	}
	if best.LevelID != 0 {
		rows = append(rows, ui.StatRow{
			Label: "Toughest level",
			Value: fmt.Sprintf("%d (%d tries)", best.LevelID, best.Attempts),
		})
	}
	return rows
}

func formatBest(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return (time.Duration(ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}
