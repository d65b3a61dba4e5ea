package game

import (
	"slices"

	"mindmaster/internal/levels"
	"mindmaster/internal/rules"
)

// Snapshot is an immutable copy of everything the presentation layer needs.
type Snapshot struct {
	Epoch        uint64
	InLevel      bool
	Level        levels.Level
	Scene        rules.Scene
	State        rules.State
	Solved       bool
	SolvePending bool

	CurrentLevel int
	TotalLevels  int
	Coins        int
	Completed    []int
	GameComplete bool

	HintVisible   bool
	HintText      string
	OraclePending bool
	OracleText    string
	CanBuyHint    bool
	CanAskOracle  bool

	Muted bool
}

func (s Snapshot) IsCompleted(id int) bool { return slices.Contains(s.Completed, id) }

func (s Snapshot) Unlocked(id int) bool {
	if id < 1 || id > s.TotalLevels {
		return false
	}
	return id == 1 || s.IsCompleted(id-1)
}
