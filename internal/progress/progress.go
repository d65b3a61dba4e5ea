package progress

import (
	"errors"
	"fmt"
	"slices"
)

const (
	TotalLevels      = 20
	StartingCoins    = 50
	HintCost         = 20
	OracleCost       = HintCost * 2
	CompletionReward = 10
)

var (
	ErrUnknownLevel      = errors.New("unknown level")
	ErrLocked            = errors.New("level is locked")
	ErrInsufficientFunds = errors.New("insufficient coins")
)

type Snapshot struct {
	CurrentLevel int
	Coins        int
	Completed    []int
}

func (s Snapshot) IsCompleted(id int) bool { return slices.Contains(s.Completed, id) }

// Tracker holds progress for a single run. It is not persisted and it is not
// safe for concurrent use; the game session serialises access.
type Tracker struct {
	total     int
	current   int
	coins     int
	completed []int
}

func NewTracker(total int) *Tracker {
	if total <= 0 {
		total = TotalLevels
	}
	return &Tracker{total: total, current: 1, coins: StartingCoins}
}

func (t *Tracker) Total() int   { return t.total }
func (t *Tracker) Current() int { return t.current }
func (t *Tracker) Coins() int   { return t.coins }

func (t *Tracker) IsCompleted(id int) bool { return slices.Contains(t.completed, id) }

func (t *Tracker) Unlocked(id int) bool {
	if id < 1 || id > t.total {
		return false
	}
	return id == 1 || t.IsCompleted(id-1)
}

func (t *Tracker) Select(id int) error {
	if id < 1 || id > t.total {
		return fmt.Errorf("select level %d: %w", id, ErrUnknownLevel)
	}
	if !t.Unlocked(id) {
		return fmt.Errorf("select level %d: %w", id, ErrLocked)
	}
	t.current = id
	return nil
}

// MarkCompleted records id once and reports whether it was newly added.
func (t *Tracker) MarkCompleted(id int) bool {
	if t.IsCompleted(id) {
		return false
	}
	t.completed = append(t.completed, id)
	return true
}

// Advance moves past the current level and awards the completion reward.
// At the last level it wraps to the first and reports the game as complete
// without a reward.
func (t *Tracker) Advance() (next int, gameComplete bool) {
	if t.current >= t.total {
		t.current = 1
		return t.current, true
	}
	t.current++
	t.coins += CompletionReward
	return t.current, false
}

// Skip marks the current level completed without a reward. At the last level
// it behaves like Advance.
func (t *Tracker) Skip() (next int, gameComplete bool) {
	if t.current >= t.total {
		return t.Advance()
	}
	t.MarkCompleted(t.current)
	t.current++
	return t.current, false
}

func (t *Tracker) CanSpend(amount int) bool { return t.coins >= amount }

func (t *Tracker) Spend(amount int) error {
	if amount < 0 {
		return fmt.Errorf("spend %d: negative amount", amount)
	}
	if t.coins < amount {
		return fmt.Errorf("spend %d with %d coins: %w", amount, t.coins, ErrInsufficientFunds)
	}
	t.coins -= amount
	return nil
}

func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{CurrentLevel: t.current, Coins: t.coins, Completed: slices.Clone(t.completed)}
}
